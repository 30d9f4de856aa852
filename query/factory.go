/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"github.com/suparena/statstore/storagemodels"
)

// Compare builds a comparison for a key whose value type is only known at
// runtime, such as keys resolved from a statement descriptor.
func Compare(key storagemodels.Keyed, op ComparisonOperator, value any) *BinaryComparisonExpression {
	return &BinaryComparisonExpression{Key: key, Operator: op, Value: value}
}

// Member builds a set membership test for a runtime-typed key.
func Member(key storagemodels.Keyed, op SetMembershipOperator, values []any) *BinarySetMembershipExpression {
	vs := make([]any, len(values))
	copy(vs, values)
	return &BinarySetMembershipExpression{Key: key, Operator: op, Values: vs}
}

func Equal[V any](key storagemodels.Key[V], value V) Expression {
	return Compare(key, Equals, value)
}

func NotEqual[V any](key storagemodels.Key[V], value V) Expression {
	return Compare(key, NotEqualTo, value)
}

func Less[V any](key storagemodels.Key[V], value V) Expression {
	return Compare(key, LessThan, value)
}

func LessOrEqual[V any](key storagemodels.Key[V], value V) Expression {
	return Compare(key, LessThanOrEqualTo, value)
}

func Greater[V any](key storagemodels.Key[V], value V) Expression {
	return Compare(key, GreaterThan, value)
}

func GreaterOrEqual[V any](key storagemodels.Key[V], value V) Expression {
	return Compare(key, GreaterThanOrEqualTo, value)
}

// InSet matches records whose key value is one of values, in the given order.
func InSet[V any](key storagemodels.Key[V], values ...V) Expression {
	return Member(key, In, toAny(values))
}

// NotInSet matches records whose key value is none of values.
func NotInSet[V any](key storagemodels.Key[V], values ...V) Expression {
	return Member(key, NotIn, toAny(values))
}

func AndOf(left, right Expression) Expression {
	return &BinaryLogicalExpression{Left: left, Operator: And, Right: right}
}

func OrOf(left, right Expression) Expression {
	return &BinaryLogicalExpression{Left: left, Operator: Or, Right: right}
}

// NotOf negates an expression. Negating an equality comparison is accepted
// here but rejected when the expression is translated.
func NotOf(operand Expression) Expression {
	return &UnaryLogicalExpression{Operator: Not, Operand: operand}
}

func toAny[V any](values []V) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
