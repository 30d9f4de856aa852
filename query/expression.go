/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strings"

	"github.com/suparena/statstore/storagemodels"
)

// Expression is an immutable node of a where-clause tree. The set of
// implementations is closed: BinaryComparisonExpression,
// BinarySetMembershipExpression, BinaryLogicalExpression and
// UnaryLogicalExpression.
type Expression interface {
	fmt.Stringer
	isExpression()
}

// ComparisonOperator relates a key to a single literal.
type ComparisonOperator int

const (
	Equals ComparisonOperator = iota
	NotEqualTo
	LessThan
	LessThanOrEqualTo
	GreaterThan
	GreaterThanOrEqualTo
)

func (o ComparisonOperator) String() string {
	switch o {
	case Equals:
		return "="
	case NotEqualTo:
		return "!="
	case LessThan:
		return "<"
	case LessThanOrEqualTo:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqualTo:
		return ">="
	default:
		return fmt.Sprintf("ComparisonOperator(%d)", int(o))
	}
}

// SetMembershipOperator relates a key to a list of literals.
type SetMembershipOperator int

const (
	In SetMembershipOperator = iota
	NotIn
)

func (o SetMembershipOperator) String() string {
	if o == NotIn {
		return "NOT IN"
	}
	return "IN"
}

// LogicalOperator combines two expressions.
type LogicalOperator int

const (
	And LogicalOperator = iota
	Or
)

func (o LogicalOperator) String() string {
	if o == Or {
		return "OR"
	}
	return "AND"
}

// UnaryLogicalOperator wraps a single expression. NOT is the only one.
type UnaryLogicalOperator int

const (
	Not UnaryLogicalOperator = iota
)

func (o UnaryLogicalOperator) String() string {
	return "NOT"
}

// BinaryComparisonExpression is "key OP literal".
type BinaryComparisonExpression struct {
	Key      storagemodels.Keyed
	Operator ComparisonOperator
	Value    any
}

func (*BinaryComparisonExpression) isExpression() {}

func (e *BinaryComparisonExpression) String() string {
	return fmt.Sprintf("%s %s %s", e.Key.Name(), e.Operator, formatLiteral(e.Value))
}

// BinarySetMembershipExpression is "key IN [literals]" or "key NOT IN [literals]".
type BinarySetMembershipExpression struct {
	Key      storagemodels.Keyed
	Operator SetMembershipOperator
	Values   []any
}

func (*BinarySetMembershipExpression) isExpression() {}

func (e *BinarySetMembershipExpression) String() string {
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		parts[i] = formatLiteral(v)
	}
	return fmt.Sprintf("%s %s [%s]", e.Key.Name(), e.Operator, strings.Join(parts, ", "))
}

// BinaryLogicalExpression is "left AND right" or "left OR right".
type BinaryLogicalExpression struct {
	Left     Expression
	Operator LogicalOperator
	Right    Expression
}

func (*BinaryLogicalExpression) isExpression() {}

func (e *BinaryLogicalExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Operator, e.Right)
}

// UnaryLogicalExpression is "NOT operand".
type UnaryLogicalExpression struct {
	Operator UnaryLogicalOperator
	Operand  Expression
}

func (*UnaryLogicalExpression) isExpression() {}

func (e *UnaryLogicalExpression) String() string {
	return fmt.Sprintf("%s %s", e.Operator, e.Operand)
}

func formatLiteral(v any) string {
	if s, ok := v.(string); ok {
		return "'" + s + "'"
	}
	return fmt.Sprint(v)
}
