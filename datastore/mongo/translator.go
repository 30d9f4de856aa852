/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"fmt"

	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/query"
	"go.mongodb.org/mongo-driver/bson"
)

var comparisonOperators = map[query.ComparisonOperator]string{
	query.NotEqualTo:           "$ne",
	query.LessThan:             "$lt",
	query.LessThanOrEqualTo:    "$lte",
	query.GreaterThan:          "$gt",
	query.GreaterThanOrEqualTo: "$gte",
}

var setOperators = map[query.SetMembershipOperator]string{
	query.In:    "$in",
	query.NotIn: "$nin",
}

var logicalOperators = map[query.LogicalOperator]string{
	query.And: "$and",
	query.Or:  "$or",
}

// Translate converts an expression tree into a query document.
//
// NOT rewrites only the top level of its translated operand: every value V
// becomes {$not: V}. Negating an equality comparison is rejected. A nil
// expression or an operator outside the tables is a ValidationError.
func Translate(expr query.Expression) (bson.D, error) {
	switch e := expr.(type) {
	case *query.BinaryComparisonExpression:
		return translateComparison(e)
	case *query.BinarySetMembershipExpression:
		return translateSetMembership(e)
	case *query.BinaryLogicalExpression:
		return translateLogical(e)
	case *query.UnaryLogicalExpression:
		return translateNot(e)
	case nil:
		return nil, errors.NewValidationError("expression", "nil expression")
	default:
		// The expression set is sealed; reaching this is a programming error.
		panic(fmt.Sprintf("unknown expression type %T", expr))
	}
}

func translateComparison(e *query.BinaryComparisonExpression) (bson.D, error) {
	if e.Key == nil {
		return nil, errors.NewValidationError("expression", "comparison without key")
	}
	if e.Operator == query.Equals {
		return bson.D{{Key: e.Key.Name(), Value: e.Value}}, nil
	}
	op, ok := comparisonOperators[e.Operator]
	if !ok {
		return nil, errors.NewValidationError("expression", fmt.Sprintf("unsupported comparison operator %s", e.Operator))
	}
	return bson.D{{Key: e.Key.Name(), Value: bson.D{{Key: op, Value: e.Value}}}}, nil
}

func translateSetMembership(e *query.BinarySetMembershipExpression) (bson.D, error) {
	if e.Key == nil {
		return nil, errors.NewValidationError("expression", "set membership without key")
	}
	op, ok := setOperators[e.Operator]
	if !ok {
		return nil, errors.NewValidationError("expression", fmt.Sprintf("unsupported set operator %s", e.Operator))
	}
	values := make(bson.A, len(e.Values))
	copy(values, e.Values)
	return bson.D{{Key: e.Key.Name(), Value: bson.D{{Key: op, Value: values}}}}, nil
}

func translateLogical(e *query.BinaryLogicalExpression) (bson.D, error) {
	op, ok := logicalOperators[e.Operator]
	if !ok {
		return nil, errors.NewValidationError("expression", fmt.Sprintf("unsupported logical operator %s", e.Operator))
	}
	left, err := Translate(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := Translate(e.Right)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: op, Value: bson.A{left, right}}}, nil
}

func translateNot(e *query.UnaryLogicalExpression) (bson.D, error) {
	if cmp, ok := e.Operand.(*query.BinaryComparisonExpression); ok && cmp.Operator == query.Equals {
		return nil, errors.NewValidationError("expression", "cannot negate an equality comparison, use NOT_EQUAL_TO")
	}
	inner, err := Translate(e.Operand)
	if err != nil {
		return nil, err
	}
	out := make(bson.D, len(inner))
	for i, el := range inner {
		out[i] = bson.E{Key: el.Key, Value: bson.D{{Key: "$not", Value: el.Value}}}
	}
	return out, nil
}
