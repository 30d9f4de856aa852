/*
Package query provides the where-clause expression model used by statements.

Expressions are immutable trees built from typed keys and literals:

	where := query.AndOf(
	    query.Equal(storagemodels.AgentIDKey, "system"),
	    query.GreaterOrEqual(storagemodels.TimestampKey, int64(1234)),
	)

The node types form a closed set, so backends translate them with an
exhaustive type switch.
*/
package query
