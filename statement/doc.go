/*
Package statement parses prepared-statement descriptors and executes them
with typed parameters.

A descriptor names the statement type, the category and optional clauses:

	QUERY cpu-stats WHERE 'agentId' = ?s AND 'timeStamp' >= ?l SORT 'timeStamp' DSC LIMIT 1
	QUERY-COUNT cpu-stats WHERE 'agentId' = ?s
	QUERY-DISTINCT(agentId) cpu-stats
	ADD cpu-stats SET 'agentId' = ?s , 'timeStamp' = ?l , 'perProcessorUsage' = ?d[
	UPDATE cpu-stats SET 'timeStamp' = ?l WHERE 'agentId' = ?s
	REMOVE cpu-stats WHERE 'timeStamp' < 1000L

Keys are quoted. Literals are 'strings', ints, longs with an L suffix and
true or false. Free parameters are ?s ?i ?l ?b ?d ?p; a trailing [ makes a
list parameter. List and pojo parameters are only allowed in SET. In WHERE,
NOT binds tighter than AND, which binds tighter than OR.

Descriptors are checked against their category when parsed: ADD and
REPLACE must set every key of the category, UPDATE must set known keys,
REMOVE and queries take no SET, and only queries take SORT or LIMIT.

	f, _ := statement.NewFactory(statement.DefaultCacheSize)
	ps, err := statement.Prepare(f, stmts, statement.NewDescriptor(cpuStats, latestDesc))
	if err != nil {
	    return err
	}
	ps.SetString(0, agentID)
	ps.SetLong(1, since)
	cursor, err := ps.ExecuteQuery(ctx)
*/
package statement
