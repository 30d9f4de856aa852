/*
Package statstore stores monitoring samples, such as CPU, memory and VM
statistics, in MongoDB and reads them back through typed statements.

DbService is the embedding surface. It owns the connection, the storage
that registers categories on it and the prepared statement factory:

	svc, err := statstore.NewDbService(cfg, statstore.WithLogger(log),
	    statstore.WithCredentials(config.EnvCredentials{}))
	if err != nil {
	    return err
	}
	defer svc.Close()

	// DAOs register their descriptors before Connect validates them.
	err = statstore.RegisterDescriptors(svc.Descriptors(),
	    statement.NewDescriptor(cpuStats, "QUERY cpu-stats WHERE 'agentId' = ?s SORT 'timeStamp' DSC LIMIT ?i"))

	if err := svc.Connect(ctx); err != nil {
	    return err
	}
	if err := svc.Storage().RegisterCategory(ctx, cpuStats); err != nil {
	    return err
	}

	stmts := mongo.NewStatementFactory(svc.Storage(), cpuStats)
	ps, err := statement.Prepare(svc.Statements(), stmts, desc)

DbService also implements setup.Lifecycle, so it can drive the one-time
credentials setup.

The lower layers live in their own packages: storagemodels for keys and
categories, query for the expression model, datastore/mongo for the
backing store, statement for descriptor parsing and binding.
*/
package statstore
