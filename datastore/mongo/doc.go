/*
Package mongo is StatStore's MongoDB storage engine.

A Connection owns the driver client and moves through DISCONNECTED,
CONNECTING, CONNECTED and FAILED_TO_CONNECT. Listeners hear every terminal
transition:

	conn := mongo.NewConnection(mongo.SettingsFromConfig(cfg),
	    mongo.WithConnectionLogger(log),
	    mongo.WithCredentials(config.EnvCredentials{}))
	conn.AddListener(func(s mongo.ConnectionStatus) { ... })
	if err := conn.Connect(ctx); err != nil {
	    return err
	}

A Storage registers categories and runs statements over the connection.
RegisterCategory waits until the connection's first attempt has resolved,
creates the collection and its compound index when missing, and records a
SchemaInfo row for the category:

	store := mongo.NewStorage(conn, mongo.WithLogger(log))
	if err := store.RegisterCategory(ctx, cpuStats); err != nil {
	    return err
	}
	stmts := mongo.NewStatementFactory(store, cpuStats)

Expressions are translated to query documents by Translate. Records are
converted to documents by ToDocument and back by FromDocument; both use the
persist struct tags and reject unknown fields.

Aggregate views (storagemodels.AdaptCategory) run COUNT and DISTINCT against
the collection of their source category.
*/
package mongo
