/*
Package datastore defines the contracts between StatStore's storage engine,
its callers and the backing database driver.

Statements are created per category by a StatementFactory[T]:

	q := factory.CreateQuery()
	q.Where(query.GreaterOrEqual(storagemodels.TimestampKey, since))
	q.Sort(storagemodels.TimestampKey, storagemodels.Descending)
	q.Limit(10)

	cursor, err := q.Execute(ctx)
	if err != nil {
	    return err
	}
	defer cursor.Close(ctx)
	for {
	    more, err := cursor.HasNext(ctx)
	    if err != nil || !more {
	        break
	    }
	    rec, err := cursor.Next(ctx)
	    ...
	}

Write statements report the number of records they touched:

	add := factory.CreateAdd()
	add.SetPojo(&stat)
	n, err := add.Apply(ctx)

Stream drains a cursor into a channel:

	for r := range datastore.Stream(ctx, cursor, storagemodels.WithBatchSize(500)) {
	    if r.Error != nil {
	        ...
	    }
	}

Client, Database and Collection are the driver seam. datastore/mongo adapts the
MongoDB driver to them and datastore/mock implements them in memory.
*/
package datastore
