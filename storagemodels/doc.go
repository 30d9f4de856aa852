/*
Package storagemodels defines the schema vocabulary shared by every layer of
StatStore: keys, categories and the records the storage engine writes for its
own bookkeeping.

Keys and categories:

	var (
	    HostKey  = storagemodels.NewIndexedKey[string]("host")
	    UsageKey = storagemodels.NewKey[float64]("usage")

	    CPUStats = storagemodels.MustCategory[CPUStat]("cpu-stats",
	        storagemodels.AgentIDKey, HostKey, storagemodels.TimestampKey, UsageKey)
	)

Indexed keys form the category's compound index, in declaration order.

Aggregate views share the source category's collection:

	counts := storagemodels.AdaptCategory[storagemodels.AggregateCount](CPUStats)

Records are plain structs whose persistent fields carry a persist tag:

	type CPUStat struct {
	    AgentID   string  `persist:"agentId"`
	    Host      string  `persist:"host"`
	    Timestamp int64   `persist:"timeStamp"`
	    Usage     float64 `persist:"usage"`
	}

StreamOptions configures draining a cursor into a channel:

	opts := []storagemodels.StreamOption{
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithBatchSize(500),
	    storagemodels.WithProgressHandler(1000, progressFunc),
	}
*/
package storagemodels
