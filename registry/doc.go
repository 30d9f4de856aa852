/*
Package registry holds the tables StatStore builds from record types and
category definitions.

Field descriptors:
Persistent fields are marked with the persist struct tag. The descriptor of a
type is built on first use and cached by reflect.Type:

	type CPUStat struct {
	    AgentID string  `persist:"agentId"`
	    Usage   float64 `persist:"usage"`
	    scratch int     // ignored
	}

	desc, err := registry.DescribeType[CPUStat]()
	f, ok := desc.Field("usage")

A tag on an unexported field, a duplicate name or the reserved _id name is a
ConversionError.

Category registry:
Each storage engine records the categories it registers in its own Categories
table, so a name conflict only exists within one engine:

	cats := registry.NewCategories()
	err := cats.Register(cpuStats)
	cat, err := cats.Lookup("cpu-stats")

Both registries are thread-safe.
*/
package registry
