package core

import "strings"

// Server-side defaults applied when a clause is not declared.
const (
	DefaultEngine       = "OLAP"
	DefaultKey          = KeyDuplicate
	DefaultDistribution = DistributionRandom
	DefaultBuckets      = 0
)

var commonDefaultProperties = map[string]string{
	"compression":           "LZ4",
	"fast_schema_evolution": "true",
	"replicated_storage":    "true",
	"storage_format":        "DEFAULT",
	"bucket_size":           "4294967296",
}

// DefaultProperties returns the table properties the server sets implicitly
// for the given run mode. The returned map is a fresh copy.
func DefaultProperties(mode RunMode) map[string]string {
	props := make(map[string]string, len(commonDefaultProperties)+1)
	for k, v := range commonDefaultProperties {
		props[k] = v
	}
	if mode == RunModeSharedData {
		props["replication_num"] = "1"
	} else {
		props["replication_num"] = "3"
	}
	return props
}

// DefaultProperty returns the implicit value of a single property.
func DefaultProperty(mode RunMode, key string) (string, bool) {
	v, ok := DefaultProperties(mode)[strings.ToLower(key)]
	return v, ok
}

// NormalizeEngine treats an empty engine as OLAP and uppercases the rest.
func NormalizeEngine(engine string) string {
	engine = strings.TrimSpace(engine)
	if engine == "" {
		return DefaultEngine
	}
	return strings.ToUpper(engine)
}

// ViewDefaults fills the tolerated defaults of a reflected view: empty
// comment and an uppercased, possibly empty, security mode.
func ViewDefaults(v *View) *View {
	if v == nil {
		return nil
	}
	v.Security = strings.ToUpper(strings.TrimSpace(v.Security))
	return v
}
