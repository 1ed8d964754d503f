package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeyType is the table model that decides which key clause applies.
type KeyType string

const (
	KeyPrimary   KeyType = "PRIMARY KEY"
	KeyDuplicate KeyType = "DUPLICATE KEY"
	KeyAggregate KeyType = "AGGREGATE KEY"
	KeyUnique    KeyType = "UNIQUE KEY"
)

// tableModels maps information_schema.tables_config.TABLE_MODEL onto key types.
var tableModels = map[string]KeyType{
	"DUP_KEYS": KeyDuplicate,
	"AGG_KEYS": KeyAggregate,
	"PRI_KEYS": KeyPrimary,
	"UNQ_KEYS": KeyUnique,
}

// KeyTypeFromModel converts a TABLE_MODEL value (e.g. "AGG_KEYS") into a KeyType.
func KeyTypeFromModel(model string) (KeyType, bool) {
	kt, ok := tableModels[strings.ToUpper(strings.TrimSpace(model))]
	return kt, ok
}

// ParseKeyType accepts "PRIMARY KEY", "primary_key" or "primary" style spellings.
func ParseKeyType(s string) (KeyType, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	if !strings.HasSuffix(s, " KEY") {
		s += " KEY"
	}
	switch KeyType(s) {
	case KeyPrimary, KeyDuplicate, KeyAggregate, KeyUnique:
		return KeyType(s), true
	}
	return "", false
}

// KeySpec is the KEY clause of a table, e.g. PRIMARY KEY(id, dt).
type KeySpec struct {
	Type    KeyType  `json:"type"`
	Columns []string `json:"columns,omitempty"`
}

func (k *KeySpec) String() string {
	if k == nil {
		return ""
	}
	if len(k.Columns) == 0 {
		return string(k.Type)
	}
	return fmt.Sprintf("%s(%s)", k.Type, strings.Join(k.Columns, ", "))
}

// PartitionType classifies a PARTITION BY clause.
type PartitionType string

const (
	PartitionRange      PartitionType = "RANGE"
	PartitionList       PartitionType = "LIST"
	PartitionExpression PartitionType = "EXPRESSION"
)

// PartitionSpec is a parsed PARTITION BY clause. Method never contains the
// pre-created partition definitions.
type PartitionSpec struct {
	Type       PartitionType `json:"type"`
	Method     string        `json:"method"`
	PreCreated string        `json:"preCreatedPartitions,omitempty"`
}

// String renders the full clause body: method followed by pre-created partitions.
func (p *PartitionSpec) String() string {
	if p == nil {
		return ""
	}
	if p.PreCreated == "" {
		return p.Method
	}
	return p.Method + " " + p.PreCreated
}

// DistributionType is the bucketing scheme of a table.
type DistributionType string

const (
	DistributionHash   DistributionType = "HASH"
	DistributionRandom DistributionType = "RANDOM"
)

// DistributionSpec is a DISTRIBUTED BY clause. Either Type+Columns or Method
// is authoritative; MethodText derives the method from Type+Columns when Method
// is empty.
type DistributionSpec struct {
	Type    DistributionType `json:"type,omitempty"`
	Columns []string         `json:"columns,omitempty"`
	Method  string           `json:"method,omitempty"`
	Buckets *int             `json:"buckets,omitempty"`
}

// NewDistribution builds a spec from structured fields and fixes its method text.
func NewDistribution(typ DistributionType, columns []string, buckets *int) *DistributionSpec {
	d := &DistributionSpec{Type: typ, Columns: columns, Buckets: buckets}
	d.Method = d.MethodText()
	return d
}

// MethodText returns the method without the bucket count, e.g. "HASH(id, dt)" or "RANDOM".
func (d *DistributionSpec) MethodText() string {
	if d == nil {
		return ""
	}
	if d.Method != "" {
		return d.Method
	}
	if d.Type == "" {
		return ""
	}
	if len(d.Columns) == 0 {
		return string(d.Type)
	}
	return fmt.Sprintf("%s(%s)", d.Type, strings.Join(d.Columns, ", "))
}

// BucketCount returns the bucket count, or zero when it is not set.
func (d *DistributionSpec) BucketCount() int {
	if d == nil || d.Buckets == nil {
		return 0
	}
	return *d.Buckets
}

// String renders the clause body: method plus " BUCKETS n" when n is non-zero.
func (d *DistributionSpec) String() string {
	if d == nil {
		return ""
	}
	m := d.MethodText()
	if n := d.BucketCount(); n != 0 {
		return m + " BUCKETS " + strconv.Itoa(n)
	}
	return m
}

// TableOptions holds the StarRocks table clauses. Nil or empty fields mean the
// clause is not set and the server default applies.
type TableOptions struct {
	Engine       string            `json:"engine,omitempty"`
	Key          *KeySpec          `json:"key,omitempty"`
	Partition    *PartitionSpec    `json:"partition,omitempty"`
	Distribution *DistributionSpec `json:"distribution,omitempty"`
	OrderBy      string            `json:"orderBy,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// IsAggregate reports whether the table uses the AGGREGATE KEY model.
func (o TableOptions) IsAggregate() bool {
	return o.Key != nil && o.Key.Type == KeyAggregate
}

// SortedPropertyKeys returns property keys in a stable order.
func (o TableOptions) SortedPropertyKeys() []string {
	keys := make([]string, 0, len(o.Properties))
	for k := range o.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o TableOptions) String() string {
	var parts []string
	if o.Engine != "" {
		parts = append(parts, "ENGINE="+o.Engine)
	}
	if o.Key != nil {
		parts = append(parts, o.Key.String())
	}
	if o.Partition != nil {
		parts = append(parts, "PARTITION BY "+o.Partition.String())
	}
	if o.Distribution != nil {
		parts = append(parts, "DISTRIBUTED BY "+o.Distribution.String())
	}
	if o.OrderBy != "" {
		parts = append(parts, "ORDER BY ("+o.OrderBy+")")
	}
	if len(o.Properties) > 0 {
		props := make([]string, 0, len(o.Properties))
		for _, k := range o.SortedPropertyKeys() {
			props = append(props, fmt.Sprintf("%q=%q", k, o.Properties[k]))
		}
		parts = append(parts, "PROPERTIES("+strings.Join(props, ", ")+")")
	}
	return strings.Join(parts, " ")
}
