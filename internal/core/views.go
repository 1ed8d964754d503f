package core

import "strings"

// ViewSecurity is the SECURITY mode of a view.
type ViewSecurity string

const (
	SecurityNone    ViewSecurity = "NONE"
	SecurityInvoker ViewSecurity = "INVOKER"
)

// ViewColumn is an entry of the optional column list of a view.
type ViewColumn struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
}

// View is a logical view.
type View struct {
	Schema     string       `json:"schema,omitempty"`
	Name       string       `json:"name"`
	Definition string       `json:"definition"`
	Comment    string       `json:"comment,omitempty"`
	Security   string       `json:"security,omitempty"`
	Columns    []ViewColumn `json:"columns,omitempty"`
}

// QualifiedName returns schema.name, or just name when the schema is empty.
func (v *View) QualifiedName() string {
	return qualify(v.Schema, v.Name)
}

// RefreshMoment controls whether an async MV refreshes right after creation.
type RefreshMoment string

const (
	RefreshImmediate RefreshMoment = "IMMEDIATE"
	RefreshDeferred  RefreshMoment = "DEFERRED"
)

// MaterializedView is an asynchronous materialized view.
type MaterializedView struct {
	Schema       string            `json:"schema,omitempty"`
	Name         string            `json:"name"`
	Definition   string            `json:"definition"`
	Comment      string            `json:"comment,omitempty"`
	Security     string            `json:"security,omitempty"`
	Partition    *PartitionSpec    `json:"partition,omitempty"`
	Distribution *DistributionSpec `json:"distribution,omitempty"`
	OrderBy      string            `json:"orderBy,omitempty"`
	// RefreshMoment is IMMEDIATE or DEFERRED, empty when not declared.
	RefreshMoment RefreshMoment `json:"refreshMoment,omitempty"`
	// RefreshType is the refresh scheme, e.g. "ASYNC EVERY(INTERVAL 1 DAY)" or "MANUAL".
	RefreshType string            `json:"refreshType,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// QualifiedName returns schema.name, or just name when the schema is empty.
func (mv *MaterializedView) QualifiedName() string {
	return qualify(mv.Schema, mv.Name)
}

// Refresh renders the REFRESH clause body, e.g. "DEFERRED ASYNC EVERY(INTERVAL 1 DAY)".
func (mv *MaterializedView) Refresh() string {
	parts := make([]string, 0, 2)
	if mv.RefreshMoment != "" {
		parts = append(parts, string(mv.RefreshMoment))
	}
	if mv.RefreshType != "" {
		parts = append(parts, mv.RefreshType)
	}
	return strings.Join(parts, " ")
}
