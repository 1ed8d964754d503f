package core

// OperationKind is used to identify what kind of step a migration contains.
type OperationKind string

const (
	OperationSQL        OperationKind = "SQL"
	OperationNote       OperationKind = "NOTE"
	OperationBreaking   OperationKind = "BREAKING"
	OperationUnresolved OperationKind = "UNRESOLVED"
)

// OperationRisk is used to identify the risk level of a step.
type OperationRisk string

const (
	RiskInfo     OperationRisk = "INFO"
	RiskWarning  OperationRisk = "WARNING"
	RiskBreaking OperationRisk = "BREAKING"
	RiskCritical OperationRisk = "CRITICAL"
)

// Operation is one rendered step of a migration: the forward SQL, the SQL
// that undoes it, and where it came from.
type Operation struct {
	Kind OperationKind `json:"kind" yaml:"kind"`

	SQL         string `json:"sql,omitempty" yaml:"sql,omitempty"`
	RollbackSQL string `json:"rollbackSql,omitempty" yaml:"rollbackSql,omitempty"`

	Risk OperationRisk `json:"risk,omitempty" yaml:"risk,omitempty"`
	// Async is set for statements StarRocks runs as a background schema change job.
	Async bool `json:"async,omitempty" yaml:"async,omitempty"`

	// Source names the synthesized operation that produced this step,
	// e.g. "alter_table_distribution", and Target the object it touches.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	UnresolvedReason string `json:"unresolvedReason,omitempty" yaml:"unresolvedReason,omitempty"`
}
