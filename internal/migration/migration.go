// Package migration holds a rendered schema migration: the forward and
// rollback statements together with the notes produced while rendering them.
package migration

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"srschema/internal/core"
)

// Migration is an ordered list of steps. SQL steps carry a forward statement
// and its rollback; note, breaking and unresolved steps carry a message.
type Migration struct {
	Operations []core.Operation
}

// Plan returns every step in order.
func (m *Migration) Plan() []core.Operation {
	return m.Operations
}

// SQLStatements returns the forward statements in execution order.
func (m *Migration) SQLStatements() []string {
	return m.collect(core.OperationSQL, func(op *core.Operation) string { return op.SQL })
}

// RollbackStatements returns the rollback statements in forward order. They
// must be run last to first to revert the migration.
func (m *Migration) RollbackStatements() []string {
	return m.collect(core.OperationSQL, func(op *core.Operation) string { return op.RollbackSQL })
}

// BreakingNotes lists the steps that remove data for good.
func (m *Migration) BreakingNotes() []string {
	return m.collect(core.OperationBreaking, message)
}

// UnresolvedNotes lists what could not be rendered safely, such as missing rollbacks.
func (m *Migration) UnresolvedNotes() []string {
	return m.collect(core.OperationUnresolved, message)
}

// InfoNotes lists comparator warnings and hints about running the migration.
func (m *Migration) InfoNotes() []string {
	return m.collect(core.OperationNote, message)
}

// AddOperation appends a rendered step. SQL steps without a statement in
// either direction are dropped.
func (m *Migration) AddOperation(op core.Operation) {
	op.SQL = strings.TrimSpace(op.SQL)
	op.RollbackSQL = strings.TrimSpace(op.RollbackSQL)
	if op.Kind == "" {
		op.Kind = core.OperationSQL
	}
	if op.Kind == core.OperationSQL && op.SQL == "" && op.RollbackSQL == "" {
		return
	}
	m.Operations = append(m.Operations, op)
}

func (m *Migration) AddNote(msg string) {
	m.addMessage(core.OperationNote, msg)
}

func (m *Migration) AddBreaking(msg string) {
	m.addMessage(core.OperationBreaking, msg)
}

func (m *Migration) AddUnresolved(msg string) {
	m.addMessage(core.OperationUnresolved, msg)
}

func (m *Migration) addMessage(kind core.OperationKind, msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	op := core.Operation{Kind: kind}
	switch kind {
	case core.OperationUnresolved:
		op.UnresolvedReason = msg
	case core.OperationBreaking:
		op.SQL, op.Risk = msg, core.RiskBreaking
	default:
		op.SQL, op.Risk = msg, core.RiskInfo
	}
	m.Operations = append(m.Operations, op)
}

// Fingerprint identifies the forward statements of the migration. Two
// migrations with the same statements in the same order share a fingerprint.
func (m *Migration) Fingerprint() string {
	h := xxh3.New()
	for _, stmt := range m.SQLStatements() {
		_, _ = h.WriteString(stmt)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// HasAsync reports whether any forward statement runs as a background job.
func (m *Migration) HasAsync() bool {
	for i := range m.Operations {
		op := &m.Operations[i]
		if op.Kind == core.OperationSQL && op.Async && op.SQL != "" {
			return true
		}
	}
	return false
}

// Dedupe trims every step, drops empty SQL steps and repeated messages, and
// clears a rollback statement already used by an earlier step. Forward
// statements are never dropped.
func (m *Migration) Dedupe() {
	if len(m.Operations) == 0 {
		return
	}

	type seenKey struct {
		kind core.OperationKind
		text string
	}
	seen := make(map[seenKey]struct{}, len(m.Operations))
	firstSeen := func(kind core.OperationKind, text string) bool {
		k := seenKey{kind, text}
		if _, ok := seen[k]; ok {
			return false
		}
		seen[k] = struct{}{}
		return true
	}

	out := make([]core.Operation, 0, len(m.Operations))
	for _, op := range m.Operations {
		op.SQL = strings.TrimSpace(op.SQL)
		op.RollbackSQL = strings.TrimSpace(op.RollbackSQL)
		op.UnresolvedReason = strings.TrimSpace(op.UnresolvedReason)

		switch op.Kind {
		case core.OperationSQL:
			if op.SQL == "" && op.RollbackSQL == "" {
				continue
			}
			if op.RollbackSQL != "" && !firstSeen(op.Kind, op.RollbackSQL) {
				op.RollbackSQL = ""
			}
		case core.OperationNote, core.OperationBreaking, core.OperationUnresolved:
			text := message(&op)
			if text == "" || !firstSeen(op.Kind, text) {
				continue
			}
		}
		out = append(out, op)
	}
	m.Operations = out
}

func message(op *core.Operation) string {
	if op.Kind == core.OperationUnresolved {
		return op.UnresolvedReason
	}
	return op.SQL
}

func (m *Migration) collect(kind core.OperationKind, field func(*core.Operation) string) []string {
	out := make([]string, 0, len(m.Operations)/4+1)
	for i := range m.Operations {
		op := &m.Operations[i]
		if op.Kind != kind {
			continue
		}
		if v := strings.TrimSpace(field(op)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
