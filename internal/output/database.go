package output

import (
	"fmt"
	"sort"
	"strings"

	"srschema/internal/core"
)

type databasePayload struct {
	Format   string         `json:"format"`
	Database *core.Database `json:"database"`
}

// FormatDatabase renders a reflected database for the inspect command.
// Formats other than json and yaml fall back to a readable listing.
func FormatDatabase(db *core.Database, name string) (string, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case FormatJSON:
		return marshalJSON(databasePayload{Format: string(format), Database: db})
	case FormatYAML, "yml":
		return marshalYAML(databasePayload{Format: string(FormatYAML), Database: db})
	case "", FormatSQL, FormatSummary:
		return formatDatabaseText(db), nil
	default:
		return "", fmt.Errorf("unsupported format: %s; use 'json', 'yaml' or 'summary'", name)
	}
}

func formatDatabaseText(db *core.Database) string {
	if db == nil {
		return "No database.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Database: %s\n", db.Name)
	if db.Version != "" {
		fmt.Fprintf(&sb, "Version: %s\n", db.Version)
	}
	if db.RunMode != "" {
		fmt.Fprintf(&sb, "Run mode: %s\n", db.RunMode)
	}
	fmt.Fprintf(&sb, "Tables: %d, views: %d, materialized views: %d\n",
		len(db.Tables), len(db.Views), len(db.MaterializedViews))

	for _, t := range db.Tables {
		sb.WriteString("\n")
		sb.WriteString(t.String())
	}
	for _, v := range db.Views {
		fmt.Fprintf(&sb, "\nView: %s\n", v.QualifiedName())
		if v.Security != "" {
			fmt.Fprintf(&sb, "  Security: %s\n", v.Security)
		}
		fmt.Fprintf(&sb, "  Definition: %s\n", v.Definition)
	}
	for _, mv := range db.MaterializedViews {
		fmt.Fprintf(&sb, "\nMaterialized view: %s\n", mv.QualifiedName())
		if mv.RefreshType != "" {
			fmt.Fprintf(&sb, "  Refresh: %s\n", strings.TrimSpace(string(mv.RefreshMoment)+" "+mv.RefreshType))
		}
		if mv.Distribution != nil {
			fmt.Fprintf(&sb, "  Distribution: %s\n", mv.Distribution.String())
		}
		if len(mv.Properties) > 0 {
			keys := make([]string, 0, len(mv.Properties))
			for k := range mv.Properties {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, "  Property: %s = %s\n", k, mv.Properties[k])
			}
		}
		fmt.Fprintf(&sb, "  Definition: %s\n", mv.Definition)
	}
	return sb.String()
}
