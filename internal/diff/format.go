package diff

import (
	"fmt"
	"os"
	"strings"
)

// String returns a human readable report of all differences.
func (d *SchemaDiff) String() string {
	if d.IsEmpty() {
		if len(d.Warnings) == 0 {
			return "No differences detected."
		}
		var sb strings.Builder
		sb.WriteString("No differences detected.\n")
		writeWarnings(&sb, "\nWarnings:\n", "  ", d.Warnings)
		return sb.String()
	}

	var sb strings.Builder
	sb.WriteString("Schema differences:\n")

	writeWarnings(&sb, "\nWarnings:\n", "  ", d.Warnings)

	writeNames(&sb, "\nAdded tables:\n", len(d.AddedTables), func(i int) string { return d.AddedTables[i].Name })
	writeNames(&sb, "\nRemoved tables:\n", len(d.RemovedTables), func(i int) string { return d.RemovedTables[i].Name })
	if len(d.ModifiedTables) > 0 {
		sb.WriteString("\nModified tables:\n")
		for _, mt := range d.ModifiedTables {
			d.writeTableDiff(&sb, mt)
		}
	}

	writeNames(&sb, "\nAdded views:\n", len(d.AddedViews), func(i int) string { return d.AddedViews[i].Name })
	writeNames(&sb, "\nRemoved views:\n", len(d.RemovedViews), func(i int) string { return d.RemovedViews[i].Name })
	if len(d.ModifiedViews) > 0 {
		sb.WriteString("\nModified views:\n")
		for _, vd := range d.ModifiedViews {
			sb.WriteString(fmt.Sprintf("\n  - %s: definition changed\n", vd.Name))
			writeWarnings(&sb, "    Warnings:\n", "      ", vd.Warnings)
		}
	}

	writeNames(&sb, "\nAdded materialized views:\n", len(d.AddedMaterializedViews), func(i int) string { return d.AddedMaterializedViews[i].Name })
	writeNames(&sb, "\nRemoved materialized views:\n", len(d.RemovedMaterializedViews), func(i int) string { return d.RemovedMaterializedViews[i].Name })
	if len(d.ModifiedMaterializedViews) > 0 {
		sb.WriteString("\nModified materialized views:\n")
		for _, md := range d.ModifiedMaterializedViews {
			mode := "alter"
			if md.Recreate {
				mode = "recreate"
			}
			sb.WriteString(fmt.Sprintf("\n  - %s (%s): %s\n", md.Name, mode, strings.Join(md.Changed, ", ")))
			if len(md.Properties) > 0 {
				sb.WriteString(fmt.Sprintf("    Properties: %s -> %s\n", orNotSet(formatProperties(md.ReverseProperties)), formatProperties(md.Properties)))
			}
			writeWarnings(&sb, "    Warnings:\n", "      ", md.Warnings)
		}
	}

	return sb.String()
}

func writeWarnings(sb *strings.Builder, header, indent string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	sb.WriteString(header)
	for _, w := range warnings {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s- %s\n", indent, w))
	}
}

func writeNames(sb *strings.Builder, header string, n int, name func(int) string) {
	if n == 0 {
		return
	}
	sb.WriteString(header)
	for i := 0; i < n; i++ {
		sb.WriteString(fmt.Sprintf("  - %s\n", name(i)))
	}
}

func (d *SchemaDiff) writeTableDiff(sb *strings.Builder, mt *TableDiff) {
	sb.WriteString(fmt.Sprintf("\n  - %s\n", mt.Name))

	writeWarnings(sb, "    Warnings:\n", "      ", mt.Warnings)

	if len(mt.ModifiedOptions) > 0 {
		sb.WriteString("    Options changed:\n")
		for _, mo := range mt.ModifiedOptions {
			sb.WriteString(fmt.Sprintf("      - %s: %q -> %q\n", mo.Name, mo.Old, mo.New))
		}
	}

	if len(mt.AddedColumns) > 0 {
		sb.WriteString("    Added columns:\n")
		for _, ac := range mt.AddedColumns {
			sb.WriteString(fmt.Sprintf("      - %s: %s\n", ac.Name, ac.TypeRaw))
		}
	}

	if len(mt.RemovedColumns) > 0 {
		sb.WriteString("    Removed columns:\n")
		for _, rc := range mt.RemovedColumns {
			sb.WriteString(fmt.Sprintf("      - %s: %s\n", rc.Name, rc.TypeRaw))
		}
	}

	if len(mt.ModifiedColumns) > 0 {
		sb.WriteString("    Modified columns:\n")
		for _, mc := range mt.ModifiedColumns {
			sb.WriteString(fmt.Sprintf("      - %s:\n", mc.Name))
			for _, fc := range mc.Changes {
				sb.WriteString(fmt.Sprintf("        - %s: %q -> %q\n", fc.Field, fc.Old, fc.New))
			}
		}
	}

	if len(mt.AddedIndexes) > 0 {
		sb.WriteString("    Added indexes:\n")
		for _, idx := range mt.AddedIndexes {
			sb.WriteString(fmt.Sprintf("      - %s %s\n", idx.Name, formatNameList(idx.Columns)))
		}
	}

	if len(mt.RemovedIndexes) > 0 {
		sb.WriteString("    Removed indexes:\n")
		for _, idx := range mt.RemovedIndexes {
			sb.WriteString(fmt.Sprintf("      - %s %s\n", idx.Name, formatNameList(idx.Columns)))
		}
	}

	if len(mt.ModifiedIndexes) > 0 {
		sb.WriteString("    Modified indexes:\n")
		for _, mi := range mt.ModifiedIndexes {
			name := mi.Name
			if name == "" {
				name = "(unnamed)"
			}
			sb.WriteString(fmt.Sprintf("      - %s:\n", name))
			for _, fc := range mi.Changes {
				sb.WriteString(fmt.Sprintf("        - %s: %q -> %q\n", fc.Field, fc.Old, fc.New))
			}
		}
	}
}

// SaveToFile function save a SchemaDiff struct to a file of a given path.
// 0644 permissions means read/write for owner, read for group and others.
func (d *SchemaDiff) SaveToFile(path string) error {
	return os.WriteFile(path, []byte(d.String()), 0644)
}
