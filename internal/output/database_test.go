package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"srschema/internal/core"
)

func sampleDatabase() *core.Database {
	return &core.Database{
		Name:    "shop",
		Version: "3.3.5",
		RunMode: core.RunModeSharedData,
		Tables: []*core.Table{{
			Schema: "shop",
			Name:   "orders",
			Columns: []*core.Column{
				{Name: "id", TypeRaw: "BIGINT"},
				{Name: "status", TypeRaw: "VARCHAR(32)", Nullable: true},
			},
		}},
		Views: []*core.View{{
			Schema:     "shop",
			Name:       "recent_orders",
			Definition: "SELECT id FROM orders",
			Security:   "INVOKER",
		}},
		MaterializedViews: []*core.MaterializedView{{
			Schema:        "shop",
			Name:          "daily",
			Definition:    "SELECT id FROM orders",
			RefreshMoment: core.RefreshDeferred,
			RefreshType:   "ASYNC",
			Properties:    map[string]string{"partition_ttl": "30 DAY", "b": "1"},
		}},
	}
}

func TestFormatDatabaseText(t *testing.T) {
	out, err := FormatDatabase(sampleDatabase(), "")
	require.NoError(t, err)

	assert.Contains(t, out, "Database: shop\nVersion: 3.3.5\nRun mode: shared_data\n")
	assert.Contains(t, out, "Tables: 1, views: 1, materialized views: 1\n")
	assert.Contains(t, out, "Table: shop.orders\n")
	assert.Contains(t, out, "    - id BIGINT NOT NULL\n")
	assert.Contains(t, out, "View: shop.recent_orders\n  Security: INVOKER\n")
	assert.Contains(t, out, "  Refresh: DEFERRED ASYNC\n")
	assert.Contains(t, out, "  Property: b = 1\n  Property: partition_ttl = 30 DAY\n")
}

func TestFormatDatabaseJSON(t *testing.T) {
	out, err := FormatDatabase(sampleDatabase(), "JSON")
	require.NoError(t, err)

	var got struct {
		Format   string        `json:"format"`
		Database core.Database `json:"database"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "json", got.Format)
	assert.Equal(t, "shop", got.Database.Name)
	require.Len(t, got.Database.Tables, 1)
	assert.Equal(t, "orders", got.Database.Tables[0].Name)
}

func TestFormatDatabaseYAML(t *testing.T) {
	out, err := FormatDatabase(sampleDatabase(), "yaml")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "yaml", got["format"])
	db, ok := got["database"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "shared_data", db["runMode"])
}

func TestFormatDatabaseErrors(t *testing.T) {
	_, err := FormatDatabase(sampleDatabase(), "script")
	assert.EqualError(t, err, "unsupported format: script; use 'json', 'yaml' or 'summary'")

	out, err := FormatDatabase(nil, "summary")
	require.NoError(t, err)
	assert.Equal(t, "No database.\n", out)
}
