package starrocks

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"srschema/internal/core"
)

// RunMode reports whether the cluster runs shared_nothing or shared_data.
// Detection failures fall back to shared_nothing with a warning.
func (i *introspecter) RunMode(ctx context.Context) core.RunMode {
	if i.opts.RunMode != "" {
		return i.opts.RunMode
	}
	values, err := i.queryColumn(ctx, "ADMIN SHOW FRONTEND CONFIG LIKE 'run_mode'", 2)
	if err != nil || len(values) == 0 {
		i.log.Warn("could not detect run mode, assuming shared_nothing", zap.Error(err))
		return core.RunModeSharedNothing
	}
	return core.ParseRunMode(values[0])
}

// Version returns the server version without the commit suffix, e.g. "3.3.5".
func (i *introspecter) Version(ctx context.Context) (string, error) {
	var version string
	if err := i.db.QueryRowContext(ctx, "SELECT CURRENT_VERSION()").Scan(&version); err != nil {
		return "", fmt.Errorf("server version: %w", err)
	}
	if idx := strings.IndexAny(version, " -"); idx > 0 {
		version = version[:idx]
	}
	return version, nil
}
