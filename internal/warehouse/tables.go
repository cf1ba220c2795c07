package warehouse

import (
	"fmt"
	"regexp"
	"time"

	"github.com/telcodash/telcodash/internal/shared"
)

// Fact and target tables are maintained by the upstream ETL. Some fact
// tables are physically partitioned per month, one table per yyyyMM
// suffix; the reader must compute the physical name before querying.

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// TableForMonth resolves the physical fact table for the month of t.
// Non-partitioned families use the base name as-is.
func TableForMonth(base string, partitioned bool, t time.Time) (string, error) {
	if !identPattern.MatchString(base) {
		return "", fmt.Errorf("warehouse: invalid table name %q", base)
	}
	if !partitioned {
		return base, nil
	}
	return base + "_" + shared.PeriodKey(t), nil
}

// ValidTable reports whether name is a safe SQL identifier. Table names
// come from the static family registry, never from callers, but the
// reader still refuses anything that does not look like an identifier
// since names are interpolated into query text.
func ValidTable(name string) bool {
	return identPattern.MatchString(name)
}
