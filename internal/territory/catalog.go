// Package territory exposes the static five-level sales hierarchy
// (Regional > Branch > Subbranch > Cluster > Kabupaten) used to slice
// every report. The mapping is bundled reference data loaded once at
// startup; nothing in this package mutates after construction.
package territory

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Level identifies one tier of the hierarchy, coarsest first.
type Level int

const (
	Regional Level = iota
	Branch
	Subbranch
	Cluster
	Kabupaten
)

var levelNames = [...]string{"REGIONAL", "BRANCH", "SUBBRANCH", "CLUSTER", "KABUPATEN"}

func (l Level) String() string {
	if l < Regional || l > Kabupaten {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Levels lists all tiers in report order.
func Levels() []Level {
	return []Level{Regional, Branch, Subbranch, Cluster, Kabupaten}
}

// Node is one unit of the hierarchy. Parent is the node's name at the
// next-coarser level, empty for the regional root.
type Node struct {
	Level  Level
	Name   string
	Parent string
}

// Filter is a partial ancestor path. Components apply cumulatively
// top-down; empty components are ignored. Values that name nothing in
// the catalog simply resolve to empty node sets.
type Filter struct {
	Branch    string
	Subbranch string
	Cluster   string
	Kabupaten string
}

// IsZero reports whether no component is set.
func (f Filter) IsZero() bool {
	return f.Branch == "" && f.Subbranch == "" && f.Cluster == "" && f.Kabupaten == ""
}

// Token renders a compact cache-key token for the filter.
func (f Filter) Token() string {
	part := func(v string) string {
		if v == "" {
			return "-"
		}
		return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(v)), " ", "_")
	}
	return strings.Join([]string{part(f.Branch), part(f.Subbranch), part(f.Cluster), part(f.Kabupaten)}, ":")
}

// leaf is one kabupaten row of the reference asset with its full
// ancestor path.
type leaf struct {
	names [5]string
}

func (r leaf) at(l Level) string { return r.names[l] }

// Catalog holds the immutable hierarchy. Safe for concurrent use.
type Catalog struct {
	rows []leaf
}

// New parses the reference CSV (header row: regional,branch,subbranch,
// cluster,kabupaten). It enforces a single regional root and rejects
// duplicate kabupaten rows.
func New(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 5
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("territory: parse hierarchy: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("territory: hierarchy asset is empty")
	}

	rows := make([]leaf, 0, len(records)-1)
	root := ""
	seen := make(map[string]struct{}, len(records)-1)
	for i, record := range records[1:] {
		var row leaf
		for col, value := range record {
			value = strings.ToUpper(strings.TrimSpace(value))
			if value == "" {
				return nil, fmt.Errorf("territory: row %d: empty column %d", i+2, col+1)
			}
			row.names[col] = value
		}
		if root == "" {
			root = row.at(Regional)
		} else if row.at(Regional) != root {
			return nil, fmt.Errorf("territory: row %d: second regional root %q (have %q)", i+2, row.at(Regional), root)
		}
		if _, dup := seen[row.at(Kabupaten)]; dup {
			return nil, fmt.Errorf("territory: duplicate kabupaten %q", row.at(Kabupaten))
		}
		seen[row.at(Kabupaten)] = struct{}{}
		rows = append(rows, row)
	}
	return &Catalog{rows: rows}, nil
}

// Root returns the regional root name.
func (c *Catalog) Root() string {
	if len(c.rows) == 0 {
		return ""
	}
	return c.rows[0].at(Regional)
}

// Resolve returns the distinct nodes at level visible under filter, in
// first-appearance order of the reference asset. The order is stable
// for the lifetime of the catalog. Filter components apply cumulatively
// top-down: a component restricts resolution at its own level and every
// deeper one, while components finer than the requested level are
// ignored (selecting a subbranch does not hide its branch row). Unknown
// filter values yield an empty set, never an error.
func (c *Catalog) Resolve(level Level, f Filter) []Node {
	var nodes []Node
	seen := make(map[string]struct{})
	for _, row := range c.rows {
		if !matches(row, f, level) {
			continue
		}
		name := row.at(level)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		parent := ""
		if level > Regional {
			parent = row.at(level - 1)
		}
		nodes = append(nodes, Node{Level: level, Name: name, Parent: parent})
	}
	return nodes
}

// Kabupatens lists the leaf names under filter in catalog order.
func (c *Catalog) Kabupatens(f Filter) []string {
	nodes := c.Resolve(Kabupaten, f)
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}

// AncestorAt maps a kabupaten to its ancestor name at the given level.
// The second return is false for unknown kabupaten names.
func (c *Catalog) AncestorAt(level Level, kabupaten string) (string, bool) {
	kabupaten = strings.ToUpper(strings.TrimSpace(kabupaten))
	for _, row := range c.rows {
		if row.at(Kabupaten) == kabupaten {
			return row.at(level), true
		}
	}
	return "", false
}

func matches(row leaf, f Filter, upTo Level) bool {
	check := func(level Level, want string) bool {
		if want == "" || level > upTo {
			return true
		}
		return row.at(level) == strings.ToUpper(strings.TrimSpace(want))
	}
	return check(Branch, f.Branch) &&
		check(Subbranch, f.Subbranch) &&
		check(Cluster, f.Cluster) &&
		check(Kabupaten, f.Kabupaten)
}
