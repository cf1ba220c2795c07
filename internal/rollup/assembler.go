package rollup

import "github.com/telcodash/telcodash/internal/territory"

// Header labels for the four finer levels, in report order. The
// regional block leads the report unlabeled.
var headerLabels = map[territory.Level]string{
	territory.Branch:    "BRANCH",
	territory.Subbranch: "SUBBRANCH",
	territory.Cluster:   "CLUSTER",
	territory.Kabupaten: "KABUPATEN",
}

// Assemble stitches the five per-level blocks into the single flat
// sequence the rendering layer consumes: regional rows first, then
// each finer level preceded by exactly one header row. Blocks are
// never reordered or deduplicated; an empty block still gets its
// header so the table banners stay in place.
func Assemble(perLevel [5][]Row) []Row {
	size := 4
	for _, block := range perLevel {
		size += len(block)
	}
	out := make([]Row, 0, size)
	for i, level := range territory.Levels() {
		if level != territory.Regional {
			out = append(out, HeaderRow(headerLabels[level]))
		}
		out = append(out, perLevel[i]...)
	}
	return out
}
