package rollup

// Kind discriminates data rows from the synthetic level banners mixed
// into the flat report sequence.
type Kind int

const (
	// Data rows carry one territory's figures.
	Data Kind = iota
	// Header rows carry only a level label; every numeric field
	// serializes blank.
	Header
)

// Row is the engine's output unit. The JSON shape is flat and shared
// by both kinds: header rows keep the same field names with blank
// values so the rendering layer can stream the sequence straight into
// a table.
type Row struct {
	Kind        Kind    `json:"-"`
	Name        string  `json:"name"`
	Target      Amount  `json:"target"`
	Actual      Amount  `json:"actual"`
	Achievement Percent `json:"achievement"`
	DRR         Percent `json:"drr"`
	Gap         Amount  `json:"gap_to_target"`
	MoM         Percent `json:"mom"`
	YoY         Percent `json:"yoy"`
	YTD         Percent `json:"ytd"`
	Delta       Amount  `json:"delta"`
}

// HeaderRow builds a level banner row.
func HeaderRow(label string) Row {
	return Row{Kind: Header, Name: label}
}
