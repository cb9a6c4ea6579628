package model

// DefaultListingLimit caps the district-level complex listing unless the
// classifier asked for the full list ("весь список = да"). It does not cap
// the apartment summary lines, which have their own fixed limit in the
// search engine.
const DefaultListingLimit = 3

// Filter is the typed form of one classifier directive, built fresh per turn
// and never persisted. Zero values mean "not constrained", except IsFilter
// which defaults to true and Limit which defaults to DefaultListingLimit
// (0 = unbounded).
type Filter struct {
	Area          string
	NumRooms      []int
	MinSquare     *int
	MaxSquare     *int
	MinPrice      *int
	MaxPrice      *int
	City          string
	ComplexNames  []string
	ComplexSearch bool
	SearchPhrase  string
	SortPrice     string // "asc", "desc" or empty (engine sorts ascending)
	IsFilter      bool
	Limit         int
}

// NewFilter returns a filter with the per-turn defaults applied.
func NewFilter() *Filter {
	return &Filter{
		IsFilter: true,
		Limit:    DefaultListingLimit,
	}
}
