package model

// DefaultCity is assigned to complexes whose knowledge file carries no city.
const DefaultCity = "Владивосток"

// Area is one node of the two-level district hierarchy. A top-level district
// has a nil parent; a micro-district points at exactly one district. The
// hierarchy never nests deeper than two levels.
type Area struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	ParentID *int64 `json:"parent_id,omitempty" db:"parent_id"`
}

// ResidentialComplex represents a residential development
type ResidentialComplex struct {
	ID           int64   `json:"id" db:"id"`
	ComplexName  string  `json:"complex_name" db:"complex_name"`
	AreaID       *int64  `json:"area_id,omitempty" db:"area_id"`
	GeneralTexts *string `json:"general_texts,omitempty" db:"general_texts"`
	ShortText    *string `json:"short_text,omitempty" db:"short_text"`
	City         string  `json:"city" db:"city"`
}

// Apartment represents a single unit inside a complex. Price, size and room
// count are nullable because the source listings are free text; a room count
// of 0 denotes a studio.
type Apartment struct {
	ID            int64    `json:"id" db:"id"`
	ApartmentType string   `json:"apartment_type" db:"apartment_type"`
	Price         *int64   `json:"price,omitempty" db:"price"`
	SizeSqm       *float64 `json:"size_sqm,omitempty" db:"size_sqm"`
	NumRooms      *int     `json:"num_rooms,omitempty" db:"num_rooms"`
	ComplexID     int64    `json:"complex_id" db:"complex_id"`
}

// ApartmentRow is one search hit joined to its complex. Price is never null
// here: the query excludes apartments without a price.
type ApartmentRow struct {
	ApartmentType string   `db:"apartment_type"`
	Price         int64    `db:"price"`
	SizeSqm       *float64 `db:"size_sqm"`
	NumRooms      *int     `db:"num_rooms"`
	ComplexName   string   `db:"complex_name"`
	GeneralTexts  string   `db:"general_texts"`
}

// ComplexSummary backs the district-level "what exists in this area" listing.
type ComplexSummary struct {
	ShortText string `db:"short_text"`
	City      string `db:"city"`
	AreaName  string `db:"area_name"`
}

// ComplexInfo is the compact per-complex line used when the knowledge base
// resolves complex names for a chat.
type ComplexInfo struct {
	ComplexName  string  `db:"complex_name"`
	AreaName     *string `db:"area_name"`
	GeneralTexts *string `db:"general_texts"`
}

// ComplexCard is the full dossier for a single explicitly requested complex.
type ComplexCard struct {
	Complex    ResidentialComplex
	AreaName   *string
	Apartments []Apartment
}

// ApartmentQuery is the relational part of a search request. Every field is
// optional and the set conditions combine with AND.
type ApartmentQuery struct {
	NumRooms     []int
	MinSquare    *int
	MaxSquare    *int
	MinPrice     *int
	MaxPrice     *int
	City         string
	ComplexNames []string
	AreaIDs      []int64
	SortDesc     bool
}
