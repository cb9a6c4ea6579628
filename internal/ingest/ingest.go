package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"realty/internal/model"
)

// chunkWordLimit bounds one embedded chunk. Descriptions longer than this are
// split so a single chunk stays well inside the embedding model input limit.
const chunkWordLimit = 2300

// ComplexDocument mirrors one catalog JSON file as produced by the scraper.
type ComplexDocument struct {
	ComplexName  string           `json:"complex_name"`
	Area         string           `json:"area"`
	City         string           `json:"city"`
	GeneralTexts string           `json:"general_texts"`
	ShortText    string           `json:"short_text"`
	Apartments   []ApartmentEntry `json:"apartments_with_prices"`
}

// ApartmentEntry is one raw apartment listing. Everything interesting about
// it (rooms, size, price) is buried in free text and extracted by regex.
type ApartmentEntry struct {
	ApartmentType string `json:"apartment_type"`
	Price         string `json:"price"`
}

// CatalogWriter is the subset of the catalog repository ingestion writes to.
type CatalogWriter interface {
	ListAreas(ctx context.Context) ([]model.Area, error)
	ClearCatalog(ctx context.Context) error
	InsertArea(ctx context.Context, name string, parentID *int64) (int64, error)
	InsertComplex(ctx context.Context, rc model.ResidentialComplex) (int64, error)
	InsertApartment(ctx context.Context, a model.Apartment) error
}

// Embedder produces embeddings for description chunks.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	IsEnabled() bool
}

// Index receives the embedded chunks.
type Index interface {
	Add(ctx context.Context, chunks []model.KnowledgeChunk) error
	Clear(ctx context.Context) error
}

// Loader ingests a directory of complex JSON files into the catalog and the
// vector index.
type Loader struct {
	store    CatalogWriter
	embedder Embedder
	index    Index
	dir      string
}

// NewLoader creates a loader. embedder and index may be nil; the catalog is
// still loaded and semantic search simply stays empty.
func NewLoader(store CatalogWriter, embedder Embedder, index Index, dir string) *Loader {
	return &Loader{store: store, embedder: embedder, index: index, dir: dir}
}

// Load replaces the catalog contents with the documents found in the loader
// directory. Area rows are kept; complexes and apartments are rebuilt.
func (l *Loader) Load(ctx context.Context) error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("failed to read knowledge dir %s: %w", l.dir, err)
	}

	areas, err := l.seedAreas(ctx)
	if err != nil {
		return err
	}

	if err := l.store.ClearCatalog(ctx); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	if l.index != nil {
		if err := l.index.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear vector index: %w", err)
		}
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || entry.Name() == "areas.json" {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		if err := l.loadFile(ctx, path, areas); err != nil {
			return fmt.Errorf("failed to load %s: %w", entry.Name(), err)
		}
		loaded++
	}
	log.Printf("ingested %d complex files from %s", loaded, l.dir)
	return nil
}

// seedAreas fills the area hierarchy from areas.json when the areas table is
// still empty. The file maps district names to their micro-district lists:
//
//	{"Первореченский": ["Луговая", "Гоголя"], "Ленинский": []}
//
// Already-seeded catalogs keep whatever hierarchy they have.
func (l *Loader) seedAreas(ctx context.Context) ([]model.Area, error) {
	areas, err := l.store.ListAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	if len(areas) > 0 {
		return areas, nil
	}

	data, err := os.ReadFile(filepath.Join(l.dir, "areas.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return areas, nil
		}
		return nil, fmt.Errorf("failed to read areas.json: %w", err)
	}

	var hierarchy map[string][]string
	if err := json.Unmarshal(data, &hierarchy); err != nil {
		return nil, fmt.Errorf("invalid areas.json: %w", err)
	}

	for district, children := range hierarchy {
		districtID, err := l.store.InsertArea(ctx, district, nil)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, err := l.store.InsertArea(ctx, child, &districtID); err != nil {
				return nil, err
			}
		}
	}
	return l.store.ListAreas(ctx)
}

func (l *Loader) loadFile(ctx context.Context, path string, areas []model.Area) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc ComplexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if doc.ComplexName == "" {
		return fmt.Errorf("missing complex_name")
	}

	city := doc.City
	if city == "" {
		city = model.DefaultCity
	}

	rc := model.ResidentialComplex{
		ComplexName: doc.ComplexName,
		AreaID:      resolveAreaID(doc.Area, areas),
		City:        city,
	}
	if doc.GeneralTexts != "" {
		rc.GeneralTexts = &doc.GeneralTexts
	}
	if doc.ShortText != "" {
		rc.ShortText = &doc.ShortText
	}

	complexID, err := l.store.InsertComplex(ctx, rc)
	if err != nil {
		return err
	}

	for _, entry := range doc.Apartments {
		apt := ParseApartment(entry, complexID)
		if err := l.store.InsertApartment(ctx, apt); err != nil {
			return err
		}
	}

	return l.indexComplex(ctx, doc, city)
}

// indexComplex embeds the complex description and stores the chunks.
func (l *Loader) indexComplex(ctx context.Context, doc ComplexDocument, city string) error {
	if l.embedder == nil || l.index == nil || !l.embedder.IsEnabled() {
		return nil
	}
	text := strings.TrimSpace(doc.ShortText + "\n" + doc.GeneralTexts)
	if text == "" {
		return nil
	}

	parts := chunkWords(text, chunkWordLimit)
	embeddings, err := l.embedder.CreateEmbeddings(ctx, parts)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", doc.ComplexName, err)
	}

	chunks := make([]model.KnowledgeChunk, len(parts))
	for i, part := range parts {
		chunks[i] = model.KnowledgeChunk{
			ID:          uuid.NewString(),
			ComplexName: doc.ComplexName,
			City:        city,
			Content:     part,
			Embedding:   embeddings[i],
		}
	}
	return l.index.Add(ctx, chunks)
}

// ParseApartment extracts the structured fields out of one raw listing.
func ParseApartment(entry ApartmentEntry, complexID int64) model.Apartment {
	return model.Apartment{
		ApartmentType: strings.TrimSpace(entry.ApartmentType),
		Price:         ExtractPrice(entry.Price),
		SizeSqm:       ExtractSquareMeters(entry.ApartmentType),
		NumRooms:      ExtractRooms(entry.ApartmentType),
		ComplexID:     complexID,
	}
}

// resolveAreaID matches the document area name against the known area rows,
// case-insensitively. SQLite LOWER() does not fold Cyrillic, so matching
// happens here.
func resolveAreaID(name string, areas []model.Area) *int64 {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, area := range areas {
		if strings.EqualFold(area.Name, name) {
			id := area.ID
			return &id
		}
	}
	return nil
}

// chunkWords splits text into pieces of at most limit words.
func chunkWords(text string, limit int) []string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return []string{strings.Join(words, " ")}
	}
	var parts []string
	for start := 0; start < len(words); start += limit {
		end := start + limit
		if end > len(words) {
			end = len(words)
		}
		parts = append(parts, strings.Join(words[start:end], " "))
	}
	return parts
}

var (
	digitRunRe = regexp.MustCompile(`\d+`)
	squareRe   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*м²`)
)

// ExtractPrice pulls the numeric price out of a scraped price string. Digit
// groups separated by spaces or non-breaking spaces are concatenated, so
// "12 345 678 ₽" becomes 12345678. Returns nil when no digits are present.
func ExtractPrice(s string) *int64 {
	runs := digitRunRe.FindAllString(s, -1)
	if len(runs) == 0 {
		return nil
	}
	joined := strings.Join(runs, "")
	v, err := strconv.ParseInt(joined, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ExtractSquareMeters finds the "NN.N м²" note in the listing type text.
func ExtractSquareMeters(s string) *float64 {
	m := squareRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// roomPrefixes maps the spelled-out room count prefixes to numbers. Студия
// counts as zero rooms to match how clients ask for it.
var roomPrefixes = []struct {
	prefix string
	rooms  int
}{
	{"однокомна", 1},
	{"двухкомна", 2},
	{"трехкомн", 3},
	{"трёхкомн", 3},
	{"четырехко", 4},
	{"четырёхко", 4},
	{"пятикомнат", 5},
	{"студия", 0},
	{"студии", 0},
}

// ExtractRooms derives the room count from the listing type text.
func ExtractRooms(s string) *int {
	lower := strings.ToLower(s)
	for _, rp := range roomPrefixes {
		if strings.Contains(lower, rp.prefix) {
			rooms := rp.rooms
			return &rooms
		}
	}
	return nil
}
