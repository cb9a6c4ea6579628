package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"realty/internal/model"
)

// CatalogStore is the read side of the catalog the search engine runs
// against. The sqlx repository implements it; tests use a SQLite-backed
// instance of the same repository.
type CatalogStore interface {
	ListAreas(ctx context.Context) ([]model.Area, error)
	SearchApartments(ctx context.Context, q model.ApartmentQuery) ([]model.ApartmentRow, error)
	ComplexesInAreas(ctx context.Context, areaIDs []int64, city string) ([]model.ComplexSummary, error)
	ComplexByName(ctx context.Context, name string) (*model.ComplexCard, error)
	ComplexesByNames(ctx context.Context, names []string) ([]model.ComplexInfo, error)
	ComplexNames(ctx context.Context) ([]string, error)
}

// Fixed replies. The digest feeds an LLM prompt, so the wording is part of
// the contract and stays byte-for-byte stable.
const (
	MsgNoAreaOptions = "Для указанного района отсутствуют варианты!"
	MsgNoApartments  = "Результат промежуточного анализа запроса: /n нету квартир под ваши параметры."
	MsgEngineFailure = "Произошла ошибка при обработке запроса."

	digestPrefix      = "Результат промежуточного анализа запроса: /n"
	areaListingHeader = "Список ЖК в этом районе, но не факт что в них есть квартира: \n"
	notSpecified      = "не указано"
)

// summaryLimit is the hard cap on apartment summary lines, kept small so the
// digest stays cheap in dialogue context. It is not Filter.Limit, which caps
// the district listing below.
const summaryLimit = 3

// errNoAreaFound distinguishes "the named area does not exist" from "the
// query ran and matched nothing". Both surface the same user-facing string.
var errNoAreaFound = errors.New("area not found")

// SearchService turns a Filter into a formatted digest for context injection.
type SearchService struct {
	store CatalogStore
}

// NewSearchService creates a new search service
func NewSearchService(store CatalogStore) *SearchService {
	return &SearchService{store: store}
}

// Digest runs the search and always returns a printable digest. Storage
// failures are logged and converted into the generic failure message, so the
// dialogue loop never sees an error from here.
func (s *SearchService) Digest(ctx context.Context, f *model.Filter) string {
	text, err := s.search(ctx, f)
	if err != nil {
		if errors.Is(err, errNoAreaFound) {
			return MsgNoApartments
		}
		log.Printf("search failed: %v", err)
		return MsgEngineFailure
	}
	return text
}

func (s *SearchService) search(ctx context.Context, f *model.Filter) (string, error) {
	if !f.IsFilter {
		return MsgNoAreaOptions, nil
	}

	var scope []int64
	if f.Area != "" {
		ids, err := s.resolveAreaScope(ctx, f.Area)
		if err != nil {
			return "", err
		}
		scope = ids
	}

	rows, err := s.store.SearchApartments(ctx, model.ApartmentQuery{
		NumRooms:     f.NumRooms,
		MinSquare:    f.MinSquare,
		MaxSquare:    f.MaxSquare,
		MinPrice:     f.MinPrice,
		MaxPrice:     f.MaxPrice,
		City:         f.City,
		ComplexNames: f.ComplexNames,
		AreaIDs:      scope,
		SortDesc:     f.SortPrice == "desc",
	})
	if err != nil {
		return "", fmt.Errorf("apartment query: %w", err)
	}
	if len(rows) == 0 {
		return MsgNoApartments, nil
	}

	groups := groupRows(rows)
	if len(groups) > summaryLimit {
		groups = groups[:summaryLimit]
	}

	var b strings.Builder
	b.WriteString(digestPrefix)
	for _, g := range groups {
		fmt.Fprintf(&b, "%s Цена: %d ЖК: %s\n", g.ApartmentType, g.Price, g.ComplexName)
	}
	b.WriteString("\n")
	for _, blurb := range complexBlurbs(groups) {
		b.WriteString(blurb)
		b.WriteString("\n\n")
	}

	if len(scope) > 0 {
		listing, err := s.areaListing(ctx, scope, f)
		if err != nil {
			return "", err
		}
		b.WriteString(listing)
	}

	b.WriteString("/n")

	if len(f.ComplexNames) == 1 {
		dossier, err := s.complexDossier(ctx, f.ComplexNames[0])
		if err != nil {
			return "", err
		}
		b.WriteString(dossier)
	}

	return b.String(), nil
}

// resolveAreaScope maps an area name to the set of area ids in search scope.
// A district covers itself plus its direct micro-districts; a micro-district
// covers only itself. Matching is case-insensitive in Go because SQLite's
// LOWER() does not fold Cyrillic.
func (s *SearchService) resolveAreaScope(ctx context.Context, name string) ([]int64, error) {
	areas, err := s.store.ListAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}

	var found *model.Area
	for i := range areas {
		if strings.EqualFold(areas[i].Name, name) {
			found = &areas[i]
			break
		}
	}
	if found == nil {
		return nil, errNoAreaFound
	}

	ids := []int64{found.ID}
	if found.ParentID == nil {
		for _, a := range areas {
			if a.ParentID != nil && *a.ParentID == found.ID {
				ids = append(ids, a.ID)
			}
		}
	}
	// The hierarchy is at most two levels deep; nothing below a
	// micro-district is ever resolved.
	return ids, nil
}

// summaryGroup is one display line of the digest. Size and room count come
// from the first row of the group; they are representative, not aggregated.
type summaryGroup struct {
	ComplexName   string
	ApartmentType string
	Price         int64
	GeneralTexts  string
}

// groupRows collapses rows sharing (complex, type label, price) into one
// group, preserving the price-sorted encounter order.
func groupRows(rows []model.ApartmentRow) []summaryGroup {
	type groupKey struct {
		complexName string
		label       string
		price       int64
	}
	seen := make(map[groupKey]bool, len(rows))
	groups := make([]summaryGroup, 0, len(rows))
	for _, r := range rows {
		k := groupKey{r.ComplexName, r.ApartmentType, r.Price}
		if seen[k] {
			continue
		}
		seen[k] = true
		groups = append(groups, summaryGroup{
			ComplexName:   r.ComplexName,
			ApartmentType: r.ApartmentType,
			Price:         r.Price,
			GeneralTexts:  r.GeneralTexts,
		})
	}
	return groups
}

// complexBlurbs returns one long-description blurb per distinct complex among
// the capped groups, in first-encounter order.
func complexBlurbs(groups []summaryGroup) []string {
	seen := make(map[string]bool, len(groups))
	blurbs := make([]string, 0, len(groups))
	for _, g := range groups {
		if seen[g.ComplexName] {
			continue
		}
		seen[g.ComplexName] = true
		blurbs = append(blurbs, fmt.Sprintf("%s: %s", g.ComplexName, g.GeneralTexts))
	}
	return blurbs
}

// areaListing renders the "what exists in this area" hint: every complex in
// scope with a non-empty short description, independent of the apartment
// filters. Filter.Limit caps this listing; 0 means the full list.
func (s *SearchService) areaListing(ctx context.Context, scope []int64, f *model.Filter) (string, error) {
	summaries, err := s.store.ComplexesInAreas(ctx, scope, f.City)
	if err != nil {
		return "", fmt.Errorf("area complexes query: %w", err)
	}

	lines := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		if sum.ShortText == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%s, %s)", sum.ShortText, sum.City, sum.AreaName))
	}
	if f.Limit > 0 && len(lines) > f.Limit {
		lines = lines[:f.Limit]
	}

	return areaListingHeader + strings.Join(lines, "\n"), nil
}

// complexDossier renders the full card for a single explicitly requested
// complex: header fields, then one line per apartment with per-field
// fallbacks for missing data.
func (s *SearchService) complexDossier(ctx context.Context, name string) (string, error) {
	card, err := s.store.ComplexByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("complex dossier query: %w", err)
	}
	if card == nil {
		return fmt.Sprintf("Жилой комплекс '%s' не найден.", name), nil
	}

	lines := []string{
		fmt.Sprintf("Жилой комплекс: %s", card.Complex.ComplexName),
		fmt.Sprintf("Город: %s", orNotSpecified(&card.Complex.City)),
		fmt.Sprintf("Район: %s", orNotSpecified(card.AreaName)),
		fmt.Sprintf("Краткое описание: %s", orNotSpecified(card.Complex.ShortText)),
		fmt.Sprintf("Полное описание: %s", orNotSpecified(card.Complex.GeneralTexts)),
		fmt.Sprintf("Количество квартир: %d", len(card.Apartments)),
		"Квартиры:",
	}

	for _, apt := range card.Apartments {
		label := apt.ApartmentType
		if label == "" {
			label = notSpecified
		}
		rooms := "кол-во комнат не указано"
		if apt.NumRooms != nil {
			rooms = fmt.Sprintf("%d комн.", *apt.NumRooms)
		}
		size := "размер не указан"
		if apt.SizeSqm != nil {
			size = fmt.Sprintf("%.1f м²", *apt.SizeSqm)
		}
		price := "цена не указана"
		if apt.Price != nil {
			price = fmt.Sprintf("%s ₽", formatPrice(*apt.Price))
		}
		lines = append(lines, fmt.Sprintf(" - %s, %s, %s, %s", label, rooms, size, price))
	}

	return strings.Join(lines, "\n"), nil
}

// ComplexInfo renders the compact one-line-per-complex summary for a resolved
// name list, used alongside knowledge-base lookups.
func (s *SearchService) ComplexInfo(ctx context.Context, names []string) (string, error) {
	infos, err := s.store.ComplexesByNames(ctx, names)
	if err != nil {
		return "", fmt.Errorf("complex info query: %w", err)
	}
	lines := make([]string, 0, len(infos))
	for _, info := range infos {
		lines = append(lines, fmt.Sprintf("%s, %s, %s", info.ComplexName, orDash(info.AreaName), orDash(info.GeneralTexts)))
	}
	return strings.Join(lines, "\n"), nil
}

func orNotSpecified(s *string) string {
	if s == nil || *s == "" {
		return notSpecified
	}
	return *s
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "—"
	}
	return *s
}

// formatPrice groups digits by thousands: 3900000 -> "3,900,000".
func formatPrice(p int64) string {
	digits := fmt.Sprintf("%d", p)
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
