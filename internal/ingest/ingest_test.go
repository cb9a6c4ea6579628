package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"realty/internal/repository"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantNil bool
	}{
		{"plain", "4500000", 4500000, false},
		{"with currency", "4 500 000 ₽", 4500000, false},
		{"nbsp separators", "12 345 678 ₽", 12345678, false},
		{"narrow nbsp", "5 400 000", 5400000, false},
		{"prefixed text", "от 3 900 000 руб.", 3900000, false},
		{"no digits", "цена по запросу", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPrice(tt.in)
			if tt.wantNil {
				if got != nil {
					t.Errorf("ExtractPrice(%q) = %d, want nil", tt.in, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("ExtractPrice(%q) = %v, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractSquareMeters(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantNil bool
	}{
		{"dot decimal", "2-комн. 54.3 м²", 54.3, false},
		{"comma decimal", "1-комн. 36,2 м²", 36.2, false},
		{"integer", "студия 28 м²", 28, false},
		{"no marker", "2-комн. 54 квадрата", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSquareMeters(tt.in)
			if tt.wantNil {
				if got != nil {
					t.Errorf("ExtractSquareMeters(%q) = %v, want nil", tt.in, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("ExtractSquareMeters(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractRooms(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantNil bool
	}{
		{"Однокомнатная квартира 36 м²", 1, false},
		{"двухкомнатная 54 м²", 2, false},
		{"Трехкомнатная квартира", 3, false},
		{"трёхкомнатная квартира", 3, false},
		{"Четырехкомнатная", 4, false},
		{"пятикомнатная", 5, false},
		{"Студия 28 м²", 0, false},
		{"просто квартира", 0, true},
	}

	for _, tt := range tests {
		got := ExtractRooms(tt.in)
		if tt.wantNil {
			if got != nil {
				t.Errorf("ExtractRooms(%q) = %d, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ExtractRooms(%q) = %v, want %d", tt.in, got, tt.want)
		}
	}
}

func TestChunkWords(t *testing.T) {
	text := "один два три четыре пять шесть семь"

	parts := chunkWords(text, 3)
	want := []string{"один два три", "четыре пять шесть", "семь"}
	if len(parts) != len(want) {
		t.Fatalf("chunkWords produced %d parts, want %d", len(parts), len(want))
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d = %q, want %q", i, parts[i], want[i])
		}
	}

	if parts := chunkWords("короткий текст", 100); len(parts) != 1 {
		t.Errorf("short text must stay one chunk, got %d", len(parts))
	}
}

func TestLoaderLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, dir, "areas.json", `{"Первореченский": ["Луговая"]}`)
	writeFile(t, dir, "akva.json", `{
		"complex_name": "Аква Сити",
		"area": "луговая",
		"general_texts": "Высотный комплекс рядом с морем.",
		"short_text": "ЖК Аква Сити",
		"apartments_with_prices": [
			{"apartment_type": "Однокомнатная квартира 36.2 м²", "price": "3 900 000 ₽"},
			{"apartment_type": "Студия 28.0 м²", "price": "цена по запросу"}
		]
	}`)
	writeFile(t, dir, "notes.txt", "не json, должен игнорироваться")

	repo, err := repository.Open(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	loader := NewLoader(repo, nil, nil, dir)
	if err := loader.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	areas, err := repo.ListAreas(ctx)
	if err != nil {
		t.Fatalf("failed to list areas: %v", err)
	}
	if len(areas) != 2 {
		t.Fatalf("expected 2 seeded areas, got %d", len(areas))
	}

	card, err := repo.ComplexByName(ctx, "Аква Сити")
	if err != nil {
		t.Fatalf("failed to fetch complex: %v", err)
	}
	if card == nil {
		t.Fatal("complex was not ingested")
	}
	if card.AreaName == nil || !strings.EqualFold(*card.AreaName, "Луговая") {
		t.Errorf("expected area resolved case-insensitively, got %v", card.AreaName)
	}
	if len(card.Apartments) != 2 {
		t.Fatalf("expected 2 apartments, got %d", len(card.Apartments))
	}

	first := card.Apartments[0]
	if first.Price == nil || *first.Price != 3900000 {
		t.Errorf("price = %v, want 3900000", first.Price)
	}
	if first.NumRooms == nil || *first.NumRooms != 1 {
		t.Errorf("rooms = %v, want 1", first.NumRooms)
	}
	if first.SizeSqm == nil || *first.SizeSqm != 36.2 {
		t.Errorf("size = %v, want 36.2", first.SizeSqm)
	}

	second := card.Apartments[1]
	if second.Price != nil {
		t.Errorf("expected nil price for unparsable value, got %d", *second.Price)
	}
	if second.NumRooms == nil || *second.NumRooms != 0 {
		t.Errorf("expected студия to count as 0 rooms, got %v", second.NumRooms)
	}

	// Reload keeps the catalog consistent instead of duplicating rows.
	if err := loader.Load(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	names, err := repo.ComplexNames(ctx)
	if err != nil {
		t.Fatalf("failed to list names: %v", err)
	}
	if len(names) != 1 {
		t.Errorf("expected 1 complex after reload, got %d", len(names))
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}
