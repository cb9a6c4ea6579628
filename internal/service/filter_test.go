package service

import (
	"errors"
	"reflect"
	"testing"

	"realty/internal/model"
)

func TestParseFilterTextDefaults(t *testing.T) {
	f, err := ParseFilterText("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsFilter {
		t.Error("expected IsFilter true by default")
	}
	if f.Limit != model.DefaultListingLimit {
		t.Errorf("expected default limit %d, got %d", model.DefaultListingLimit, f.Limit)
	}
	if f.Area != "" || f.City != "" || len(f.ComplexNames) != 0 {
		t.Errorf("expected empty filter, got %+v", f)
	}
}

func TestParseFilterTextFields(t *testing.T) {
	text := `комнат = 1, 2
минимальная площадь = 35
максимальная площадь = 70
минимальная цена = 4000000
максимальная цена = 9000000
город = Владивосток
район = Первореченский
жк = Аква Сити, Борисенко 48
поиск жк = да
фраза для поиска жк = высотный комплекс у моря
весь список = да
сортировка цены = desc`

	f, err := ParseFilterText(text, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(f.NumRooms, []int{1, 2}) {
		t.Errorf("NumRooms = %v, want [1 2]", f.NumRooms)
	}
	if f.MinSquare == nil || *f.MinSquare != 35 {
		t.Errorf("MinSquare = %v, want 35", f.MinSquare)
	}
	if f.MaxSquare == nil || *f.MaxSquare != 70 {
		t.Errorf("MaxSquare = %v, want 70", f.MaxSquare)
	}
	if f.MinPrice == nil || *f.MinPrice != 4000000 {
		t.Errorf("MinPrice = %v, want 4000000", f.MinPrice)
	}
	if f.MaxPrice == nil || *f.MaxPrice != 9000000 {
		t.Errorf("MaxPrice = %v, want 9000000", f.MaxPrice)
	}
	if f.City != "Владивосток" {
		t.Errorf("City = %q", f.City)
	}
	if f.Area != "первореченский" {
		t.Errorf("Area = %q, want lowercased район", f.Area)
	}
	if !reflect.DeepEqual(f.ComplexNames, []string{"Аква Сити", "Борисенко 48"}) {
		t.Errorf("ComplexNames = %v", f.ComplexNames)
	}
	if !f.ComplexSearch {
		t.Error("expected ComplexSearch true")
	}
	if f.SearchPhrase != "высотный комплекс у моря" {
		t.Errorf("SearchPhrase = %q", f.SearchPhrase)
	}
	if f.Limit != 0 {
		t.Errorf("Limit = %d, want 0 for full list", f.Limit)
	}
	if f.SortPrice != "desc" {
		t.Errorf("SortPrice = %q", f.SortPrice)
	}
}

func TestParseFilterTextEmptyMarker(t *testing.T) {
	text := "комнат = пусто\nгород = пусто\nминимальная цена = пусто"
	f, err := ParseFilterText(text, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.NumRooms) != 0 || f.City != "" || f.MinPrice != nil {
		t.Errorf("expected пусто to leave fields unset, got %+v", f)
	}
}

func TestParseFilterTextWrongArea(t *testing.T) {
	f, err := ParseFilterText("район = Неправильный район", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.IsFilter {
		t.Error("expected IsFilter false for неправильный район")
	}
	if f.Area != "" {
		t.Errorf("expected cleared area, got %q", f.Area)
	}
}

func TestParseFilterTextBadNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
	}{
		{"bad rooms", "комнат = 1, два", "комнат"},
		{"bad min price", "минимальная цена = дешево", "минимальная цена"},
		{"bad max square", "максимальная площадь = 70м", "максимальная площадь"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilterText(tt.text, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %T", err)
			}
			if pe.Key != tt.key {
				t.Errorf("ParseError.Key = %q, want %q", pe.Key, tt.key)
			}
		})
	}
}

func TestParseFilterTextKnownComplexOverride(t *testing.T) {
	known := []string{"Аква Сити", "Каштановый двор"}

	f, err := ParseFilterText("город = Владивосток", known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(f.ComplexNames, known) {
		t.Errorf("expected known complexes kept, got %v", f.ComplexNames)
	}

	f, err = ParseFilterText("жк = Борисенко 48", known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(f.ComplexNames, []string{"Борисенко 48"}) {
		t.Errorf("expected жк line to override, got %v", f.ComplexNames)
	}
}

func TestParseFilterTextIgnoresNoise(t *testing.T) {
	text := "вот параметры:\nнеизвестный ключ = что-то\nкомнат = 2\nсортировка цены = вверх"
	f, err := ParseFilterText(text, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(f.NumRooms, []int{2}) {
		t.Errorf("NumRooms = %v", f.NumRooms)
	}
	if f.SortPrice != "" {
		t.Errorf("expected invalid sort direction ignored, got %q", f.SortPrice)
	}
}
