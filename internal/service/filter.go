package service

import (
	"fmt"
	"strconv"
	"strings"

	"realty/internal/model"
)

// ParseError reports a malformed numeric value in the classifier output. The
// whole filter is rejected rather than the field skipped: a half-applied
// price or area bound would silently change the query semantics.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("filter field %q: bad value %q: %v", e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseFilterText decodes the key=value block produced by the classifier
// model into a Filter. Lines without "=" are skipped, empty values and the
// literal "пусто" leave the field unset, and unknown keys are ignored so the
// classifier prompt can grow without breaking older binaries. knownComplexes
// seeds the explicit complex set; a "жк" line overrides it.
func ParseFilterText(text string, knownComplexes []string) (*model.Filter, error) {
	f := model.NewFilter()
	if len(knownComplexes) > 0 {
		f.ComplexNames = append([]string(nil), knownComplexes...)
	}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" || value == "пусто" {
			continue
		}

		switch key {
		case "комнат":
			rooms, err := parseIntList(value)
			if err != nil {
				return nil, &ParseError{Key: key, Value: value, Err: err}
			}
			f.NumRooms = rooms
		case "минимальная площадь":
			n, err := parseIntField(key, value)
			if err != nil {
				return nil, err
			}
			f.MinSquare = n
		case "максимальная площадь":
			n, err := parseIntField(key, value)
			if err != nil {
				return nil, err
			}
			f.MaxSquare = n
		case "минимальная цена":
			n, err := parseIntField(key, value)
			if err != nil {
				return nil, err
			}
			f.MinPrice = n
		case "максимальная цена":
			n, err := parseIntField(key, value)
			if err != nil {
				return nil, err
			}
			f.MaxPrice = n
		case "город":
			f.City = value
		case "район":
			if strings.EqualFold(value, "неправильный район") {
				f.IsFilter = false
				f.Area = ""
			} else {
				f.Area = strings.ToLower(value)
			}
		case "жк":
			f.ComplexNames = splitTrimmed(value)
		case "поиск жк":
			f.ComplexSearch = value == "да"
		case "весь список":
			if value == "да" {
				f.Limit = 0
			} else {
				f.Limit = model.DefaultListingLimit
			}
		case "фраза для поиска жк":
			f.SearchPhrase = value
		case "сортировка цены":
			if value == "asc" || value == "desc" {
				f.SortPrice = value
			}
		}
	}

	return f, nil
}

func parseIntField(key, value string) (*int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, &ParseError{Key: key, Value: value, Err: err}
	}
	return &n, nil
}

func parseIntList(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func splitTrimmed(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
