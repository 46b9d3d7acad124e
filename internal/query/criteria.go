// Package query turns raw list parameters into SQL. Parsing is lenient on purpose:
// unknown sort fields, directions and filter tokens never fail a request.
package query

import (
	"strings"
	"time"
	"unicode"

	"github.com/jinzhu/now"

	"github.com/assetdesk/asset-backend/internal/apperrors"
)

// AllSentinel in a filter set means "no constraint"
const AllSentinel = "all"

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// SortCriterion is one (property, order) pair of a sort expression
type SortCriterion struct {
	Property string
	Order    Order
}

func (c SortCriterion) Descending() bool {
	return c.Order == Desc
}

// Key is the normalised property used for whitelist lookups
func (c SortCriterion) Key() string {
	return NormalizeKey(c.Property)
}

// ParseSort parses "field1:dir1,field2:dir2". A missing or unknown direction is ascending.
func ParseSort(raw string) []SortCriterion {
	var criteria []SortCriterion
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		property, dir, _ := strings.Cut(part, ":")
		property = strings.TrimSpace(property)
		if property == "" {
			continue
		}
		order := Asc
		if strings.ToLower(strings.TrimSpace(dir)) == string(Desc) {
			order = Desc
		}
		criteria = append(criteria, SortCriterion{Property: property, Order: order})
	}
	return criteria
}

// LeadsWith reports whether the first criterion targets key, and returns it
func LeadsWith(criteria []SortCriterion, key string) (SortCriterion, bool) {
	if len(criteria) == 0 || criteria[0].Key() != NormalizeKey(key) {
		return SortCriterion{}, false
	}
	return criteria[0], true
}

// NormalizeKey lower-cases s and drops everything but letters and digits,
// so "assetCode", "asset_code" and "Asset Code" match
func NormalizeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// ParseSet turns repeated or comma separated tokens into a typed allow-set.
// Unknown tokens are dropped. A nil result means no constraint, which is also
// what the "All" sentinel or a set with nothing recognisable produces.
func ParseSet[T comparable](raw []string, parse func(string) (T, bool)) []T {
	var out []T
	seen := make(map[T]struct{})
	for _, value := range raw {
		for _, token := range strings.Split(value, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if NormalizeKey(token) == AllSentinel {
				return nil
			}
			v, ok := parse(token)
			if !ok {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// ParseStrings is ParseSet for free-text domains such as category names
func ParseStrings(raw []string) []string {
	return ParseSet(raw, func(s string) (string, bool) { return s, true })
}

var dateLayouts = []string{time.RFC3339, time.DateOnly}

// ParseDate parses a filter date permissively. Empty input is no constraint.
func ParseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	t, err := now.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation(apperrors.FieldError{
			Field:   field,
			Message: "Invalid date format for filtering",
		})
	}
	return &t, nil
}
