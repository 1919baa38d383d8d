// Package search implements the dashboard request filter. Matching is
// tiered so that precise hits always outrank loose ones: exact request
// number first (with or without the REQ- prefix), then exact order index,
// then exact field match, then substring, then an edit-distance-1 fuzzy
// match restricted to longer terms. Short terms never fuzzy-match, which
// keeps two-letter units like "kg" from dragging in noise.
package search

import (
	"strconv"
	"strings"

	"github.com/krishsoni15/procureflow/internal/domain/entity"
)

const (
	tierRequestNumber = iota + 1
	tierOrderIndex
	tierExactField
	tierSubstring
	tierFuzzy
	tierNone
)

// Terms shorter than this are restricted to prefix/exact forms.
const substringMinLen = 3

// Fuzzy matching only applies to terms longer than this.
const fuzzyMinLen = 4

// FilterGroups returns the groups matching the term, best tier first.
// Relative order within a tier is preserved from the input.
func FilterGroups(groups []*entity.RequestGroup, term string) []*entity.RequestGroup {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return groups
	}

	byTier := make(map[int][]*entity.RequestGroup)
	for _, group := range groups {
		tier := matchGroup(group, term)
		if tier != tierNone {
			byTier[tier] = append(byTier[tier], group)
		}
	}

	var out []*entity.RequestGroup
	for tier := tierRequestNumber; tier <= tierFuzzy; tier++ {
		out = append(out, byTier[tier]...)
	}
	return out
}

func matchGroup(group *entity.RequestGroup, term string) int {
	best := tierNone

	if matchesRequestNumber(group.RequestNumber, term) {
		return tierRequestNumber
	}

	if idx, err := strconv.Atoi(term); err == nil {
		for _, item := range group.Items {
			if item.ItemOrder == idx {
				return tierOrderIndex
			}
		}
	}

	for _, item := range group.Items {
		for _, field := range []string{item.ItemName, item.Unit, item.Description, item.SpecsBrand, string(item.Status)} {
			if tier := matchField(field, term); tier < best {
				best = tier
			}
		}
	}
	return best
}

// matchesRequestNumber compares the term against the request number with and
// without the REQ- prefix.
func matchesRequestNumber(requestNumber, term string) bool {
	number := strings.ToLower(requestNumber)
	if term == number {
		return true
	}
	bare := strings.TrimPrefix(number, "req-")
	cleaned := strings.TrimPrefix(term, "req-")
	return cleaned == bare
}

func matchField(field, term string) int {
	field = strings.ToLower(field)
	if field == "" {
		return tierNone
	}
	if field == term {
		return tierExactField
	}
	if len(term) >= substringMinLen {
		if strings.Contains(field, term) {
			return tierSubstring
		}
	} else if strings.HasPrefix(field, term) {
		return tierSubstring
	}
	if len(term) > fuzzyMinLen && withinDistanceOne(field, term) {
		return tierFuzzy
	}
	return tierNone
}

// withinDistanceOne reports whether a and b are at most one edit apart
// (insert, delete, or substitute).
func withinDistanceOne(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la-lb > 1 || lb-la > 1 {
		return false
	}
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}

	// a is the shorter (or equal length) string
	i, j := 0, 0
	edited := false
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		if edited {
			return false
		}
		edited = true
		if la == lb {
			i++
		}
		j++
	}
	return true
}
