package bill

import (
	"regexp"
	"strings"
)

var (
	parentheticalRe = regexp.MustCompile(`\(.*?\)`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9\s]`)
)

// NormalizeItemName produces the canonical comparison key for an item name:
// lowercased, parenthetical notes removed, punctuation stripped, trimmed.
// "Ricebowl Black Pepper (extra pedas)" and "ricebowl black pepper" collapse
// to the same key.
func NormalizeItemName(name string) string {
	s := strings.ToLower(name)
	s = parentheticalRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// MatchItem resolves a candidate name from the text extractor against the
// canonical item list. Exact normalized match wins; otherwise the first item
// in list order whose normalized name contains the candidate (or vice versa)
// is returned. The second return value is false when nothing matches.
func MatchItem(candidate string, items []Item) (string, bool) {
	normalized := NormalizeItemName(candidate)
	if normalized == "" {
		return "", false
	}

	for _, item := range items {
		if NormalizeItemName(item.Name) == normalized {
			return item.ID, true
		}
	}
	for _, item := range items {
		itemName := NormalizeItemName(item.Name)
		if itemName == "" {
			continue
		}
		if strings.Contains(itemName, normalized) || strings.Contains(normalized, itemName) {
			return item.ID, true
		}
	}
	return "", false
}

// Assignment maps one person to the item names they consumed, as produced
// by the text assignment extractor.
type Assignment struct {
	Person string   `json:"person"`
	Items  []string `json:"items"`
}

// ResolveAssignments applies extracted person-to-item assignments onto a
// copy of the item list. Only people present in knownPeople are applied, a
// person is never added twice to the same item, and unmatched item names are
// skipped. Returns the updated items and the number of assignments applied.
func ResolveAssignments(assignments []Assignment, items []Item, knownPeople []string) ([]Item, int) {
	updated := make([]Item, len(items))
	for i, item := range items {
		updated[i] = item
		updated[i].Consumers = append([]string(nil), item.Consumers...)
	}

	known := make(map[string]bool, len(knownPeople))
	for _, p := range knownPeople {
		known[p] = true
	}

	index := make(map[string]int, len(updated))
	for i, item := range updated {
		index[item.ID] = i
	}

	resolved := 0
	for _, assignment := range assignments {
		if !known[assignment.Person] {
			continue
		}
		for _, name := range assignment.Items {
			id, ok := MatchItem(name, updated)
			if !ok {
				continue
			}
			i := index[id]
			if containsString(updated[i].Consumers, assignment.Person) {
				continue
			}
			updated[i].Consumers = append(updated[i].Consumers, assignment.Person)
			resolved++
		}
	}

	return updated, resolved
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
