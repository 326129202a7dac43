package extract

import "strings"

// typeKeywords maps content keywords to funding instrument types, checked in
// order. Pages frequently name their instrument in the title or URL.
var typeKeywords = []struct {
	typ      string
	patterns []string
}{
	{"grant", []string{"grant", "förderung", "zuschuss", "foerderung"}},
	{"loan", []string{"loan", "kredit", "darlehen"}},
	{"equity", []string{"equity", "beteiligung", "venture"}},
	{"subsidy", []string{"subsidy", "subvention", "prämie"}},
	{"guarantee", []string{"guarantee", "garantie", "haftung"}},
}

// inferFundingTypes derives instrument types from page content when the
// extraction call returned none. Falls back to grant, the most common
// instrument.
func inferFundingTypes(content string) []string {
	lower := strings.ToLower(content)
	var found []string
	for _, tk := range typeKeywords {
		for _, p := range tk.patterns {
			if strings.Contains(lower, p) {
				found = append(found, tk.typ)
				break
			}
		}
	}
	if len(found) == 0 {
		return []string{"grant"}
	}
	return found
}
