package questions

import (
	"github.com/fundscout/fundscout/internal/types"
)

// Pair is one (category, type) requirement combination.
type Pair struct {
	Category types.Category
	Type     string
}

// PairFrequencies counts, for every requirement pair, the number of distinct
// programs it appears in. A pair repeated within one program counts once.
func PairFrequencies(programs []types.ProgramRecord) map[Pair]int {
	freqs := map[Pair]int{}
	for _, p := range programs {
		seen := map[Pair]bool{}
		for category, items := range p.Requirements {
			for _, item := range items {
				pair := Pair{Category: category, Type: item.Type}
				if seen[pair] {
					continue
				}
				seen[pair] = true
				freqs[pair]++
			}
		}
	}
	return freqs
}
