package questions

import (
	"errors"
	"math"
	"sort"

	"github.com/fundscout/fundscout/internal/types"
)

// DefaultCap bounds the number of questions presented to a user.
const DefaultCap = 10

// ErrInsufficientData signals an empty or unusable corpus. Callers present
// zero questions rather than failing.
var ErrInsufficientData = errors.New("not enough corpus data to derive questions")

// PrimaryThreshold is the pass-1 minimum pair frequency for a corpus size.
func PrimaryThreshold(corpusSize int) int {
	return maxInt(3, int(math.Ceil(0.03*float64(corpusSize))))
}

// SecondaryThreshold is the lowered pass-2 minimum, applied only when pass 1
// leaves the cap unfilled.
func SecondaryThreshold(corpusSize int) int {
	return maxInt(2, int(math.Ceil(0.01*float64(corpusSize))))
}

// WarnFunc receives unmapped pairs frequent enough to have produced a
// question, so new mappings can be considered.
type WarnFunc func(pair Pair, frequency int)

// SelectQuestions derives the ordered question list from pair frequencies.
//
// Two passes over the pairs, most frequent first: pass 1 applies the primary
// threshold; pass 2 runs only while the cap is unfilled and applies the
// lowered threshold. A question id is selected at most once, with the
// frequency of the pair that first selected it. The selected ids are then
// reordered by the fixed importance table; frequency decides nothing past
// selection.
func SelectQuestions(freqs map[Pair]int, corpusSize, limit int, warn WarnFunc) ([]types.QuestionCandidate, error) {
	if corpusSize == 0 || len(freqs) == 0 {
		return nil, ErrInsufficientData
	}
	if limit <= 0 {
		limit = DefaultCap
	}

	type pairFreq struct {
		pair Pair
		freq int
	}
	ordered := make([]pairFreq, 0, len(freqs))
	for pair, freq := range freqs {
		ordered = append(ordered, pairFreq{pair, freq})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].freq != ordered[j].freq {
			return ordered[i].freq > ordered[j].freq
		}
		if ordered[i].pair.Category != ordered[j].pair.Category {
			return ordered[i].pair.Category < ordered[j].pair.Category
		}
		return ordered[i].pair.Type < ordered[j].pair.Type
	})

	var selected []types.QuestionCandidate
	chosen := map[string]bool{}
	warned := map[Pair]bool{}

	pass := func(threshold int) {
		for _, pf := range ordered {
			if len(selected) >= limit {
				return
			}
			if pf.freq < threshold {
				continue
			}
			id, ok := MapToQuestionID(pf.pair.Category, pf.pair.Type)
			if !ok {
				if warn != nil && !warned[pf.pair] {
					warned[pf.pair] = true
					warn(pf.pair, pf.freq)
				}
				continue
			}
			if chosen[id] {
				continue
			}
			chosen[id] = true

			meta := questionMetadata[id]
			selected = append(selected, types.QuestionCandidate{
				ID:             id,
				Category:       pf.pair.Category,
				Type:           pf.pair.Type,
				Frequency:      pf.freq,
				ImportanceRank: rankOf(id),
				Label:          meta.Label,
				InputKind:      meta.InputKind,
			})
		}
	}

	pass(PrimaryThreshold(corpusSize))
	if len(selected) < limit {
		pass(SecondaryThreshold(corpusSize))
	}

	if len(selected) == 0 {
		return nil, ErrInsufficientData
	}

	// Importance drives presentation order; ties keep selection order.
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].ImportanceRank < selected[j].ImportanceRank
	})
	return selected, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
