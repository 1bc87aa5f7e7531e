package manifest

import (
	"math/rand"
	"sort"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// QuickOrder returns a randomized permutation of repo indices, used for
// --mode quick where repo selection need not be reproducible.
func QuickOrder(n int, rng *rand.Rand) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// RotationOrder returns a deterministic language-diversity-weighted
// rotation of repo indices, used for --mode full/release. Repos are
// grouped by language and round-robined across groups, visiting groups
// in alphabetical language order and repos within a group in manifest
// order, so that adjacent selections rarely share a language.
func RotationOrder(repos []types.TargetRepo) []int {
	byLang := map[string][]int{}
	var langs []string
	for i, r := range repos {
		if _, ok := byLang[r.Language]; !ok {
			langs = append(langs, r.Language)
		}
		byLang[r.Language] = append(byLang[r.Language], i)
	}
	sort.Strings(langs)

	var order []int
	for {
		progressed := false
		for _, lang := range langs {
			remaining := byLang[lang]
			if len(remaining) == 0 {
				continue
			}
			order = append(order, remaining[0])
			byLang[lang] = remaining[1:]
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return order
}
