package retention

import (
	"sort"
	"time"
)

// SelectForDeletion groups candidates by class and, per class, sorts
// newest-first and marks for deletion anything whose age exceeds
// maxAge and is not guarded by minDeleteAge, or whose position in the
// newest-first ordering exceeds maxCount. Protected classes are never
// selected.
func SelectForDeletion(candidates []Candidate, limits map[Class]Limits, now time.Time) []Candidate {
	byClass := map[Class][]Candidate{}
	for _, c := range candidates {
		byClass[c.Class] = append(byClass[c.Class], c)
	}

	var toDelete []Candidate
	for class, items := range byClass {
		lim := limits[class]
		if lim.Protected {
			continue
		}

		sorted := append([]Candidate{}, items...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ModTime.After(sorted[j].ModTime)
		})

		for i, item := range sorted {
			position := i + 1
			age := now.Sub(item.ModTime)

			ageExceeded := lim.MaxAge > 0 && age > lim.MaxAge && age > lim.MinDeleteAge
			positionExceeded := lim.MaxCount > 0 && position > lim.MaxCount

			if ageExceeded || positionExceeded {
				toDelete = append(toDelete, item)
			}
		}
	}
	return toDelete
}
