package batch

import "github.com/hupe1980/blockgate/index"

// Selector picks one location out of the candidates returned by the index.
// It returns the position of the chosen location in locs.
//
// Selectors are only called with a non-empty slice.
type Selector func(locs []index.Location) int

// First always chooses the first location, i.e. the index ranking.
func First(_ []index.Location) int {
	return 0
}

// PreferRegion chooses the first location in region, falling back to the
// first location when no candidate lives there.
func PreferRegion(region string) Selector {
	if region == "" {
		return First
	}
	return func(locs []index.Location) int {
		for i, loc := range locs {
			if loc.Region == region {
				return i
			}
		}
		return 0
	}
}
