package batch

import (
	"sort"

	"github.com/hupe1980/blockgate/index"
	"github.com/ipfs/go-cid"
)

// Entry is a wanted block together with its chosen location.
type Entry struct {
	CID cid.Cid
	index.Location
}

// Batcher groups wanted blocks by container object.
//
// A Batcher is not safe for concurrent use.
type Batcher struct {
	selector Selector
	chosen   map[string]index.Object
	groups   map[index.Object][]Entry
	order    []index.Object
}

// New creates an empty Batcher. A nil selector means First.
func New(selector Selector) *Batcher {
	if selector == nil {
		selector = First
	}
	return &Batcher{
		selector: selector,
		chosen:   make(map[string]index.Object),
		groups:   make(map[index.Object][]Entry),
	}
}

// Add records that c is wanted and may be found at any of locs. Adding the
// same CID again before it is drained is a no-op. Invalid locations are
// dropped before selection; if none remain, Add is a no-op. Add reports
// whether c is queued.
func (b *Batcher) Add(c cid.Cid, locs []index.Location) bool {
	locs = ValidLocations(locs)
	if len(locs) == 0 {
		return false
	}

	key := index.KeyOf(c)
	if _, ok := b.chosen[key]; ok {
		return true
	}

	i := b.selector(locs)
	if i < 0 || i >= len(locs) {
		i = 0
	}
	loc := locs[i]
	obj := loc.Object()

	b.chosen[key] = obj
	if _, ok := b.groups[obj]; !ok {
		b.order = append(b.order, obj)
	}
	b.groups[obj] = append(b.groups[obj], Entry{CID: c, Location: loc})
	return true
}

// ValidLocations returns the locations of locs with a non-negative range.
// locs is returned as is when all of them are valid.
func ValidLocations(locs []index.Location) []index.Location {
	for i, l := range locs {
		if l.Valid() {
			continue
		}
		valid := append([]index.Location(nil), locs[:i]...)
		for _, l := range locs[i+1:] {
			if l.Valid() {
				valid = append(valid, l)
			}
		}
		return valid
	}
	return locs
}

// Next removes and returns the oldest group: all entries in one container
// object sorted ascending by offset. It returns nil when the batcher is empty.
func (b *Batcher) Next() []Entry {
	if len(b.order) == 0 {
		return nil
	}

	obj := b.order[0]
	b.order = b.order[1:]

	group := b.groups[obj]
	delete(b.groups, obj)
	for _, e := range group {
		delete(b.chosen, index.KeyOf(e.CID))
	}

	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Offset < group[j].Offset
	})
	return group
}

// Len returns the number of entries not yet drained.
func (b *Batcher) Len() int {
	return len(b.chosen)
}

// Groups returns the number of groups not yet drained.
func (b *Batcher) Groups() int {
	return len(b.order)
}
