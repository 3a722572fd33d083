package reservation

import (
	"fmt"
	"sort"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Allocate picks tables for a party greedily: smallest tables first,
// stopping as soon as the accumulated capacity seats everyone.  This is
// not capacity-minimal; [2,2,6] for a party of 5 takes all three tables.
// Ties on capacity are broken by table ID so results are deterministic.
func Allocate(free []model.Table, partySize int) ([]model.Table, error) {
	if partySize <= 0 {
		return nil, fmt.Errorf("%w: party size must be positive", ErrValidation)
	}
	sorted := make([]model.Table, len(free))
	copy(sorted, free)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SeatCapacity != sorted[j].SeatCapacity {
			return sorted[i].SeatCapacity < sorted[j].SeatCapacity
		}
		return sorted[i].ID < sorted[j].ID
	})

	remaining := partySize
	chosen := make([]model.Table, 0, len(sorted))
	for _, t := range sorted {
		if remaining <= 0 {
			break
		}
		chosen = append(chosen, t)
		remaining -= t.SeatCapacity
	}
	if remaining > 0 {
		return nil, fmt.Errorf("%w: party of %d, %d seats free", ErrCapacity, partySize, partySize-remaining)
	}
	return chosen, nil
}
