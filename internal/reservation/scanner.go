package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Scanner finds the tables of a venue that are free for an interval.
// It performs reads only; callers that act on the result must hold the
// venue/date lock for the duration of the write.
type Scanner struct{}

// FreeTables returns every active table of venueID without a live
// allocation overlapping [start, end).
func (Scanner) FreeTables(ctx context.Context, r TableReader, venueID uint64, start, end time.Time) ([]model.Table, error) {
	tables, err := r.ActiveTables(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	allocs, err := r.LiveAllocations(ctx, venueID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load allocations: %w", err)
	}
	return freeTables(tables, allocs, start, end), nil
}

func freeTables(tables []model.Table, allocs []model.Allocation, start, end time.Time) []model.Table {
	busy := make(map[uint64]struct{}, len(allocs))
	for _, a := range allocs {
		if a.Live() && model.Overlaps(a.StartAt, a.EndAt, start, end) {
			busy[a.TableID] = struct{}{}
		}
	}
	free := make([]model.Table, 0, len(tables))
	for _, t := range tables {
		if t.Deleted || t.SeatCapacity <= 0 {
			continue
		}
		if _, taken := busy[t.ID]; taken {
			continue
		}
		free = append(free, t)
	}
	return free
}
