package lifecycle

import (
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/types/order"
)

type View string

const (
	ViewPickerBoard        View = "picker_board"
	ViewUnassigned         View = "unassigned"
	ViewAvailableToCheck   View = "available_to_check"
	ViewNeedsSecondChecker View = "needs_second_checker"
	ViewMineAsChecker      View = "mine_as_checker"
	ViewMineAsSecond       View = "mine_as_second"
	ViewDone               View = "done"
)

// ViewQuery selects orders for a dashboard. Day is a creation date
// (YYYY-MM-DD) in the store's time zone; empty disables the day filter.
type ViewQuery struct {
	View       View
	WorkerID   int64
	Department order.Department
	Day        string
}

// Match reports whether o belongs to the view. created_at is converted to loc
// before comparing with Day.
func (q ViewQuery) Match(o *order.Order, loc *time.Location) bool {
	if q.Day != "" && o.CreatedAt.In(loc).Format(time.DateOnly) != q.Day {
		return false
	}
	if q.Department != "" && o.Department != q.Department {
		return false
	}
	switch q.View {
	case ViewPickerBoard:
		return matches(o.PickerID, q.WorkerID)
	case ViewUnassigned:
		return o.Status == order.StatusUnassigned
	case ViewAvailableToCheck:
		return o.Status == order.StatusPicked && !o.NeedsSecondChecker
	case ViewNeedsSecondChecker:
		return o.Status == order.StatusChecking && o.NeedsSecondChecker &&
			o.Checker2ID == nil && o.CheckerID != nil && *o.CheckerID != q.WorkerID
	case ViewMineAsChecker:
		return o.Status == order.StatusChecking && matches(o.CheckerID, q.WorkerID)
	case ViewMineAsSecond:
		return o.Status == order.StatusChecking && matches(o.Checker2ID, q.WorkerID)
	case ViewDone:
		return o.Status == order.StatusDone &&
			(matches(o.CheckerID, q.WorkerID) || matches(o.Checker2ID, q.WorkerID))
	}
	return false
}

// Less is the view's sort order. Ties fall back to id.
func (v View) Less(a, b *order.Order) bool {
	switch v {
	case ViewPickerBoard:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	case ViewAvailableToCheck, ViewNeedsSecondChecker:
		if c := compareTimes(a.PickerEnd, b.PickerEnd); c != 0 {
			return c < 0
		}
	case ViewDone:
		// CheckEnd, not checker_end alone: an order closed by the second
		// checker has no checker_end and would otherwise sort last.
		if c := compareTimes(a.CheckEnd(), b.CheckEnd()); c != 0 {
			return c > 0
		}
		return a.ID > b.ID
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}

// compareTimes orders nil after every set time.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
