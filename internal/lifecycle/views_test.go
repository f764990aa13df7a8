package lifecycle

import (
	"sort"
	"testing"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/stretchr/testify/assert"
)

func TestViewMatch(t *testing.T) {
	today := t0.Format(time.DateOnly)
	yesterday := t0.Add(-24 * time.Hour)

	tests := []struct {
		name  string
		q     ViewQuery
		o     order.Order
		match bool
	}{
		{"picker board own", ViewQuery{View: ViewPickerBoard, WorkerID: 1, Day: today},
			order.Order{PickerID: id(1), Status: order.StatusPicking, CreatedAt: t0}, true},
		{"picker board other picker", ViewQuery{View: ViewPickerBoard, WorkerID: 2, Day: today},
			order.Order{PickerID: id(1), CreatedAt: t0}, false},
		{"available to check", ViewQuery{View: ViewAvailableToCheck, WorkerID: 10, Day: today},
			order.Order{Status: order.StatusPicked, CreatedAt: t0}, true},
		{"available to check created yesterday", ViewQuery{View: ViewAvailableToCheck, WorkerID: 10, Day: today},
			order.Order{Status: order.StatusPicked, CreatedAt: yesterday}, false},
		{"available to check already flagged", ViewQuery{View: ViewAvailableToCheck, Day: today},
			order.Order{Status: order.StatusPicked, NeedsSecondChecker: true, CreatedAt: t0}, false},
		{"needs second", ViewQuery{View: ViewNeedsSecondChecker, WorkerID: 20, Day: today},
			order.Order{Status: order.StatusChecking, NeedsSecondChecker: true, CheckerID: id(10), CreatedAt: t0}, true},
		{"needs second hidden from first checker", ViewQuery{View: ViewNeedsSecondChecker, WorkerID: 10, Day: today},
			order.Order{Status: order.StatusChecking, NeedsSecondChecker: true, CheckerID: id(10), CreatedAt: t0}, false},
		{"needs second already joined", ViewQuery{View: ViewNeedsSecondChecker, WorkerID: 30, Day: today},
			order.Order{Status: order.StatusChecking, NeedsSecondChecker: true, CheckerID: id(10), Checker2ID: id(20), CreatedAt: t0}, false},
		{"mine as checker", ViewQuery{View: ViewMineAsChecker, WorkerID: 10, Day: today},
			order.Order{Status: order.StatusChecking, CheckerID: id(10), CreatedAt: t0}, true},
		{"mine as second", ViewQuery{View: ViewMineAsSecond, WorkerID: 20, Day: today},
			order.Order{Status: order.StatusChecking, CheckerID: id(10), Checker2ID: id(20), CreatedAt: t0}, true},
		{"done by second", ViewQuery{View: ViewDone, WorkerID: 20, Day: today},
			order.Order{Status: order.StatusDone, CheckerID: id(10), Checker2ID: id(20), CreatedAt: t0}, true},
		{"done not mine", ViewQuery{View: ViewDone, WorkerID: 30, Day: today},
			order.Order{Status: order.StatusDone, CheckerID: id(10), CreatedAt: t0}, false},
		{"unassigned any day", ViewQuery{View: ViewUnassigned},
			order.Order{Status: order.StatusUnassigned, CreatedAt: yesterday}, true},
		{"unassigned other department", ViewQuery{View: ViewUnassigned, Department: order.DepartmentAssembly},
			order.Order{Status: order.StatusUnassigned, Department: order.DepartmentMachinery}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.q.Match(&tt.o, time.UTC))
		})
	}
}

func TestViewDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 21:00 UTC on the 15th is already the 16th at UTC+5
	late := order.Order{Status: order.StatusUnassigned, CreatedAt: time.Date(2026, 10, 15, 21, 0, 0, 0, time.UTC)}
	q := ViewQuery{View: ViewUnassigned, Day: "2026-10-16"}

	assert.True(t, q.Match(&late, loc))
	assert.False(t, q.Match(&late, time.UTC))
}

func TestViewOrdering(t *testing.T) {
	at := func(m int) *time.Time { v := t0.Add(time.Duration(m) * time.Minute); return &v }

	orders := []*order.Order{
		{ID: 1, PickerEnd: at(30)},
		{ID: 2, PickerEnd: at(10)},
		{ID: 3, PickerEnd: at(20)},
	}
	sort.Slice(orders, func(i, j int) bool { return ViewAvailableToCheck.Less(orders[i], orders[j]) })
	assert.Equal(t, []int64{2, 3, 1}, ids(orders))

	done := []*order.Order{
		{ID: 1, CheckerEnd: at(10)},
		{ID: 2, Checker2End: at(40)},
		{ID: 3, CheckerEnd: at(20)},
	}
	sort.Slice(done, func(i, j int) bool { return ViewDone.Less(done[i], done[j]) })
	assert.Equal(t, []int64{2, 3, 1}, ids(done))

	board := []*order.Order{
		{ID: 1, CreatedAt: t0},
		{ID: 2, CreatedAt: t0.Add(time.Hour)},
	}
	sort.Slice(board, func(i, j int) bool { return ViewPickerBoard.Less(board[i], board[j]) })
	assert.Equal(t, []int64{2, 1}, ids(board))
}

func ids(os []*order.Order) []int64 {
	out := make([]int64, len(os))
	for i, o := range os {
		out[i] = o.ID
	}
	return out
}
