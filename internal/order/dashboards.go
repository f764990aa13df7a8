package order

import (
	"context"

	"github.com/antonminaichev/warehouse-orders/internal/lifecycle"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
)

type PickerBoard struct {
	PickerName string      `json:"pickerName"`
	Orders     []order.Row `json:"orders"`
}

type CheckerBoard struct {
	CheckerName        string      `json:"checkerName"`
	AvailableOrders    []order.Row `json:"availableOrders"`
	NeedSecondChecker  []order.Row `json:"needSecondChecker"`
	MyOrders           []order.Row `json:"myOrders"`
	MyOrdersAsChecker2 []order.Row `json:"myOrdersAsChecker2"`
	DoneOrders         []order.Row `json:"doneOrders"`
}

// PickerBoard lists today's orders assigned to the picker, newest first.
func (s *Service) PickerBoard(ctx context.Context, pickerID int64) (*PickerBoard, error) {
	p, err := s.workers.GetWorker(ctx, worker.RolePicker, pickerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.view(ctx, lifecycle.ViewQuery{View: lifecycle.ViewPickerBoard, WorkerID: pickerID, Day: s.today()})
	if err != nil {
		return nil, err
	}
	return &PickerBoard{PickerName: p.Name, Orders: rows}, nil
}

// CheckerBoard bundles the five checker views for orders created today.
func (s *Service) CheckerBoard(ctx context.Context, checkerID int64) (*CheckerBoard, error) {
	c, err := s.workers.GetWorker(ctx, worker.RoleChecker, checkerID)
	if err != nil {
		return nil, err
	}
	day := s.today()
	board := &CheckerBoard{CheckerName: c.Name}
	for _, v := range []struct {
		view lifecycle.View
		dst  *[]order.Row
	}{
		{lifecycle.ViewAvailableToCheck, &board.AvailableOrders},
		{lifecycle.ViewNeedsSecondChecker, &board.NeedSecondChecker},
		{lifecycle.ViewMineAsChecker, &board.MyOrders},
		{lifecycle.ViewMineAsSecond, &board.MyOrdersAsChecker2},
		{lifecycle.ViewDone, &board.DoneOrders},
	} {
		rows, err := s.view(ctx, lifecycle.ViewQuery{View: v.view, WorkerID: checkerID, Day: day})
		if err != nil {
			return nil, err
		}
		*v.dst = rows
	}
	return board, nil
}
