package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/events"
	"github.com/antonminaichev/warehouse-orders/internal/lifecycle"
	"github.com/antonminaichev/warehouse-orders/internal/logger"
	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
	"go.uber.org/zap"
)

// Service is the order lifecycle manager. Every transition is a single
// conditional write in the store; the service never locks on its own.
type Service struct {
	repo    OrderRepository
	workers WorkerDirectory
	pub     events.Publisher
	loc     *time.Location
	now     func() time.Time
}

func NewService(r OrderRepository, workers WorkerDirectory, pub events.Publisher, loc *time.Location) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:    r,
		workers: workers,
		pub:     pub,
		loc:     loc,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type CreateRequest struct {
	SONumber     string             `json:"so_number"`
	Size         order.Size         `json:"size"`
	DeliveryType order.DeliveryType `json:"delivery_type"`
	Department   order.Department   `json:"department"`
}

func (req CreateRequest) validate() error {
	switch {
	case strings.TrimSpace(req.SONumber) == "":
		return order.Invalid("so_number", "is required")
	case !req.Size.Valid():
		return order.Invalid("size", "must be S, M or L")
	case !req.DeliveryType.Valid():
		return order.Invalid("delivery_type", "must be Giving, Transport or Pronto")
	case !req.Department.Valid():
		return order.Invalid("department", "must be machinery or assembly")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*order.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	now := s.now()
	o := &order.Order{
		SONumber:     strings.TrimSpace(req.SONumber),
		Size:         req.Size,
		DeliveryType: req.DeliveryType,
		Department:   req.Department,
		Status:       order.StatusUnassigned,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// transition applies action a as one compare-and-swap in the store and
// publishes the status change once it is committed.
func (s *Service) transition(ctx context.Context, id int64, a lifecycle.Action, actor int64) (*order.Order, error) {
	t, err := lifecycle.Lookup(a)
	if err != nil {
		return nil, err
	}
	now := s.now()
	o, err := s.repo.ApplyTransition(ctx, id, t, actor, now)
	if errors.Is(err, storage.ErrNoMatch) {
		return nil, t.Failed()
	}
	if err != nil {
		return nil, err
	}

	logger.Log.Debug("order transition",
		zap.Int64("order_id", o.ID),
		zap.String("action", string(a)),
		zap.String("status", string(o.Status)),
		zap.Int64("actor_id", actor),
	)
	if err := s.pub.Publish(ctx, events.NewStatusChanged(o, string(a), actor, now)); err != nil {
		logger.Log.Warn("publish status change",
			zap.Int64("order_id", o.ID),
			zap.String("action", string(a)),
			zap.Error(err),
		)
	}
	return o, nil
}

func requireID(field string, id int64) error {
	if id <= 0 {
		return order.Invalid(field, "is required")
	}
	return nil
}

// Assign sets or replaces the picker while picking has not started.
func (s *Service) Assign(ctx context.Context, id, pickerID int64) (*order.Order, error) {
	if err := requireID("picker_id", pickerID); err != nil {
		return nil, err
	}
	p, err := s.workers.GetWorker(ctx, worker.RolePicker, pickerID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, storage.NotFound(string(worker.RolePicker), pickerID)
	}
	return s.transition(ctx, id, lifecycle.ActionAssign, pickerID)
}

func (s *Service) StartPicking(ctx context.Context, id, pickerID int64) (*order.Order, error) {
	if err := requireID("picker_id", pickerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, lifecycle.ActionStartPicking, pickerID)
}

func (s *Service) EndPicking(ctx context.Context, id, pickerID int64) (*order.Order, error) {
	if err := requireID("picker_id", pickerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, lifecycle.ActionEndPicking, pickerID)
}

func (s *Service) StartChecking(ctx context.Context, id, checkerID int64) (*order.Order, error) {
	if err := requireID("checker_id", checkerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, lifecycle.ActionStartChecking, checkerID)
}

func (s *Service) StartCheckingWithSecond(ctx context.Context, id, checkerID int64) (*order.Order, error) {
	if err := requireID("checker_id", checkerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, lifecycle.ActionStartCheckingWithSecond, checkerID)
}

// JoinAsSecond reads the order first to give a precise reason for the
// common refusals. The read may be stale; the guarded write is what decides.
func (s *Service) JoinAsSecond(ctx context.Context, id, checkerID int64) (*order.Order, error) {
	if err := requireID("checker_id", checkerID); err != nil {
		return nil, err
	}
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case o.Status != order.StatusChecking:
		return nil, lifecycle.Precondition(lifecycle.ActionJoinAsSecond, "order is not currently being checked")
	case !o.NeedsSecondChecker:
		return nil, lifecycle.Precondition(lifecycle.ActionJoinAsSecond, "order does not need a second checker")
	case o.CheckerID != nil && *o.CheckerID == checkerID:
		return nil, lifecycle.Precondition(lifecycle.ActionJoinAsSecond, "you are already the first checker on this order")
	}
	return s.transition(ctx, id, lifecycle.ActionJoinAsSecond, checkerID)
}

func (s *Service) EndChecking(ctx context.Context, id, checkerID int64) (*order.Order, error) {
	if err := requireID("checker_id", checkerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, lifecycle.ActionEndChecking, checkerID)
}

func (s *Service) EndCheckingAsSecond(ctx context.Context, id, checkerID int64) (*order.Order, error) {
	if err := requireID("checker_id", checkerID); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, lifecycle.ActionEndCheckingAsSecond, checkerID)
}

func (s *Service) Approve(ctx context.Context, id int64) (*order.Order, error) {
	return s.transition(ctx, id, lifecycle.ActionApprove, 0)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.transition(ctx, id, lifecycle.ActionDelete, 0)
	return err
}

// Listed is an order row with its durations rendered as HH:MM:SS.
type Listed struct {
	order.Row
	PickingTime  string `json:"picking_time"`
	IdleTime     string `json:"idle_time"`
	CheckingTime string `json:"checking_time"`
	TotalTime    string `json:"total_time"`
}

func listed(r order.Row) Listed {
	return Listed{
		Row:          r,
		PickingTime:  order.Clock(r.PickingDuration()),
		IdleTime:     order.Clock(r.IdleDuration()),
		CheckingTime: order.Clock(r.CheckingDuration()),
		TotalTime:    order.Clock(r.TotalDuration()),
	}
}

// List returns every order, newest first, optionally for one department.
func (s *Service) List(ctx context.Context, dept order.Department) ([]Listed, error) {
	rows, err := s.repo.ListOrders(ctx, dept)
	if err != nil {
		return nil, err
	}
	out := make([]Listed, 0, len(rows))
	for _, r := range rows {
		out = append(out, listed(r))
	}
	return out, nil
}

// Unassigned lists orders still waiting for a picker, oldest first.
func (s *Service) Unassigned(ctx context.Context, dept order.Department) ([]order.Row, error) {
	return s.view(ctx, lifecycle.ViewQuery{View: lifecycle.ViewUnassigned, Department: dept})
}

func (s *Service) view(ctx context.Context, q lifecycle.ViewQuery) ([]order.Row, error) {
	rows, err := s.repo.ListView(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []order.Row{}
	}
	return rows, nil
}

// today is the current date in the service's time zone.
func (s *Service) today() string {
	return s.now().In(s.loc).Format(time.DateOnly)
}
