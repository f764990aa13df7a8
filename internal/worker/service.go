package worker

import (
	"context"
	"strings"

	"github.com/antonminaichev/warehouse-orders/internal/logger"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
	"go.uber.org/zap"
)

// Service manages one directory: pickers or checkers.
type Service struct {
	repo WorkerRepository
	role worker.Role
}

func NewService(repo WorkerRepository, role worker.Role) *Service {
	return &Service{repo: repo, role: role}
}

func (s *Service) Role() worker.Role { return s.role }

// List returns active workers of a department ordered by name. Pickers must
// name a department; checkers fall back to machinery.
func (s *Service) List(ctx context.Context, department string) ([]worker.Worker, error) {
	if department == "" {
		if s.role == worker.RolePicker {
			return nil, order.Invalid("department", "is required")
		}
		department = string(order.DepartmentMachinery)
	}
	dept, err := order.ParseDepartment(department)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListWorkers(ctx, s.role, dept)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []worker.Worker{}
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, req worker.CreateRequest) (*worker.Worker, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, order.Invalid("name", "is required")
	}
	if !order.Department(req.Department).Valid() {
		return nil, order.Invalid("department", "must be machinery or assembly")
	}
	w := &worker.Worker{Name: name, Department: req.Department}
	if err := s.repo.CreateWorker(ctx, s.role, w); err != nil {
		return nil, err
	}
	logger.Log.Info("worker added",
		zap.String("role", string(s.role)),
		zap.Int64("id", w.ID),
		zap.String("department", w.Department),
	)
	return w, nil
}

// Deactivate hides the worker from directory listings. Orders keep referring to it.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return order.Invalid("id", "must be a positive integer")
	}
	return s.repo.DeactivateWorker(ctx, s.role, id)
}
