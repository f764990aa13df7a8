package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/lifecycle"
	"github.com/antonminaichev/warehouse-orders/internal/types/admin"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
)

var (
	// ErrNotFound: запрошенной строки нет.
	ErrNotFound = errors.New("not found")
	// ErrNoMatch: строка есть, но условие перехода для неё не выполнилось.
	ErrNoMatch = errors.New("transition guard did not match")
)

// NotFoundError называет отсутствующую сущность и удовлетворяет errors.Is(err, ErrNotFound).
type NotFoundError struct {
	Entity string
	Key    any
}

func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Key == nil {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Error оборачивает сбой хранилища. Code: SQLSTATE, если он известен.
type Error struct {
	Op   string
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storage: %s: %v (sqlstate %s)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ExportQuery выбирает заказы одного дня создания для выгрузки.
type ExportQuery struct {
	Day          string
	Department   order.Department
	ApprovedOnly bool
}

// OrderRepository отвечает за операции над заказами.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	// ApplyTransition атомарно проверяет guard и применяет эффекты перехода.
	// Возвращает ErrNotFound, если заказа нет, и ErrNoMatch, если guard не выполнен.
	ApplyTransition(ctx context.Context, id int64, t lifecycle.Transition, actor int64, now time.Time) (*order.Order, error)
	ListOrders(ctx context.Context, dept order.Department) ([]order.Row, error)
	ListView(ctx context.Context, q lifecycle.ViewQuery) ([]order.Row, error)
	ListForExport(ctx context.Context, q ExportQuery) ([]order.Row, error)
}

// WorkerRepository отвечает за справочник сборщиков и проверяющих.
type WorkerRepository interface {
	CreateWorker(ctx context.Context, role worker.Role, w *worker.Worker) error
	GetWorker(ctx context.Context, role worker.Role, id int64) (*worker.Worker, error)
	ListWorkers(ctx context.Context, role worker.Role, dept order.Department) ([]worker.Worker, error)
	DeactivateWorker(ctx context.Context, role worker.Role, id int64) error
}

// AdminRepository хранит учётные записи администраторов.
type AdminRepository interface {
	FindAdmin(ctx context.Context, username string) (*admin.Admin, error)
	UpsertAdmin(ctx context.Context, a *admin.Admin) error
}

// Storage объединяет все репозитории.
type Storage interface {
	OrderRepository
	WorkerRepository
	AdminRepository

	// Для управления соединением
	Ping(ctx context.Context) error
	Close() error
}
