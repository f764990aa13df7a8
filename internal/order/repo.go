package order

import (
	"context"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/lifecycle"
	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	ApplyTransition(ctx context.Context, id int64, t lifecycle.Transition, actor int64, now time.Time) (*order.Order, error)
	ListOrders(ctx context.Context, dept order.Department) ([]order.Row, error)
	ListView(ctx context.Context, q lifecycle.ViewQuery) ([]order.Row, error)
	ListForExport(ctx context.Context, q storage.ExportQuery) ([]order.Row, error)
}

// WorkerDirectory resolves picker and checker ids.
type WorkerDirectory interface {
	GetWorker(ctx context.Context, role worker.Role, id int64) (*worker.Worker, error)
}
