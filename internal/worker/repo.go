package worker

import (
	"context"

	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
)

type WorkerRepository interface {
	CreateWorker(ctx context.Context, role worker.Role, w *worker.Worker) error
	ListWorkers(ctx context.Context, role worker.Role, dept order.Department) ([]worker.Worker, error)
	DeactivateWorker(ctx context.Context, role worker.Role, id int64) error
}
