// Package memory is a process-local Storage used when no DATABASE_URI is
// configured and in tests. One mutex serializes every write, which gives the
// same first-writer-wins behaviour as the conditional UPDATE in Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/lifecycle"
	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/types/admin"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
)

type Storage struct {
	mu  sync.RWMutex
	loc *time.Location

	orders  map[int64]order.Order
	workers map[worker.Role]map[int64]worker.Worker
	admins  map[string]admin.Admin
	seq     map[string]int64
}

var _ storage.Storage = (*Storage)(nil)

func New(loc *time.Location) *Storage {
	if loc == nil {
		loc = time.UTC
	}
	return &Storage{
		loc:    loc,
		orders: make(map[int64]order.Order),
		workers: map[worker.Role]map[int64]worker.Worker{
			worker.RolePicker:  {},
			worker.RoleChecker: {},
		},
		admins: make(map[string]admin.Admin),
		seq:    make(map[string]int64),
	}
}

func (s *Storage) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Storage) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Storage) Close() error { return nil }

func (s *Storage) CreateOrder(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.next("orders")
	s.orders[o.ID] = *o
	return nil
}

func (s *Storage) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, storage.NotFound("order", id)
	}
	return &o, nil
}

func (s *Storage) ApplyTransition(ctx context.Context, id int64, t lifecycle.Transition, actor int64, now time.Time) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[id]
	if !ok {
		return nil, storage.NotFound("order", id)
	}
	// работаем с копией: при невыполненном guard строка не меняется
	next := cur
	if err := t.Apply(&next, actor, now); err != nil {
		return nil, storage.ErrNoMatch
	}
	if err := s.checkActor(t, actor); err != nil {
		return nil, err
	}
	if t.Deletes {
		delete(s.orders, id)
		return &cur, nil
	}
	s.orders[id] = next
	return &next, nil
}

// checkActor повторяет внешние ключи Postgres: работник, которого записывает
// переход, должен существовать (активность не проверяется).
func (s *Storage) checkActor(t lifecycle.Transition, actor int64) error {
	for _, e := range t.Effects {
		if e.Kind != lifecycle.SetActor {
			continue
		}
		role := worker.RoleChecker
		if e.Column == lifecycle.ColPickerID {
			role = worker.RolePicker
		}
		if _, ok := s.workers[role][actor]; !ok {
			return storage.NotFound(string(role), actor)
		}
	}
	return nil
}

func (s *Storage) ListOrders(ctx context.Context, dept order.Department) ([]order.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []order.Row
	for _, o := range s.orders {
		if dept != "" && o.Department != dept {
			continue
		}
		out = append(out, s.row(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Storage) ListView(ctx context.Context, q lifecycle.ViewQuery) ([]order.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []order.Row
	for _, o := range s.orders {
		if q.Match(&o, s.loc) {
			out = append(out, s.row(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return q.View.Less(&out[i].Order, &out[j].Order) })
	return out, nil
}

func (s *Storage) ListForExport(ctx context.Context, q storage.ExportQuery) ([]order.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []order.Row
	for _, o := range s.orders {
		if o.CreatedAt.In(s.loc).Format(time.DateOnly) != q.Day {
			continue
		}
		if q.Department != "" && o.Department != q.Department {
			continue
		}
		if q.ApprovedOnly && !o.Approved {
			continue
		}
		out = append(out, s.row(o))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.ApprovedOnly && a.ApprovedAt != nil && b.ApprovedAt != nil && !a.ApprovedAt.Equal(*b.ApprovedAt) {
			return a.ApprovedAt.Before(*b.ApprovedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// row joins worker names. Caller holds s.mu.
func (s *Storage) row(o order.Order) order.Row {
	return order.Row{
		Order:        o,
		PickerName:   s.name(worker.RolePicker, o.PickerID),
		CheckerName:  s.name(worker.RoleChecker, o.CheckerID),
		Checker2Name: s.name(worker.RoleChecker, o.Checker2ID),
	}
}

func (s *Storage) name(role worker.Role, id *int64) *string {
	if id == nil {
		return nil
	}
	w, ok := s.workers[role][*id]
	if !ok {
		return nil
	}
	n := w.Name
	return &n
}

func (s *Storage) CreateWorker(ctx context.Context, role worker.Role, w *worker.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, ok := s.workers[role]
	if !ok {
		return fmt.Errorf("unknown role %q", role)
	}
	w.ID = s.next(string(role))
	w.Active = true
	w.CreatedAt = time.Now().UTC()
	dir[w.ID] = *w
	return nil
}

func (s *Storage) GetWorker(ctx context.Context, role worker.Role, id int64) (*worker.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workers[role][id]
	if !ok {
		return nil, storage.NotFound(string(role), id)
	}
	return &w, nil
}

func (s *Storage) ListWorkers(ctx context.Context, role worker.Role, dept order.Department) ([]worker.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []worker.Worker
	for _, w := range s.workers[role] {
		if w.Active && w.Department == string(dept) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Storage) DeactivateWorker(ctx context.Context, role worker.Role, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[role][id]
	if !ok {
		return storage.NotFound(string(role), id)
	}
	w.Active = false
	s.workers[role][id] = w
	return nil
}

func (s *Storage) FindAdmin(ctx context.Context, username string) (*admin.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[username]
	if !ok {
		return nil, storage.NotFound("admin", username)
	}
	return &a, nil
}

func (s *Storage) UpsertAdmin(ctx context.Context, a *admin.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.admins[a.Username]; ok {
		a.ID = cur.ID
		a.CreatedAt = cur.CreatedAt
	} else {
		a.ID = s.next("admins")
	}
	s.admins[a.Username] = *a
	return nil
}
