package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/lifecycle"
	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/types/admin"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func mustLookup(t *testing.T, a lifecycle.Action) lifecycle.Transition {
	t.Helper()
	tr, err := lifecycle.Lookup(a)
	require.NoError(t, err)
	return tr
}

func TestCompileTransitionJoin(t *testing.T) {
	q, args := compileTransition(42, mustLookup(t, lifecycle.ActionJoinAsSecond), 7, now)

	assert.Equal(t,
		"UPDATE orders o SET checker2_id = $3, checker2_start = $4, updated_at = $4"+
			" WHERE o.id = $1 AND o.status IN ($2) AND o.checker_id IS NOT NULL AND o.checker_id <> $3"+
			" AND o.needs_second_checker AND o.checker2_id IS NULL"+
			" RETURNING "+orderColumns,
		q)
	assert.Equal(t, []any{int64(42), "CHECKING", int64(7), now}, args)
}

func TestCompileTransitionApproveSkipsActor(t *testing.T) {
	q, args := compileTransition(5, mustLookup(t, lifecycle.ActionApprove), 0, now)

	assert.Contains(t, q, "o.status IN ($2, $3)")
	assert.Contains(t, q, "NOT o.approved")
	assert.Contains(t, q, "approved = TRUE, approved_at = $4, updated_at = $4")
	assert.Equal(t, []any{int64(5), "PICKED", "DONE", now}, args)
}

func TestCompileTransitionStatusChange(t *testing.T) {
	q, args := compileTransition(1, mustLookup(t, lifecycle.ActionStartPicking), 3, now)

	assert.Contains(t, q, "o.picker_id = $3")
	assert.Contains(t, q, "picker_start = $4, status = $5, updated_at = $4")
	assert.Equal(t, []any{int64(1), "ASSIGNED", int64(3), now, "PICKING"}, args)
}

func TestCompileTransitionDelete(t *testing.T) {
	q, args := compileTransition(9, mustLookup(t, lifecycle.ActionDelete), 0, now)

	assert.Equal(t,
		"DELETE FROM orders o WHERE o.id = $1 AND o.status IN ($2, $3) RETURNING "+orderColumns,
		q)
	assert.Equal(t, []any{int64(9), "UNASSIGNED", "ASSIGNED"}, args)
}

func TestCompileView(t *testing.T) {
	tests := []struct {
		name    string
		q       lifecycle.ViewQuery
		where   string
		orderBy string
		args    []any
	}{
		{
			name:    "needs second checker",
			q:       lifecycle.ViewQuery{View: lifecycle.ViewNeedsSecondChecker, WorkerID: 4, Day: "2026-10-16"},
			where:   "(o.created_at AT TIME ZONE $1)::date = $2::date AND o.status = $3 AND o.needs_second_checker AND o.checker2_id IS NULL AND o.checker_id <> $4",
			orderBy: "o.picker_end, o.id",
			args:    []any{"Europe/Rome", "2026-10-16", "CHECKING", int64(4)},
		},
		{
			name:    "done uses worker once",
			q:       lifecycle.ViewQuery{View: lifecycle.ViewDone, WorkerID: 4, Day: "2026-10-16"},
			where:   "(o.created_at AT TIME ZONE $1)::date = $2::date AND o.status = $3 AND (o.checker_id = $4 OR o.checker2_id = $4)",
			orderBy: "GREATEST(o.checker_end, o.checker2_end) DESC, o.id DESC",
			args:    []any{"Europe/Rome", "2026-10-16", "DONE", int64(4)},
		},
		{
			name:    "unassigned by department without day",
			q:       lifecycle.ViewQuery{View: lifecycle.ViewUnassigned, Department: order.DepartmentAssembly},
			where:   "o.department = $1 AND o.status = $2",
			orderBy: "o.created_at, o.id",
			args:    []any{"assembly", "UNASSIGNED"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args, err := compileView(tt.q, "Europe/Rome")
			require.NoError(t, err)
			assert.Equal(t, rowSelect+" WHERE "+tt.where+" ORDER BY "+tt.orderBy, q)
			assert.Equal(t, tt.args, args)
		})
	}

	_, _, err := compileView(lifecycle.ViewQuery{View: "nope"}, "UTC")
	assert.Error(t, err)
}

func TestCompileExportApproved(t *testing.T) {
	q, args := compileExport(storage.ExportQuery{Day: "2026-10-16", ApprovedOnly: true}, "UTC")
	assert.Contains(t, q, "AND o.approved ORDER BY o.approved_at, o.created_at, o.id")
	assert.Equal(t, []any{"UTC", "2026-10-16"}, args)
}

// Интеграционные тесты ниже требуют живой Postgres.
func newTestStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}
	s, err := NewPostgresStorage(dsn, time.UTC)
	require.NoError(t, err)
	_, err = s.db.Exec(`TRUNCATE orders, pickers, checkers, admins RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Microsecond)

	p := &worker.Worker{Name: "Ann", Department: "machinery"}
	require.NoError(t, s.CreateWorker(ctx, worker.RolePicker, p))
	c := &worker.Worker{Name: "Bob", Department: "machinery"}
	require.NoError(t, s.CreateWorker(ctx, worker.RoleChecker, c))

	o := &order.Order{
		SONumber: "SO-1001", Size: order.SizeM, DeliveryType: order.DeliveryGiving,
		Department: order.DepartmentMachinery, Status: order.StatusUnassigned,
		CreatedAt: created, UpdatedAt: created,
	}
	require.NoError(t, s.CreateOrder(ctx, o))

	step := func(a lifecycle.Action, actor int64) *order.Order {
		got, err := s.ApplyTransition(ctx, o.ID, mustLookup(t, a), actor, time.Now().UTC())
		require.NoError(t, err, a)
		return got
	}
	step(lifecycle.ActionAssign, p.ID)
	step(lifecycle.ActionStartPicking, p.ID)
	step(lifecycle.ActionEndPicking, p.ID)

	_, err := s.ApplyTransition(ctx, o.ID, mustLookup(t, lifecycle.ActionEndChecking), c.ID, time.Now())
	assert.ErrorIs(t, err, storage.ErrNoMatch)

	step(lifecycle.ActionStartChecking, c.ID)
	done := step(lifecycle.ActionEndChecking, c.ID)
	assert.Equal(t, order.StatusDone, done.Status)
	assert.NotNil(t, done.TotalDuration())

	rows, err := s.ListView(ctx, lifecycle.ViewQuery{View: lifecycle.ViewDone, WorkerID: c.ID, Day: created.Format(time.DateOnly)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].PickerName)
	assert.Equal(t, "Ann", *rows[0].PickerName)

	_, err = s.ApplyTransition(ctx, 999999, mustLookup(t, lifecycle.ActionApprove), 0, time.Now())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostgresConcurrentStartChecking(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	o := &order.Order{
		SONumber: "SO-2", Size: order.SizeS, DeliveryType: order.DeliveryPronto,
		Department: order.DepartmentAssembly, Status: order.StatusUnassigned,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateOrder(ctx, o))
	p := &worker.Worker{Name: "P", Department: "assembly"}
	require.NoError(t, s.CreateWorker(ctx, worker.RolePicker, p))
	for _, a := range []lifecycle.Action{lifecycle.ActionAssign, lifecycle.ActionStartPicking, lifecycle.ActionEndPicking} {
		_, err := s.ApplyTransition(ctx, o.ID, mustLookup(t, a), p.ID, time.Now())
		require.NoError(t, err)
	}

	var checkers []int64
	for _, name := range []string{"C1", "C2", "C3", "C4"} {
		c := &worker.Worker{Name: name, Department: "assembly"}
		require.NoError(t, s.CreateWorker(ctx, worker.RoleChecker, c))
		checkers = append(checkers, c.ID)
	}

	start := mustLookup(t, lifecycle.ActionStartChecking)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, id := range checkers {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := s.ApplyTransition(ctx, o.ID, start, id, time.Now())
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, storage.ErrNoMatch)
		}(id)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestPostgresWorkersAndAdmins(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, name := range []string{"Zoe", "Adam"} {
		require.NoError(t, s.CreateWorker(ctx, worker.RoleChecker, &worker.Worker{Name: name, Department: "machinery"}))
	}
	list, err := s.ListWorkers(ctx, worker.RoleChecker, order.DepartmentMachinery)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Adam", list[0].Name)

	require.NoError(t, s.DeactivateWorker(ctx, worker.RoleChecker, list[0].ID))
	list, err = s.ListWorkers(ctx, worker.RoleChecker, order.DepartmentMachinery)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.ErrorIs(t, s.DeactivateWorker(ctx, worker.RoleChecker, 12345), storage.ErrNotFound)

	a := &admin.Admin{Username: "root", PasswordHash: "h1", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.UpsertAdmin(ctx, a))
	b := &admin.Admin{Username: "root", PasswordHash: "h2", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.UpsertAdmin(ctx, b))
	assert.Equal(t, a.ID, b.ID)

	got, err := s.FindAdmin(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	_, err = s.FindAdmin(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWrapForeignKeyNamesWorker(t *testing.T) {
	tests := []struct {
		constraint string
		entity     string
	}{
		{"orders_picker_id_fkey", "picker"},
		{"orders_checker2_id_fkey", "checker"},
		{"", "worker"},
	}
	for _, tt := range tests {
		err := wrap("start_checking", &pgconn.PgError{
			Code:           codeForeignKeyViolation,
			ConstraintName: tt.constraint,
			Detail:         "Key (checker_id)=(42) is not present",
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
		var nf *storage.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, tt.entity, nf.Entity)
	}
}
