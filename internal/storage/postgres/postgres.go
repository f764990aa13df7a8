package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/lifecycle"
	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/types/admin"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
	"github.com/jackc/pgx/v5/pgconn"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// foreign_key_violation: ссылка на несуществующего работника.
const codeForeignKeyViolation = "23503"

type PostgresStorage struct {
	db *sql.DB
	tz string
}

var _ storage.Storage = (*PostgresStorage)(nil)

// NewPostgresStorage открывает пул и создаёт схему. Дни в дашбордах и
// выгрузках считаются в зоне loc.
func NewPostgresStorage(dsn string, loc *time.Location) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &PostgresStorage{db: db, tz: loc.String()}

	// проверяем, что БД жива
	if err := s.db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	// создаём таблицы
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pickers (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            department TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS checkers (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            department TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS admins (
            id BIGSERIAL PRIMARY KEY,
            username TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            so_number TEXT NOT NULL,
            size TEXT NOT NULL CHECK (size IN ('S','M','L')),
            delivery_type TEXT NOT NULL CHECK (delivery_type IN ('Giving','Transport','Pronto')),
            department TEXT NOT NULL CHECK (department IN ('machinery','assembly')),
            status TEXT NOT NULL DEFAULT 'UNASSIGNED'
                CHECK (status IN ('UNASSIGNED','ASSIGNED','PICKING','PICKED','CHECKING','DONE')),
            picker_id BIGINT REFERENCES pickers(id),
            checker_id BIGINT REFERENCES checkers(id),
            checker2_id BIGINT REFERENCES checkers(id),
            needs_second_checker BOOLEAN NOT NULL DEFAULT FALSE,
            picker_start TIMESTAMPTZ,
            picker_end TIMESTAMPTZ,
            idle_start TIMESTAMPTZ,
            idle_end TIMESTAMPTZ,
            checker_start TIMESTAMPTZ,
            checker_end TIMESTAMPTZ,
            checker2_start TIMESTAMPTZ,
            checker2_end TIMESTAMPTZ,
            approved BOOLEAN NOT NULL DEFAULT FALSE,
            approved_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS orders_status_created_idx ON orders (status, created_at)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// wrap превращает ошибку драйвера в *storage.Error.
func wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return &storage.Error{Op: op, Err: err}
	}
	switch pgErr.Code {
	case codeForeignKeyViolation:
		return &storage.Error{Op: op, Code: pgErr.Code, Err: fmt.Errorf("%w: %s", storage.NotFound(referencedWorker(pgErr), nil), pgErr.Detail)}
	default:
		return &storage.Error{Op: op, Code: pgErr.Code, Err: err}
	}
}

// referencedWorker называет справочник по имени нарушенного внешнего ключа.
func referencedWorker(pgErr *pgconn.PgError) string {
	switch {
	case strings.Contains(pgErr.ConstraintName, "picker"):
		return string(worker.RolePicker)
	case strings.Contains(pgErr.ConstraintName, "checker"):
		return string(worker.RoleChecker)
	}
	return "worker"
}

const orderColumns = `o.id, o.so_number, o.size, o.delivery_type, o.department, o.status,
       o.picker_id, o.checker_id, o.checker2_id, o.needs_second_checker,
       o.picker_start, o.picker_end, o.idle_start, o.idle_end,
       o.checker_start, o.checker_end, o.checker2_start, o.checker2_end,
       o.approved, o.approved_at, o.created_at, o.updated_at`

const rowSelect = `SELECT ` + orderColumns + `, p.name, c.name, c2.name
FROM orders o
LEFT JOIN pickers p ON p.id = o.picker_id
LEFT JOIN checkers c ON c.id = o.checker_id
LEFT JOIN checkers c2 ON c2.id = o.checker2_id`

type scanner interface {
	Scan(dest ...any) error
}

func orderDest(o *order.Order) []any {
	return []any{
		&o.ID, &o.SONumber, &o.Size, &o.DeliveryType, &o.Department, &o.Status,
		&o.PickerID, &o.CheckerID, &o.Checker2ID, &o.NeedsSecondChecker,
		&o.PickerStart, &o.PickerEnd, &o.IdleStart, &o.IdleEnd,
		&o.CheckerStart, &o.CheckerEnd, &o.Checker2Start, &o.Checker2End,
		&o.Approved, &o.ApprovedAt, &o.CreatedAt, &o.UpdatedAt,
	}
}

func scanRow(sc scanner) (order.Row, error) {
	var r order.Row
	dest := append(orderDest(&r.Order), &r.PickerName, &r.CheckerName, &r.Checker2Name)
	err := sc.Scan(dest...)
	return r, err
}

func (s *PostgresStorage) queryRows(ctx context.Context, op, q string, args ...any) ([]order.Row, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []order.Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (s *PostgresStorage) CreateOrder(ctx context.Context, o *order.Order) error {
	q := `
        INSERT INTO orders (so_number, size, delivery_type, department, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`
	err := s.db.QueryRowContext(ctx, q,
		o.SONumber, string(o.Size), string(o.DeliveryType), string(o.Department), string(o.Status), o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return wrap("create order", err)
	}
	return nil
}

func (s *PostgresStorage) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	q := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	err := s.db.QueryRowContext(ctx, q, id).Scan(orderDest(&o)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("order", id)
	}
	if err != nil {
		return nil, wrap("get order", err)
	}
	return &o, nil
}

// ApplyTransition выполняет переход одним условным UPDATE/DELETE. Если
// ни одна строка не подошла, отдельным запросом отличаем «нет заказа» от
// «guard не выполнен».
func (s *PostgresStorage) ApplyTransition(ctx context.Context, id int64, t lifecycle.Transition, actor int64, now time.Time) (*order.Order, error) {
	q, args := compileTransition(id, t, actor, now)
	var o order.Order
	err := s.db.QueryRowContext(ctx, q, args...).Scan(orderDest(&o)...)
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrap(string(t.Action), err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, wrap(string(t.Action), err)
	}
	if !exists {
		return nil, storage.NotFound("order", id)
	}
	return nil, storage.ErrNoMatch
}

// argList нумерует параметры запроса. Каждое значение добавляется не больше
// одного раза, чтобы Postgres мог вывести тип каждого $n.
type argList struct {
	vals  []any
	named map[string]string
}

func (a *argList) add(v any) string {
	a.vals = append(a.vals, v)
	return "$" + strconv.Itoa(len(a.vals))
}

func (a *argList) once(key string, v any) string {
	if ref, ok := a.named[key]; ok {
		return ref
	}
	if a.named == nil {
		a.named = make(map[string]string)
	}
	ref := a.add(v)
	a.named[key] = ref
	return ref
}

func compileTransition(id int64, t lifecycle.Transition, actor int64, now time.Time) (string, []any) {
	var a argList
	actorRef := func() string { return a.once("actor", actor) }
	nowRef := func() string { return a.once("now", now) }

	where := []string{"o.id = " + a.add(id)}
	from := make([]string, 0, len(t.Guard.From))
	for _, st := range t.Guard.From {
		from = append(from, a.add(string(st)))
	}
	where = append(where, "o.status IN ("+strings.Join(from, ", ")+")")
	switch t.Guard.Actor {
	case lifecycle.BindPicker:
		where = append(where, "o.picker_id = "+actorRef())
	case lifecycle.BindChecker:
		where = append(where, "o.checker_id = "+actorRef())
	case lifecycle.BindSecondChecker:
		where = append(where, "o.checker2_id = "+actorRef())
	case lifecycle.BindNotChecker:
		where = append(where, "o.checker_id IS NOT NULL", "o.checker_id <> "+actorRef())
	}
	if t.Guard.NeedsSecond {
		where = append(where, "o.needs_second_checker")
	}
	if t.Guard.SecondFree {
		where = append(where, "o.checker2_id IS NULL")
	}
	if t.Guard.Unapproved {
		where = append(where, "NOT o.approved")
	}

	if t.Deletes {
		return "DELETE FROM orders o WHERE " + strings.Join(where, " AND ") +
			" RETURNING " + orderColumns, a.vals
	}

	set := make([]string, 0, len(t.Effects)+2)
	for _, e := range t.Effects {
		var v string
		switch e.Kind {
		case lifecycle.SetActor:
			v = actorRef()
		case lifecycle.SetNow:
			v = nowRef()
		case lifecycle.SetTrue:
			v = "TRUE"
		case lifecycle.SetFalse:
			v = "FALSE"
		}
		set = append(set, string(e.Column)+" = "+v)
	}
	if t.To != "" {
		set = append(set, "status = "+a.add(string(t.To)))
	}
	set = append(set, "updated_at = "+nowRef())

	return "UPDATE orders o SET " + strings.Join(set, ", ") +
		" WHERE " + strings.Join(where, " AND ") +
		" RETURNING " + orderColumns, a.vals
}

func (s *PostgresStorage) ListOrders(ctx context.Context, dept order.Department) ([]order.Row, error) {
	var a argList
	q := rowSelect
	if dept != "" {
		q += " WHERE o.department = " + a.add(string(dept))
	}
	q += " ORDER BY o.created_at DESC, o.id DESC"
	return s.queryRows(ctx, "list orders", q, a.vals...)
}

func (s *PostgresStorage) ListView(ctx context.Context, q lifecycle.ViewQuery) ([]order.Row, error) {
	query, args, err := compileView(q, s.tz)
	if err != nil {
		return nil, err
	}
	return s.queryRows(ctx, string(q.View), query, args...)
}

// sameDay сравнивает дату создания в зоне tz с днём YYYY-MM-DD.
func sameDay(a *argList, tz, day string) string {
	return "(o.created_at AT TIME ZONE " + a.add(tz) + ")::date = " + a.add(day) + "::date"
}

func compileView(q lifecycle.ViewQuery, tz string) (string, []any, error) {
	var a argList
	var where []string
	if q.Day != "" {
		where = append(where, sameDay(&a, tz, q.Day))
	}
	if q.Department != "" {
		where = append(where, "o.department = "+a.add(string(q.Department)))
	}
	status := func(st order.OrderStatus) string { return "o.status = " + a.add(string(st)) }
	workerRef := func() string { return a.once("worker", q.WorkerID) }

	var orderBy string
	switch q.View {
	case lifecycle.ViewPickerBoard:
		where = append(where, "o.picker_id = "+workerRef())
		orderBy = "o.created_at DESC, o.id DESC"
	case lifecycle.ViewUnassigned:
		where = append(where, status(order.StatusUnassigned))
		orderBy = "o.created_at, o.id"
	case lifecycle.ViewAvailableToCheck:
		where = append(where, status(order.StatusPicked), "NOT o.needs_second_checker")
		orderBy = "o.picker_end, o.id"
	case lifecycle.ViewNeedsSecondChecker:
		where = append(where, status(order.StatusChecking), "o.needs_second_checker",
			"o.checker2_id IS NULL", "o.checker_id <> "+workerRef())
		orderBy = "o.picker_end, o.id"
	case lifecycle.ViewMineAsChecker:
		where = append(where, status(order.StatusChecking), "o.checker_id = "+workerRef())
		orderBy = "o.created_at, o.id"
	case lifecycle.ViewMineAsSecond:
		where = append(where, status(order.StatusChecking), "o.checker2_id = "+workerRef())
		orderBy = "o.created_at, o.id"
	case lifecycle.ViewDone:
		where = append(where, status(order.StatusDone))
		w := workerRef()
		where = append(where, "(o.checker_id = "+w+" OR o.checker2_id = "+w+")")
		// Сортируем по фактическому окончанию проверки (позднему из двух проверяющих),
		// а не только по checker_end: заказ, закрытый вторым проверяющим, не уходит в конец.
		orderBy = "GREATEST(o.checker_end, o.checker2_end) DESC, o.id DESC"
	default:
		return "", nil, fmt.Errorf("unknown view %q", q.View)
	}

	return rowSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY " + orderBy, a.vals, nil
}

func (s *PostgresStorage) ListForExport(ctx context.Context, q storage.ExportQuery) ([]order.Row, error) {
	query, args := compileExport(q, s.tz)
	return s.queryRows(ctx, "export", query, args...)
}

func compileExport(q storage.ExportQuery, tz string) (string, []any) {
	var a argList
	where := []string{sameDay(&a, tz, q.Day)}
	if q.Department != "" {
		where = append(where, "o.department = "+a.add(string(q.Department)))
	}
	orderBy := "o.created_at, o.id"
	if q.ApprovedOnly {
		where = append(where, "o.approved")
		orderBy = "o.approved_at, o.created_at, o.id"
	}
	return rowSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY " + orderBy, a.vals
}

func workerTable(role worker.Role) (string, error) {
	switch role {
	case worker.RolePicker:
		return "pickers", nil
	case worker.RoleChecker:
		return "checkers", nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

func (s *PostgresStorage) CreateWorker(ctx context.Context, role worker.Role, w *worker.Worker) error {
	table, err := workerTable(role)
	if err != nil {
		return err
	}
	q := `INSERT INTO ` + table + ` (name, department) VALUES ($1,$2) RETURNING id, active, created_at`
	if err := s.db.QueryRowContext(ctx, q, w.Name, w.Department).Scan(&w.ID, &w.Active, &w.CreatedAt); err != nil {
		return wrap("create "+string(role), err)
	}
	return nil
}

func (s *PostgresStorage) GetWorker(ctx context.Context, role worker.Role, id int64) (*worker.Worker, error) {
	table, err := workerTable(role)
	if err != nil {
		return nil, err
	}
	var w worker.Worker
	q := `SELECT id, name, department, active, created_at FROM ` + table + ` WHERE id = $1`
	err = s.db.QueryRowContext(ctx, q, id).Scan(&w.ID, &w.Name, &w.Department, &w.Active, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound(string(role), id)
	}
	if err != nil {
		return nil, wrap("get "+string(role), err)
	}
	return &w, nil
}

func (s *PostgresStorage) ListWorkers(ctx context.Context, role worker.Role, dept order.Department) ([]worker.Worker, error) {
	table, err := workerTable(role)
	if err != nil {
		return nil, err
	}
	q := `
        SELECT id, name, department, active, created_at
        FROM ` + table + `
        WHERE active AND department = $1
        ORDER BY name, id`
	rows, err := s.db.QueryContext(ctx, q, string(dept))
	if err != nil {
		return nil, wrap("list "+string(role), err)
	}
	defer rows.Close()

	var out []worker.Worker
	for rows.Next() {
		var w worker.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Department, &w.Active, &w.CreatedAt); err != nil {
			return nil, wrap("list "+string(role), err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list "+string(role), err)
	}
	return out, nil
}

func (s *PostgresStorage) DeactivateWorker(ctx context.Context, role worker.Role, id int64) error {
	table, err := workerTable(role)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return wrap("deactivate "+string(role), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("deactivate "+string(role), err)
	}
	if n == 0 {
		return storage.NotFound(string(role), id)
	}
	return nil
}

func (s *PostgresStorage) FindAdmin(ctx context.Context, username string) (*admin.Admin, error) {
	a := &admin.Admin{}
	q := `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`
	err := s.db.QueryRowContext(ctx, q, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("admin", username)
	}
	if err != nil {
		return nil, wrap("find admin", err)
	}
	return a, nil
}

func (s *PostgresStorage) UpsertAdmin(ctx context.Context, a *admin.Admin) error {
	q := `
        INSERT INTO admins (username, password_hash, created_at)
        VALUES ($1,$2,$3)
        ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
        RETURNING id, created_at`
	if err := s.db.QueryRowContext(ctx, q, a.Username, a.PasswordHash, a.CreatedAt).Scan(&a.ID, &a.CreatedAt); err != nil {
		return wrap("upsert admin", err)
	}
	return nil
}
