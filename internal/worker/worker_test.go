package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
	"github.com/go-chi/chi/v5"
)

type stubWorkerRepo struct {
	created   []worker.Worker
	listDept  order.Department
	listRole  worker.Role
	list      []worker.Worker
	removed   []int64
	errCreate error
	errList   error
	errRemove error
}

func (r *stubWorkerRepo) CreateWorker(ctx context.Context, role worker.Role, w *worker.Worker) error {
	if r.errCreate != nil {
		return r.errCreate
	}
	w.ID = int64(len(r.created) + 1)
	w.Active = true
	r.created = append(r.created, *w)
	return nil
}

func (r *stubWorkerRepo) ListWorkers(ctx context.Context, role worker.Role, dept order.Department) ([]worker.Worker, error) {
	if r.errList != nil {
		return nil, r.errList
	}
	r.listRole, r.listDept = role, dept
	return r.list, nil
}

func (r *stubWorkerRepo) DeactivateWorker(ctx context.Context, role worker.Role, id int64) error {
	if r.errRemove != nil {
		return r.errRemove
	}
	r.removed = append(r.removed, id)
	return nil
}

func TestListPickersRequiresDepartment(t *testing.T) {
	svc := NewService(&stubWorkerRepo{}, worker.RolePicker)

	_, err := svc.List(context.Background(), "")
	if !errors.Is(err, order.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "department is required" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestListCheckersDefaultsToMachinery(t *testing.T) {
	repo := &stubWorkerRepo{}
	svc := NewService(repo, worker.RoleChecker)

	list, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if repo.listDept != order.DepartmentMachinery {
		t.Errorf("expected machinery, got %q", repo.listDept)
	}
	if repo.listRole != worker.RoleChecker {
		t.Errorf("expected checker role, got %q", repo.listRole)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %v", list)
	}
}

func TestListRejectsUnknownDepartment(t *testing.T) {
	svc := NewService(&stubWorkerRepo{}, worker.RoleChecker)

	_, err := svc.List(context.Background(), "paint")
	if !errors.Is(err, order.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateWorker(t *testing.T) {
	tests := []struct {
		name    string
		req     worker.CreateRequest
		wantErr bool
	}{
		{"ok", worker.CreateRequest{Name: " Ann ", Department: "assembly"}, false},
		{"empty name", worker.CreateRequest{Name: "  ", Department: "assembly"}, true},
		{"bad department", worker.CreateRequest{Name: "Ann", Department: "paint"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubWorkerRepo{}
			svc := NewService(repo, worker.RolePicker)

			w, err := svc.Create(context.Background(), tt.req)
			if tt.wantErr {
				if !errors.Is(err, order.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if len(repo.created) != 0 {
					t.Errorf("repository must not be called")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if w.Name != "Ann" || w.ID != 1 {
				t.Errorf("unexpected worker %+v", w)
			}
		})
	}
}

func TestDeactivateWorker(t *testing.T) {
	repo := &stubWorkerRepo{}
	svc := NewService(repo, worker.RoleChecker)

	if err := svc.Deactivate(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if len(repo.removed) != 1 || repo.removed[0] != 7 {
		t.Errorf("unexpected removals %v", repo.removed)
	}

	repo.errRemove = storage.ErrNotFound
	if err := svc.Deactivate(context.Background(), 8); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func newTestRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
	return r
}

func TestHandlers(t *testing.T) {
	repo := &stubWorkerRepo{list: []worker.Worker{{ID: 3, Name: "Ann", Department: "assembly"}}}
	r := newTestRouter(NewHandler(NewService(repo, worker.RolePicker)))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"list", http.MethodGet, "/?department=assembly", "", http.StatusOK, `[{"id":3,"name":"Ann","department":"assembly"}]`},
		{"list without department", http.MethodGet, "/", "", http.StatusBadRequest, "department is required"},
		{"create", http.MethodPost, "/", `{"name":"Bob","department":"machinery"}`, http.StatusCreated, `"name":"Bob"`},
		{"create bad json", http.MethodPost, "/", `{"name":`, http.StatusBadRequest, ""},
		{"delete", http.MethodDelete, "/3", "", http.StatusOK, "Picker removed"},
		{"delete bad id", http.MethodDelete, "/x", "", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.want != "" && !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("expected body to contain %q, got %s", tt.want, rec.Body.String())
			}
		})
	}
}

func TestDeleteUnknownChecker(t *testing.T) {
	repo := &stubWorkerRepo{errRemove: storage.ErrNotFound}
	r := newTestRouter(NewHandler(NewService(repo, worker.RoleChecker)))

	req := httptest.NewRequest(http.MethodDelete, "/99", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
