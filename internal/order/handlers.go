package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/util/respond"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// AdminRoutes need an authenticated admin; the router mounts them behind the verifier.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/export", h.Export)
	r.Get("/approved", h.ApprovedExport)
	r.Get("/unassigned", h.Unassigned)
	r.Patch("/{id}/assign", h.Assign)
	r.Patch("/{id}/approve", h.Approve)
	r.Delete("/{id}", h.Delete)
}

// WorkerRoutes are the self-service transitions used from the floor tablets.
func (h *Handler) WorkerRoutes(r chi.Router) {
	r.Patch("/{id}/start-picking", h.actorStep("picker_id", h.svc.StartPicking))
	r.Patch("/{id}/end-picking", h.actorStep("picker_id", h.svc.EndPicking))
	r.Patch("/{id}/start-checking", h.actorStep("checker_id", h.svc.StartChecking))
	r.Patch("/{id}/start-checking-with-second", h.actorStep("checker_id", h.svc.StartCheckingWithSecond))
	r.Patch("/{id}/start-checking-2", h.actorStep("checker_id", h.svc.JoinAsSecond))
	r.Patch("/{id}/end-checking", h.actorStep("checker_id", h.svc.EndChecking))
	r.Patch("/{id}/end-checking-2", h.actorStep("checker_id", h.svc.EndCheckingAsSecond))
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, order.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

type actorReq struct {
	PickerID  int64 `json:"picker_id"`
	CheckerID int64 `json:"checker_id"`
}

func (a actorReq) id(field string) int64 {
	if field == "picker_id" {
		return a.PickerID
	}
	return a.CheckerID
}

func decodeActor(r *http.Request, field string) (int64, error) {
	var req actorReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, order.Invalid("body", "must be a JSON object with "+field)
	}
	return req.id(field), nil
}

type stepFunc func(ctx context.Context, id, actor int64) (*order.Order, error)

func (h *Handler) actorStep(field string, step stepFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderID(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		actor, err := decodeActor(r, field)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		o, err := step(r.Context(), id, actor)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, o)
	}
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	h.actorStep("picker_id", h.svc.Assign)(w, r)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, order.Invalid("body", "must be a JSON object"))
		return
	}
	o, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, o)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	o, err := h.svc.Approve(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, o)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Order deleted")
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	dept, err := order.ParseDepartment(r.URL.Query().Get("department"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	orders, err := h.svc.List(r.Context(), dept)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, orders)
}

func (h *Handler) Unassigned(w http.ResponseWriter, r *http.Request) {
	dept, err := order.ParseDepartment(r.URL.Query().Get("department"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	orders, err := h.svc.Unassigned(r.Context(), dept)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, orders)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.svc.Export)
}

func (h *Handler) ApprovedExport(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.svc.ApprovedExport)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, order.Department) ([]ExportRow, error)) {
	q := r.URL.Query()
	dept, err := order.ParseDepartment(q.Get("department"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	rows, err := fn(r.Context(), q.Get("date"), dept)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rows)
}

// PickerOrders serves the picker dashboard.
func (h *Handler) PickerOrders(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	board, err := h.svc.PickerBoard(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, board)
}

// CheckerOrders serves the checker dashboard.
func (h *Handler) CheckerOrders(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	board, err := h.svc.CheckerBoard(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, board)
}
