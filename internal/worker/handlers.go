package worker

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/types/worker"
	"github.com/antonminaichev/warehouse-orders/internal/util/respond"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req worker.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, order.Invalid("body", "must be a JSON object"))
		return
	}
	wk, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, wk)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, r, order.Invalid("id", "must be a positive integer"))
		return
	}
	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	msg := "Checker removed"
	if h.svc.Role() == worker.RolePicker {
		msg = "Picker removed"
	}
	respond.Message(w, http.StatusOK, msg)
}
