package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"github.com/antonminaichev/warehouse-orders/internal/util/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, order.Invalid("body", "must be a JSON object"))
		return
	}
	token, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCreds) {
		respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	respond.JSON(w, http.StatusOK, loginResp{Token: token})
}
