// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/antonminaichev/warehouse-orders/internal/lifecycle"
	"github.com/antonminaichev/warehouse-orders/internal/logger"
	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/types/order"
	"go.uber.org/zap"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn("encode response", zap.Error(err))
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Status returns the HTTP status for err and the message safe to show.
func Status(err error) (int, string) {
	var (
		pe *lifecycle.PreconditionError
		nf *storage.NotFoundError
	)
	switch {
	case errors.As(err, &pe):
		return http.StatusBadRequest, pe.Reason
	case errors.Is(err, order.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Entity + " not found"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// Error writes {"error": ...}. Infrastructure failures are logged and hidden;
// not-found details stay in the debug log.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := Status(err)
	if status == http.StatusNotFound {
		logger.Log.Debug("not found",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err),
		)
	}
	if status == http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err),
		)
	}
	JSON(w, status, errorBody{Error: msg})
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}
