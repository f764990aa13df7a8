package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/antonminaichev/warehouse-orders/internal/types/admin"
	"github.com/antonminaichev/warehouse-orders/internal/util/respond"
)

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func GzipHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") == "gzip" {
			gzr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(rw, "Failed to create gzip reader", http.StatusBadRequest)
				return
			}
			defer gzr.Close()
			r.Body = io.NopCloser(gzr)
		}

		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			rw.Header().Set("Content-Encoding", "gzip")
			rw.Header().Del("Content-Length")
			gzw := gzip.NewWriter(rw)
			defer gzw.Close()

			gzrw := gzipResponseWriter{Writer: gzw, ResponseWriter: rw}
			next.ServeHTTP(gzrw, r)
		} else {
			next.ServeHTTP(rw, r)
		}
	})
}

// CredentialVerifier resolves a bearer token to an admin.
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (*admin.Admin, error)
}

type ctxKeyAdmin struct{}

// AdminOnly rejects requests without a valid admin bearer token.
func AdminOnly(v CredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w)
				return
			}
			a, err := v.Verify(r.Context(), strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context(), a)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}

func AdminFromContext(ctx context.Context) (*admin.Admin, bool) {
	a, ok := ctx.Value(ctxKeyAdmin{}).(*admin.Admin)
	return a, ok
}

func ContextWithAdmin(ctx context.Context, a *admin.Admin) context.Context {
	return context.WithValue(ctx, ctxKeyAdmin{}, a)
}
