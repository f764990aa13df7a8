// Package keepalive periodically pings the service's own health endpoint so
// that free-tier hosts do not put it to sleep.
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/logger"
	"go.uber.org/zap"
)

type HealthClient interface {
	Ping(ctx context.Context) (int, error)
}

type HTTPHealthClient struct {
	Client  *http.Client
	BaseURL string
}

func (c *HTTPHealthClient) Ping(ctx context.Context) (int, error) {
	url := strings.TrimRight(c.BaseURL, "/") + "/api/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func pingOnce(ctx context.Context, client HealthClient) {
	code, err := client.Ping(ctx)
	if err != nil {
		logger.Log.Warn("[keepalive] пинг не удался", zap.Error(err))
		return
	}
	if code != http.StatusOK {
		logger.Log.Warn("[keepalive] неожиданный статус", zap.Int("status", code))
		return
	}
	logger.Log.Debug("[keepalive] ok", zap.Int("status", code))
}

// Loop pings every interval until ctx is done.
func Loop(ctx context.Context, client HealthClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Log.Info("[keepalive] стартовал", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("[keepalive] останов по сигналу контекста")
			return
		case <-ticker.C:
			pingOnce(ctx, client)
		}
	}
}
