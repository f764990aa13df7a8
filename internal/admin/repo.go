package admin

import (
	"context"

	"github.com/antonminaichev/warehouse-orders/internal/types/admin"
)

type AdminRepository interface {
	FindAdmin(ctx context.Context, username string) (*admin.Admin, error)
	UpsertAdmin(ctx context.Context, a *admin.Admin) error
}
