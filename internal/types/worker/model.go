package worker

import "time"

// Role selects which directory a worker lives in.
type Role string

const (
	RolePicker  Role = "picker"
	RoleChecker Role = "checker"
)

func (r Role) Valid() bool {
	return r == RolePicker || r == RoleChecker
}

type Worker struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	Active     bool      `db:"active" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
}

type CreateRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}
