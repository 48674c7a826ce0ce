package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// Entry is one line of the per-customer transcript. The transcript is
// append-only; only a small tail window is ever read back.
type Entry struct {
	ID         int64
	CustomerID int64
	Role       Role
	Text       string
	CreatedAt  time.Time
}

// ContextWindow is how many trailing entries the classifier sees.
const ContextWindow = 3
