package request

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus admits only the three known lifecycle states.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", ErrBadStatus
}

// Request mirrors the service_requests table. MasterID stays nil until the
// administrator assigns someone.
type Request struct {
	ID        string
	ClientID  string
	MasterID  *string
	Address   string
	Status    Status
	CreatedAt time.Time
}

// Advance reports a committed status transition so the caller can notify the
// client after the fact.
type Advance struct {
	RequestID string
	ClientID  string
	Previous  Status
	Next      Status
}

// MasterView is the denormalized projection a master sees of their own
// requests.
type MasterView struct {
	ID         string
	Address    string
	Status     Status
	ClientName string
}
