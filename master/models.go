package master

import (
	"errors"
	"time"
)

// Load bounds enforced by policy and by the table CHECK constraint.
const (
	MinLoad = 0
	MaxLoad = 100
)

// Master is an approved service provider. FullName is denormalized from the
// users table for admin projections.
type Master struct {
	UserID   string
	FullName string
	Load     int
}

// Application is a pending request to become a master. At most one exists
// per user.
type Application struct {
	UserID    string
	FullName  string
	CreatedAt time.Time
}

type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionReject  Decision = "reject"
)

// ErrBadDecision signals a decision outside confirm/reject.
var ErrBadDecision = errors.New("master: decision must be confirm or reject")

// ParseDecision admits only confirm and reject.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionConfirm, DecisionReject:
		return Decision(s), nil
	}
	return "", ErrBadDecision
}
