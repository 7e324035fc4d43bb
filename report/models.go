package report

import "time"

// Report is a free-form problem report from a user. Feedback is nil until an
// admin answers.
type Report struct {
	ID        string
	UserID    string
	UserName  string
	Text      string
	Feedback  *string
	CreatedAt time.Time
}
