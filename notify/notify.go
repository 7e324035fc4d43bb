// Package notify delivers out-of-band messages to users after a workflow
// step commits. Delivery failures never roll back state; callers log and
// move on.
package notify

import (
	"context"
	"log"
)

// Sender pushes a text message to a user.
type Sender interface {
	Notify(ctx context.Context, userID, text string) error
}

// LogSender writes notifications to the process log. It stands in for a real
// chat transport in development and tests.
type LogSender struct{}

// Notify logs the message.
func (LogSender) Notify(ctx context.Context, userID, text string) error {
	log.Printf("notify %s: %s", userID, text)
	return nil
}
