// Package notify delivers sync alerts and summaries to chat platforms.
package notify

import (
	"context"
	"log"
)

// Severity hints for message formatting.
const (
	SeverityInfo    = "info"
	SeverityError   = "error"
	SeveritySuccess = "success"
)

// Message is one outbound notification.
type Message struct {
	Title    string
	Body     string
	Severity string
}

// Notifier delivers messages to a single platform.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi fans one message out to several platforms. Per-platform failures
// are logged; the message still reaches the rest.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			log.Printf("notify: %v", err)
		}
	}
	return nil
}
