// Package memory contains an in-memory Notifier for tests and for running
// the monitor without a Telegram channel.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

// Notifier stores delivered messages for inspection.
type Notifier struct {
	mu       sync.RWMutex
	messages []monitor.Message
}

// New returns a memory Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Notify records the message.
func (n *Notifier) Notify(_ context.Context, msg monitor.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

// Messages returns the recorded notifications.
func (n *Notifier) Messages() []monitor.Message {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]monitor.Message, len(n.messages))
	copy(out, n.messages)
	return out
}
