// Package notify surfaces user-facing notices (sync failures, empty
// selections) outside the terminal.
package notify

import (
	"io"
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"
)

const appName = "hourly"

type Notifier interface {
	Notify(message string) error
}

// Desktop sends notices as desktop notifications.
type Desktop struct {
	logger *slog.Logger
}

func NewDesktop(logger *slog.Logger) *Desktop {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Desktop{logger: logger}
}

func (d *Desktop) Notify(message string) error {
	if err := beeep.Notify(appName, message, ""); err != nil {
		d.logger.Warn("desktop notification failed", "error", err)
		return err
	}
	return nil
}

// Nop drops every notice.
type Nop struct{}

func (Nop) Notify(string) error { return nil }

// Recorder keeps notices in memory. Views use it to show the latest
// notice inline.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) Notify(message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Last returns the most recent notice, or "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

// Messages returns every notice recorded so far, oldest first.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Take returns the most recent notice and forgets all of them.
func (r *Recorder) Take() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	last := r.messages[len(r.messages)-1]
	r.messages = nil
	return last
}

// Multi fans a notice out to several notifiers and returns the first error.
type Multi []Notifier

func (m Multi) Notify(message string) error {
	var first error
	for _, n := range m {
		if err := n.Notify(message); err != nil && first == nil {
			first = err
		}
	}
	return first
}
