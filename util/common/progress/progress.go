// Package progress provides progress reporting functionality
package progress

import (
	"os"
	"sync"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// Tracker counts finished units of work. Implementations are safe for concurrent use.
type Tracker interface {
	// Increment marks one unit done and shows title as the latest item.
	Increment(title string)
	// Stop finalizes progress reporting
	Stop()
}

// NewAuto returns a progress bar when stdout is a TTY, otherwise a no-op tracker so that
// redirected output stays free of control sequences.
func NewAuto(title string, total int) Tracker {
	if total <= 0 || !term.IsTerminal(int(os.Stdout.Fd())) {
		return NopTracker{}
	}
	return NewBar(title, total)
}

// Bar is a Tracker backed by a pterm progress bar.
type Bar struct {
	mu  sync.Mutex
	bar *pterm.ProgressbarPrinter
}

func NewBar(title string, total int) Tracker {
	pb, err := pterm.DefaultProgressbar.
		WithTitle(title).
		WithTotal(total).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return NopTracker{}
	}
	return &Bar{bar: pb}
}

func (b *Bar) Increment(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if title != "" {
		b.bar.UpdateTitle(title)
	}
	b.bar.Increment()
}

func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = b.bar.Stop()
}

// NopTracker implements Tracker with no-op operations
type NopTracker struct{}

func (NopTracker) Increment(string) {}
func (NopTracker) Stop()            {}
