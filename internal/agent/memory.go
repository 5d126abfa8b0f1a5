package agent

import (
	"fmt"
	"strings"
)

// DefaultWindowSize is the memory window capacity.
const DefaultWindowSize = 5

// NoHistory is the fixed literal returned for an empty window.
const NoHistory = "No previous conversation."

// MemoryWindow is a bounded, ordered history of exchanges with FIFO
// eviction. It has exactly one writer (the orchestrator, after each
// committed turn) and is read-only to pipeline stages during a turn.
type MemoryWindow struct {
	capacity  int
	exchanges []Exchange
}

func NewMemoryWindow(capacity int) *MemoryWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &MemoryWindow{capacity: capacity}
}

// Append records an exchange, evicting the oldest entry first when the
// window is full.
func (w *MemoryWindow) Append(e Exchange) {
	if len(w.exchanges) >= w.capacity {
		w.exchanges = w.exchanges[1:]
	}
	w.exchanges = append(w.exchanges, e)
}

// Format renders the window for prompt injection: one numbered block per
// exchange in chronological order, query and response verbatim.
func (w *MemoryWindow) Format() string {
	if len(w.exchanges) == 0 {
		return NoHistory
	}

	var sb strings.Builder
	for i, e := range w.exchanges {
		sb.WriteString(fmt.Sprintf("Message %d:\nUser: %s\nAssistant: %s\n\n", i+1, e.Query, e.Response))
	}
	return strings.TrimSpace(sb.String())
}

// Clear resets the window to empty.
func (w *MemoryWindow) Clear() {
	w.exchanges = nil
}

func (w *MemoryWindow) Len() int { return len(w.exchanges) }

// Exchanges returns a copy of the recorded exchanges, oldest first.
func (w *MemoryWindow) Exchanges() []Exchange {
	out := make([]Exchange, len(w.exchanges))
	copy(out, w.exchanges)
	return out
}
