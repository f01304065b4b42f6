// Package usage tracks token consumption reported by model responses.
package usage

import (
	"fmt"
	"sync"
)

// TokenCount holds input and output token counts for a single model call.
// The JSON shape matches the usage object of Anthropic messages responses.
type TokenCount struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// IsZero reports whether no tokens were recorded.
func (tc TokenCount) IsZero() bool {
	return tc.InputTokens == 0 && tc.OutputTokens == 0
}

func (tc TokenCount) String() string {
	return fmt.Sprintf("%d in / %d out", tc.InputTokens, tc.OutputTokens)
}

// Tracker accumulates usage across the runs of one process, e.g. every job
// served by a long-lived MCP server. It is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	last  TokenCount
	total TokenCount
	calls int
}

// Add records the usage of one call. Zero counts still count as a call.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = tc
	t.total.InputTokens += tc.InputTokens
	t.total.OutputTokens += tc.OutputTokens
	t.calls++
}

// Last returns the most recent entry. The bool is false before the first Add.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.calls > 0
}

// Total returns the aggregate count across all calls.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of recorded calls.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}

// Reset clears all recorded entries.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last, t.total, t.calls = TokenCount{}, TokenCount{}, 0
}
