package usage

import (
	"sort"
	"sync"

	"parrot-hq/parrot/pkg/client"
)

// Totals is an accumulated token count for one model.
type Totals struct {
	// Requests is the number of requests that reported usage.
	Requests int

	// InputTokens is the accumulated prompt token count.
	InputTokens int

	// OutputTokens is the accumulated completion token count.
	OutputTokens int
}

// Tracker accumulates in-memory token totals per model. It implements
// client.UsageRecorder and is safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	totals map[string]*Totals
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		totals: make(map[string]*Totals),
	}
}

// Record adds one request's usage to the model's running totals.
func (t *Tracker) Record(requestID, model string, usage client.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tot, ok := t.totals[model]
	if !ok {
		tot = &Totals{}
		t.totals[model] = tot
	}

	tot.Requests++
	tot.InputTokens += usage.PromptTokens
	tot.OutputTokens += usage.CompletionTokens
}

// Model returns the accumulated totals for one model. A model that has
// never reported usage yields the zero value.
func (t *Tracker) Model(model string) Totals {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if tot, ok := t.totals[model]; ok {
		return *tot
	}
	return Totals{}
}

// Models returns the names of all models with recorded usage, sorted.
func (t *Tracker) Models() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.totals))
	for name := range t.totals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Total returns the sum across all models.
func (t *Tracker) Total() Totals {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sum Totals
	for _, tot := range t.totals {
		sum.Requests += tot.Requests
		sum.InputTokens += tot.InputTokens
		sum.OutputTokens += tot.OutputTokens
	}
	return sum
}
