package usage

import (
	"fmt"
	"sync"
	"testing"

	"parrot-hq/parrot/pkg/client"
)

func TestTracker_AccumulatesPerModel(t *testing.T) {
	tr := NewTracker()

	tr.Record("req-1", "gpt-4o", client.Usage{PromptTokens: 10, CompletionTokens: 5})
	tr.Record("req-2", "gpt-4o", client.Usage{PromptTokens: 3, CompletionTokens: 2})
	tr.Record("req-3", "gpt-4o-mini", client.Usage{PromptTokens: 1, CompletionTokens: 1})

	got := tr.Model("gpt-4o")
	want := Totals{Requests: 2, InputTokens: 13, OutputTokens: 7}
	if got != want {
		t.Errorf("Model(gpt-4o) = %+v, want %+v", got, want)
	}

	total := tr.Total()
	if total.Requests != 3 || total.InputTokens != 14 || total.OutputTokens != 8 {
		t.Errorf("Total() = %+v", total)
	}
}

func TestTracker_UnknownModelIsZero(t *testing.T) {
	tr := NewTracker()
	if got := tr.Model("nope"); got != (Totals{}) {
		t.Errorf("unknown model = %+v, want zero", got)
	}
}

func TestTracker_ModelsSorted(t *testing.T) {
	tr := NewTracker()
	tr.Record("a", "zeta", client.Usage{PromptTokens: 1})
	tr.Record("b", "alpha", client.Usage{PromptTokens: 1})

	models := tr.Models()
	if len(models) != 2 || models[0] != "alpha" || models[1] != "zeta" {
		t.Errorf("Models() = %v", models)
	}
}

func TestTracker_ConcurrentRecord(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Record(fmt.Sprintf("req-%d", i), "gpt-4o",
				client.Usage{PromptTokens: 2, CompletionTokens: 1})
		}(i)
	}
	wg.Wait()

	got := tr.Model("gpt-4o")
	want := Totals{Requests: 50, InputTokens: 100, OutputTokens: 50}
	if got != want {
		t.Errorf("after concurrent records = %+v, want %+v", got, want)
	}
}
