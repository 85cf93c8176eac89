package usage

import "parrot-hq/parrot/pkg/client"

// MultiRecorder fans one usage report out to several recorders, such
// as the in-memory tracker and the persistent ledger together.
type MultiRecorder []client.UsageRecorder

// Record forwards the report to every recorder in order.
func (m MultiRecorder) Record(requestID, model string, usage client.Usage) {
	for _, rec := range m {
		rec.Record(requestID, model, usage)
	}
}
