package ledger

import "github.com/shopspring/decimal"

// MetricsCollector receives ledger operation counters. The default
// wiring uses the no-op collector; a real backend can be dropped in
// without touching the service.
type MetricsCollector interface {
	RecordTransaction(txType string, amount decimal.Decimal)
	RecordError(operation, errType string)
	RecordLockReclaim(count int64)
}

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordTransaction(string, decimal.Decimal) {}
func (n *NoopMetricsCollector) RecordError(string, string)                {}
func (n *NoopMetricsCollector) RecordLockReclaim(int64)                   {}

