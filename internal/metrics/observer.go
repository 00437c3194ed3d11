package metrics

// EvalObserver receives evaluation-path events for monitoring.
type EvalObserver interface {
	RecordEvaluation(enabled bool)
	RecordUsageWrite()
	RecordUsageFailure()
	RecordUsageDrop()
	RecordReportCacheHit()
	RecordReportCacheMiss()
}

// NoopObserver is used in tests.
type NoopObserver struct{}

func (NoopObserver) RecordEvaluation(bool)  {}
func (NoopObserver) RecordUsageWrite()      {}
func (NoopObserver) RecordUsageFailure()    {}
func (NoopObserver) RecordUsageDrop()       {}
func (NoopObserver) RecordReportCacheHit()  {}
func (NoopObserver) RecordReportCacheMiss() {}
