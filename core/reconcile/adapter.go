package reconcile

// Observer receives every decision a stage records and every finished stage.
// Metrics collectors and the run journal implement it.
type Observer interface {
	// Observe is called once per entity decision.
	Observe(stage, key, name string, d Decision)

	// StageDone is called once when a stage finishes.
	StageDone(summary StageSummary)
}

// Observers fans out to several observers. Nil entries are ignored.
type Observers []Observer

// Observe forwards the decision to every observer.
func (o Observers) Observe(stage, key, name string, d Decision) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(stage, key, name, d)
		}
	}
}

// StageDone forwards the summary to every observer.
func (o Observers) StageDone(summary StageSummary) {
	for _, obs := range o {
		if obs != nil {
			obs.StageDone(summary)
		}
	}
}
