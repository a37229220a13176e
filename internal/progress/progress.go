// Package progress reports pipeline stage transitions to whoever is watching.
package progress

import "log/slog"

// Observer receives stage updates from long-running operations.
type Observer interface {
	OnStage(stage, detail string)
}

// Func adapts a plain function to the Observer interface.
type Func func(stage, detail string)

// OnStage calls f(stage, detail).
func (f Func) OnStage(stage, detail string) {
	f(stage, detail)
}

// Slog forwards stage updates to the default slog logger.
type Slog struct{}

func (Slog) OnStage(stage, detail string) {
	slog.Info(detail, "stage", stage)
}

// Nop discards every update.
type Nop struct{}

func (Nop) OnStage(string, string) {}

// OrNop returns o, or a Nop observer when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop{}
	}
	return o
}

// Recorder keeps every stage it sees. Handy in tests.
type Recorder struct {
	Stages  []string
	Details []string
}

func (r *Recorder) OnStage(stage, detail string) {
	r.Stages = append(r.Stages, stage)
	r.Details = append(r.Details, detail)
}

// Stage names published by the ingestion and illustration pipelines.
const (
	StageProbe     = "probe"
	StageExtract   = "extract"
	StageChapters  = "chapters"
	StageMetadata  = "metadata"
	StageSummaries = "summaries"
	StageAIRetry   = "ai_retry"
	StageImages    = "images"
	StageComplete  = "complete"
)
