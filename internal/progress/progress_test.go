package progress

import "testing"

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(Nop); !ok {
		t.Errorf("Expected Nop observer for nil input")
	}

	rec := &Recorder{}
	if OrNop(rec) != Observer(rec) {
		t.Errorf("Expected the given observer to be returned unchanged")
	}
}

func TestFuncAndRecorder(t *testing.T) {
	rec := &Recorder{}
	var obs Observer = Func(func(stage, detail string) {
		rec.OnStage(stage, detail+"!")
	})

	obs.OnStage(StageExtract, "reading")
	obs.OnStage(StageChapters, "locating")

	if len(rec.Stages) != 2 {
		t.Fatalf("Expected 2 stages, got %d", len(rec.Stages))
	}
	if rec.Stages[1] != StageChapters {
		t.Errorf("Expected %s, got %s", StageChapters, rec.Stages[1])
	}
	if rec.Details[0] != "reading!" {
		t.Errorf("Expected reading!, got %s", rec.Details[0])
	}
}
