package emit

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNullEmitterDiscardsEvents(t *testing.T) {
	e := NewNullEmitter()
	e.Emit(Event{Msg: "iteration_complete"})
	if err := e.EmitBatch(context.Background(), []Event{{Msg: "x"}}); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestLogEmitterText(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)
	e.Emit(Event{RunID: "run-1", Iteration: 2, TaskName: "T1", Msg: "task_analyzed", Meta: map[string]interface{}{"wcrt": int64(42)}})
	out := buf.String()
	if !strings.Contains(out, "[task_analyzed]") || !strings.Contains(out, "runID=run-1") || !strings.Contains(out, "task=T1") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestLogEmitterJSON(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)
	e.Emit(Event{RunID: "run-1", Msg: "iteration_complete"})
	out := buf.String()
	if !strings.Contains(out, `"msg":"iteration_complete"`) {
		t.Errorf("unexpected json output: %q", out)
	}
}

func TestLogEmitterBatchPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)
	events := []Event{{Msg: "first"}, {Msg: "second"}, {Msg: "third"}}
	if err := e.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	out := buf.String()
	firstIdx := strings.Index(out, "[first]")
	secondIdx := strings.Index(out, "[second]")
	thirdIdx := strings.Index(out, "[third]")
	if !(firstIdx < secondIdx && secondIdx < thirdIdx) {
		t.Errorf("events out of order: %q", out)
	}
}
