package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/cookiesnap/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, visit *model.Visit) error
	callCount int
}

func (m *mockStep) Do(ctx context.Context, visit *model.Visit) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, visit)
	}
	return nil
}

func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("new pipeline is empty", func(t *testing.T) {
		t.Parallel()

		if New().StepCount() != 0 {
			t.Error("expected 0 steps")
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

		names := p.StepNames()
		expected := []string{"first", "second", "third"}
		if len(names) != len(expected) {
			t.Fatalf("expected %d names, got %d", len(expected), len(names))
		}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order and records them", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.Visit) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New()
		p.AddSteps(record("a"), record("b"), record("c"))

		visit := model.NewVisit("https://example.com", time.Second)
		if err := p.Execute(context.Background(), visit); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 3 || order[0] != "a" || order[2] != "c" {
			t.Errorf("unexpected order: %v", order)
		}
		if len(visit.PerformedSteps) != 3 {
			t.Errorf("expected 3 performed steps, got %v", visit.PerformedSteps)
		}
	})

	t.Run("stops at first failure with StepError", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("boom")
		last := &mockStep{name: "last"}

		p := New()
		p.AddSteps(
			&mockStep{name: "ok"},
			&mockStep{name: "bad", doFunc: func(context.Context, *model.Visit) error { return cause }},
			last,
		)

		visit := model.NewVisit("https://example.com", time.Second)
		err := p.Execute(context.Background(), visit)

		var stepErr *StepError
		if !errors.As(err, &stepErr) {
			t.Fatalf("expected StepError, got %v", err)
		}
		if stepErr.Step != "bad" {
			t.Errorf("expected failing step 'bad', got %q", stepErr.Step)
		}
		if !errors.Is(err, cause) {
			t.Error("expected StepError to unwrap to the cause")
		}
		if last.callCount != 0 {
			t.Error("expected later steps to be skipped")
		}
		if len(visit.PerformedSteps) != 1 {
			t.Errorf("expected only the first step recorded, got %v", visit.PerformedSteps)
		}
	})

	t.Run("cancelled context stops before the next step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		second := &mockStep{name: "second"}

		p := New()
		p.AddSteps(&mockStep{name: "first", doFunc: func(context.Context, *model.Visit) error {
			cancel()
			return nil
		}}, second)

		err := p.Execute(ctx, model.NewVisit("https://example.com", time.Second))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("expected second step not to run")
		}
	})

	t.Run("hooks run around each step", func(t *testing.T) {
		t.Parallel()

		var events []string
		p := New(
			WithBeforeStep(func(s Step, _ *model.Visit) { events = append(events, "before:"+s.Name()) }),
			WithAfterStep(func(s Step, _ *model.Visit) { events = append(events, "after:"+s.Name()) }),
		)
		p.AddSteps(&mockStep{name: "x"}, &mockStep{name: "y", doFunc: func(context.Context, *model.Visit) error {
			return errors.New("fail")
		}})

		_ = p.Execute(context.Background(), model.NewVisit("https://example.com", time.Second))

		expected := []string{"before:x", "after:x", "before:y"}
		if len(events) != len(expected) {
			t.Fatalf("expected %v, got %v", expected, events)
		}
		for i := range expected {
			if events[i] != expected[i] {
				t.Errorf("event %d: expected %q, got %q", i, expected[i], events[i])
			}
		}
	})
}

// TestStepError tests the error message.
func TestStepError(t *testing.T) {
	t.Parallel()

	err := &StepError{Step: "navigate", Err: errors.New("dns failure")}
	if err.Error() != "navigate: dns failure" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
