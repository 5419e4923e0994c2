package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/renutil/rensweep/internal/model"
)

// fakeStep is a configurable step for pipeline tests.
type fakeStep struct {
	name string
	err  error
	ran  *[]string
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Do(_ context.Context, _ *model.SweepReport) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

// TestPipelineExecute verifies sequential execution and error policy.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var ran []string
		p := New()
		p.AddSteps(
			&fakeStep{name: "first", ran: &ran},
			&fakeStep{name: "second", ran: &ran},
			&fakeStep{name: "third", ran: &ran},
		)

		report := model.NewSweepReport("/img", "/scripts")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"first", "second", "third"}
		for i := range want {
			if ran[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, ran)
			}
		}
		if len(report.PerformedSteps) != 3 {
			t.Errorf("expected 3 performed steps, got %v", report.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		var ran []string
		boom := errors.New("walk failed")
		p := New()
		p.AddSteps(
			&fakeStep{name: "first", err: boom, ran: &ran},
			&fakeStep{name: "second", ran: &ran},
		)

		report := model.NewSweepReport("/img", "/scripts")
		if err := p.Execute(context.Background(), report); !errors.Is(err, boom) {
			t.Fatalf("expected step error, got %v", err)
		}
		if len(ran) != 1 {
			t.Errorf("expected execution to stop after the failed step, ran %v", ran)
		}
		if report.ErrorMessage == "" {
			t.Error("expected error to be recorded on the report")
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		var ran []string
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&fakeStep{name: "first", err: errors.New("non-fatal"), ran: &ran},
			&fakeStep{name: "second", ran: &ran},
		)

		report := model.NewSweepReport("/img", "/scripts")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ran) != 2 {
			t.Errorf("expected both steps to run, ran %v", ran)
		}
	})

	t.Run("cancelled context stops the pipeline", func(t *testing.T) {
		t.Parallel()

		var ran []string
		p := New()
		p.AddSteps(&fakeStep{name: "never", ran: &ran})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report := model.NewSweepReport("/img", "/scripts")
		if err := p.Execute(ctx, report); err == nil {
			t.Fatal("expected cancellation error")
		}
		if !report.Cancelled {
			t.Error("expected report to be marked cancelled")
		}
		if len(ran) != 0 {
			t.Errorf("expected no steps to run, ran %v", ran)
		}
	})
}

// TestStepNames verifies name listing for logging.
func TestStepNames(t *testing.T) {
	t.Parallel()

	var ran []string
	p := New()
	p.AddSteps(
		&fakeStep{name: "a", ran: &ran},
		&fakeStep{name: "b", ran: &ran},
	)

	names := p.StepNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("unexpected step names: %v", names)
	}
}
