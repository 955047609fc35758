package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StageEvent describes one stage call for hooks.
type StageEvent struct {
	Stage    string
	Step     int
	Total    int
	Duration time.Duration
	Err      error
}

// RunEvent describes one full pipeline run for hooks.
type RunEvent struct {
	Theme    string
	Duration time.Duration
	Err      error
}

// Hooks are optional callbacks fired around stage calls and pipeline runs.
type Hooks struct {
	OnStageStart func(ctx context.Context, e *StageEvent)
	OnStageDone  func(ctx context.Context, e *StageEvent)
	OnRunDone    func(ctx context.Context, e *RunEvent)
}

// Stage renders one template and makes exactly one completion call.
type Stage struct {
	Name     string
	Label    string
	Output   string
	template Template
	llm      LLMClient
	logger   *slog.Logger
	hooks    Hooks
}

// Inputs are the story fields the stage reads.
func (s *Stage) Inputs() []string {
	return append([]string(nil), s.template.Placeholders...)
}

// Run returns the backend text verbatim. step/total only label progress output.
func (s *Stage) Run(ctx context.Context, step, total int, values map[string]string) (string, error) {
	prompt, err := s.template.Render(values)
	if err != nil {
		return "", err
	}

	ev := &StageEvent{Stage: s.Name, Step: step, Total: total}
	s.logger.Info("stage starting", "stage", s.Name, "step", progress(step, total), "label", s.Label)
	if s.hooks.OnStageStart != nil {
		s.hooks.OnStageStart(ctx, ev)
	}

	start := time.Now()
	out, err := s.llm.Complete(ctx, prompt)
	ev.Duration = time.Since(start)
	if err != nil {
		ev.Err = &GenerationError{Stage: s.Name, Err: err}
		s.logger.Error("stage failed", "stage", s.Name, "step", progress(step, total), "duration", ev.Duration, "error", err)
		if s.hooks.OnStageDone != nil {
			s.hooks.OnStageDone(ctx, ev)
		}
		return "", ev.Err
	}

	s.logger.Info("stage completed", "stage", s.Name, "step", progress(step, total), "duration", ev.Duration, "chars", len(out))
	if s.hooks.OnStageDone != nil {
		s.hooks.OnStageDone(ctx, ev)
	}
	return out, nil
}

func progress(step, total int) string {
	return fmt.Sprintf("%d/%d", step, total)
}
