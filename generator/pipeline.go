package generator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Option configures a Pipeline or ThemeGenerator.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	hooks     Hooks
	templates *Templates
	parse     ParseOptions
}

// WithLogger sets the logger used for progress output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHooks installs stage and run callbacks.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// WithTemplates replaces the built-in template registry.
func WithTemplates(t *Templates) Option {
	return func(o *options) { o.templates = t }
}

// WithParseOptions tunes theme line parsing.
func WithParseOptions(p ParseOptions) Option {
	return func(o *options) { o.parse = p }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.templates == nil {
		o.templates = DefaultTemplates()
	}
	return o
}

type stageSpec struct {
	name   string
	label  string
	output string
}

// 固定顺序：核心冲突 → 人物 → 情节 → 润色。每个阶段的输出即下一阶段的输入。
var storyStages = []stageSpec{
	{name: TemplateCoreStory, label: "core story generation", output: FieldCoreStory},
	{name: TemplateCharacters, label: "character creation", output: FieldCharacters},
	{name: TemplatePlot, label: "plot development", output: FieldNarrative},
	{name: TemplateRefine, label: "final story refinement", output: FieldRefinedStory},
}

// Pipeline runs the four story stages in strict sequence against one backend.
// It holds no per-request state and may be shared by concurrent sessions.
type Pipeline struct {
	stages []*Stage
	logger *slog.Logger
	hooks  Hooks
}

// NewPipeline wires the story stages to llm.
func NewPipeline(llm LLMClient, opts ...Option) (*Pipeline, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	o := buildOptions(opts)
	p := &Pipeline{logger: o.logger, hooks: o.hooks}
	for _, spec := range storyStages {
		tmpl, err := o.templates.mustGet(spec.name)
		if err != nil {
			return nil, err
		}
		p.stages = append(p.stages, &Stage{
			Name:     spec.name,
			Label:    spec.label,
			Output:   spec.output,
			template: tmpl,
			llm:      llm,
			logger:   o.logger,
			hooks:    o.hooks,
		})
	}
	return p, nil
}

// Stages lists stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run generates a story for theme and returns the refinement stage output.
func (p *Pipeline) Run(ctx context.Context, theme string) (string, error) {
	state, err := p.RunState(ctx, theme)
	if err != nil {
		return "", err
	}
	return state.RefinedStory(), nil
}

// RunState is Run but returns every intermediate field. Any stage failure
// aborts the remaining stages; nothing is retried or resumed.
func (p *Pipeline) RunState(ctx context.Context, theme string) (*StoryState, error) {
	if strings.TrimSpace(theme) == "" {
		return nil, ErrEmptyTheme
	}
	start := time.Now()
	p.logger.Info("story workflow starting", "theme", theme)

	state := NewStoryState(theme)
	err := p.run(ctx, state)

	ev := &RunEvent{Theme: theme, Duration: time.Since(start), Err: err}
	if p.hooks.OnRunDone != nil {
		p.hooks.OnRunDone(ctx, ev)
	}
	if err != nil {
		p.logger.Error("story workflow failed", "theme", theme, "duration", ev.Duration, "error", err)
		return nil, err
	}
	p.logger.Info("story workflow completed", "theme", theme, "duration", ev.Duration)
	return state, nil
}

func (p *Pipeline) run(ctx context.Context, state *StoryState) error {
	total := len(p.stages)
	for i, stage := range p.stages {
		step := i + 1
		values, err := state.Inputs(stage.Inputs())
		if err != nil {
			return err
		}
		state.logf("Step %d/%d: Starting %s...", step, total, stage.Label)
		out, err := stage.Run(ctx, step, total, values)
		if err != nil {
			return err
		}
		if err := state.set(stage.Output, out); err != nil {
			return err
		}
		state.logf("Step %d/%d: %s completed", step, total, capitalize(stage.Label))
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
