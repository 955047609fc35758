// Package frontend implements the chat session entry points shared by every
// user surface: session start with theme actions, theme selection, and free
// text messages.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"

	"gita_story_weaver/publisher"
	"gita_story_weaver/session"
)

var (
	// ErrUnknownAction is returned for actions other than select_theme.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidAction is returned when an action payload carries no usable theme.
	ErrInvalidAction = errors.New("invalid action payload")
)

// ThemeSource suggests themes.
type ThemeSource interface {
	Generate(ctx context.Context) ([]string, error)
}

// StoryRunner turns a theme into a story.
type StoryRunner interface {
	Run(ctx context.Context, theme string) (string, error)
}

// Result is the outcome of one story request.
type Result struct {
	Story  *publisher.Story
	Failed bool
}

// Service wires theme suggestions, the story pipeline and the session store.
type Service struct {
	themes    ThemeSource
	stories   StoryRunner
	publisher *publisher.Publisher
	store     session.Store
	logger    *slog.Logger

	// turnMu serializes reload and save of turns within this process.
	turnMu sync.Mutex
}

// NewService checks its collaborators; logger may be nil.
func NewService(themes ThemeSource, stories StoryRunner, pub *publisher.Publisher, store session.Store, logger *slog.Logger) (*Service, error) {
	if themes == nil || stories == nil {
		return nil, errors.New("theme source and story runner are required")
	}
	if pub == nil {
		pub = publisher.New()
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{themes: themes, stories: stories, publisher: pub, store: store, logger: logger}, nil
}

// Start opens a session and offers generated themes as actions. A theme
// failure is reported to the user but the session stays usable for free text.
func (s *Service) Start(ctx context.Context, emit Emit) (*session.Session, error) {
	emit(Message{Content: MsgGeneratingThemes})

	themes, err := s.themes.Generate(ctx)
	if err != nil {
		s.logger.Error("error in chat start", "error", err)
		themes = nil
	}

	sess := session.New(themes)
	if serr := s.store.Save(ctx, sess); serr != nil {
		return nil, fmt.Errorf("save session: %w", serr)
	}
	s.logger.Info("session started", "session", sessionID, "themes", len(themes))

	switch {
	case err != nil:
		emit(Message{Content: MsgThemesFailed, Error: true})
	case len(themes) == 0:
		emit(Message{Content: MsgTypeTheme})
	default:
		actions := make([]Action, len(themes))
		for i, t := range themes {
			actions[i] = themeAction(t)
		}
		emit(Message{Content: MsgChooseTheme, Actions: actions})
	}
	return sess, nil
}

type selectThemePayload struct {
	Theme string `mapstructure:"theme"`
}

// Select handles an action callback. Only select_theme is known.
func (s *Service) Select(ctx context.Context, sessionID string, action Action, emit Emit) (Result, error) {
	if action.Name != ActionSelectTheme {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, action.Name)
	}
	var p selectThemePayload
	if err := mapstructure.Decode(action.Payload, &p); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	theme := strings.TrimSpace(p.Theme)
	if theme == "" {
		return Result{}, fmt.Errorf("%w: no theme", ErrInvalidAction)
	}
	s.logger.Info("theme selected", "session", sessionID, "theme", theme)
	return s.tell(ctx, sessionID, theme, session.SourceAction, emit)
}

// Message treats free text as a theme.
func (s *Service) Message(ctx context.Context, sessionID, content string, emit Emit) (Result, error) {
	theme := strings.TrimSpace(content)
	if theme == "" {
		if _, err := s.store.Load(ctx, sessionID); err != nil {
			return Result{}, err
		}
		emit(Message{Content: MsgEmptyInput})
		return Result{}, nil
	}
	s.logger.Info("received manual theme input", "session", sessionID, "theme", theme)
	return s.tell(ctx, sessionID, theme, session.SourceMessage, emit)
}

// Session returns a stored session.
func (s *Service) Session(ctx context.Context, id string) (*session.Session, error) {
	return s.store.Load(ctx, id)
}

// Themes suggests themes without opening a session.
func (s *Service) Themes(ctx context.Context) ([]string, error) {
	return s.themes.Generate(ctx)
}

func (s *Service) tell(ctx context.Context, sessionID, theme, source string, emit Emit) (Result, error) {
	if _, err := s.store.Load(ctx, sessionID); err != nil {
		return Result{}, err
	}

	emit(Message{Content: MsgCreatingStory})
	res := s.generate(ctx, theme)
	if res.Failed {
		emit(Message{Content: MsgStoryFailed, Error: true})
	} else {
		emit(Message{Content: res.Story.Markdown, Markdown: true})
	}
	s.recordTurn(ctx, sessionID, theme, source, res)
	return res, nil
}

// recordTurn appends the finished turn to the latest stored copy of the
// session, since other turns may have been saved while the pipeline ran.
// Failures only cost history; the user already has the story.
func (s *Service) recordTurn(ctx context.Context, sessionID, theme, source string, res Result) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	latest, err := s.store.Load(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to reload session for turn", "session", sessionID, "error", err)
		return
	}
	if res.Failed {
		latest.AddTurn(theme, source, "", true)
	} else {
		latest.AddTurn(theme, source, res.Story.Digest, false)
	}
	if err := s.store.Save(ctx, latest); err != nil {
		s.logger.Warn("failed to save session turn", "session", sessionID, "error", err)
	}
}

// Generate runs the pipeline and publishes the result. Failures are logged
// in full and reported only as Failed.
func (s *Service) Generate(ctx context.Context, theme string) Result {
	return s.generate(ctx, strings.TrimSpace(theme))
}

func (s *Service) generate(ctx context.Context, theme string) Result {
	text, err := s.stories.Run(ctx, theme)
	if err != nil {
		s.logger.Error("error generating story", "theme", theme, "error", err)
		return Result{Failed: true}
	}
	story, err := s.publisher.Publish(theme, text)
	if err != nil {
		s.logger.Error("error publishing story", "theme", theme, "error", err)
		return Result{Failed: true}
	}
	s.logger.Info("story generation completed", "theme", theme, "chars", len(text))
	return Result{Story: &story}
}
