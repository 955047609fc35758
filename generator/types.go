package generator

import "fmt"

// Story state fields, in the order the pipeline fills them.
const (
	FieldTheme        = "theme"
	FieldCoreStory    = "core_story"
	FieldCharacters   = "characters"
	FieldNarrative    = "narrative"
	FieldRefinedStory = "refined_story"
)

// StoryState 在各阶段之间传递：theme 在创建时写入，其余字段由各阶段依次写入且只写一次。
// A StoryState belongs to a single pipeline run and is not safe for concurrent use.
type StoryState struct {
	fields   map[string]string
	messages []string
}

// NewStoryState creates a state holding only the theme.
func NewStoryState(theme string) *StoryState {
	return &StoryState{fields: map[string]string{FieldTheme: theme}}
}

// Get returns a field and whether it has been produced yet.
func (s *StoryState) Get(field string) (string, bool) {
	v, ok := s.fields[field]
	return v, ok
}

func (s *StoryState) Theme() string        { return s.fields[FieldTheme] }
func (s *StoryState) CoreStory() string    { return s.fields[FieldCoreStory] }
func (s *StoryState) Characters() string   { return s.fields[FieldCharacters] }
func (s *StoryState) Narrative() string    { return s.fields[FieldNarrative] }
func (s *StoryState) RefinedStory() string { return s.fields[FieldRefinedStory] }

// Inputs collects the named fields for a stage, failing if any is absent.
func (s *StoryState) Inputs(names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, ok := s.fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, name)
		}
		out[name] = v
	}
	return out, nil
}

func (s *StoryState) set(field, value string) error {
	if _, ok := s.fields[field]; ok {
		return fmt.Errorf("story field %s already set", field)
	}
	s.fields[field] = value
	return nil
}

func (s *StoryState) logf(format string, args ...any) {
	s.messages = append(s.messages, fmt.Sprintf(format, args...))
}

// Messages returns the progress log of the run.
func (s *StoryState) Messages() []string {
	return append([]string(nil), s.messages...)
}

// Fields returns a copy of every produced field.
func (s *StoryState) Fields() map[string]string {
	out := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}
