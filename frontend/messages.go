package frontend

import "fmt"

// User-facing texts. Internal error detail never appears in these.
const (
	MsgGeneratingThemes = "🎨 Generating theme options... Please wait."
	MsgChooseTheme      = "🌟 Choose a theme for your story or type your own:"
	MsgTypeTheme        = "🌟 Type a theme for your story:"
	MsgCreatingStory    = "🌟 Creating a story inspired by your theme... This may take a few minutes."
	MsgEmptyInput       = "✏️ Please type a theme for your story."
	MsgThemesFailed     = "⚠️ An error occurred while loading themes. Please refresh the page."
	MsgStoryFailed      = "⚠️ An error occurred while generating the story. Please try again."
)

// ActionSelectTheme is the only action a session offers.
const ActionSelectTheme = "select_theme"

// Action is a selectable option shown with a message.
type Action struct {
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Payload     map[string]any `json:"payload"`
}

// Message is one chat bubble sent to the user.
type Message struct {
	Content  string   `json:"content"`
	Actions  []Action `json:"actions,omitempty"`
	Markdown bool     `json:"markdown,omitempty"` // finished story
	Error    bool     `json:"error,omitempty"`
}

// Emit delivers messages as they are produced. Front-ends that stream
// (terminal) print immediately; request/response ones collect them.
type Emit func(Message)

func themeAction(theme string) Action {
	return Action{
		Name:        ActionSelectTheme,
		Label:       theme,
		Description: fmt.Sprintf("Generate a story about %s", theme),
		Payload:     map[string]any{"theme": theme},
	}
}

// Collect returns an Emit that appends to *dst.
func Collect(dst *[]Message) Emit {
	return func(m Message) { *dst = append(*dst, m) }
}
