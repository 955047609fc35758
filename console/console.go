// Package console is the terminal chat front-end: it offers numbered themes,
// accepts a number or free text, and prints the finished story.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"gita_story_weaver/frontend"
	"gita_story_weaver/session"
)

// Chat runs one interactive session over a reader and writer.
type Chat struct {
	svc     *frontend.Service
	in      io.Reader
	out     io.Writer
	profile termenv.Profile
	render  func(string) (string, error)
	actions []frontend.Action
}

type Option func(*Chat)

// WithTerminal enables colors and glamour rendering sized to width columns.
func WithTerminal(width int) Option {
	return func(c *Chat) {
		c.profile = termenv.ColorProfile()
		c.render = NewRenderer(width)
	}
}

// New creates a plain-text chat. Use WithTerminal for a TTY.
func New(svc *frontend.Service, in io.Reader, out io.Writer, opts ...Option) *Chat {
	c := &Chat{svc: svc, in: in, out: out, profile: termenv.Ascii}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRenderer returns a glamour markdown renderer. Wrapping is off when width <= 0.
func NewRenderer(width int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	return r.Render
}

// Terminal reports whether w is a TTY and its width.
func Terminal(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return true, 0
	}
	return true, width
}

// Run starts a session and loops until EOF, "exit" or "quit".
func (c *Chat) Run(ctx context.Context) error {
	c.banner()

	sess, err := c.svc.Start(ctx, c.emit)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		c.prompt()
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "exit", "quit":
			fmt.Fprintln(c.out, "👋 Goodbye.")
			return nil
		}
		if err := c.handle(ctx, sess, line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Chat) handle(ctx context.Context, sess *session.Session, line string) error {
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(c.actions) {
		_, err := c.svc.Select(ctx, sess.ID, c.actions[n-1], c.emit)
		return err
	}
	_, err := c.svc.Message(ctx, sess.ID, line, c.emit)
	return err
}

func (c *Chat) emit(m frontend.Message) {
	switch {
	case m.Markdown:
		fmt.Fprintln(c.out, c.markdown(m.Content))
	case m.Error:
		fmt.Fprintln(c.out, c.style(m.Content, "#fb7185"))
	default:
		fmt.Fprintln(c.out, c.style(m.Content, "#a78bfa"))
	}
	if len(m.Actions) > 0 {
		c.actions = m.Actions
		for i, a := range m.Actions {
			fmt.Fprintf(c.out, "  %s %s\n", c.style(strconv.Itoa(i+1)+".", "#818cf8"), a.Label)
		}
		fmt.Fprintln(c.out, "Enter a number, or type your own theme.")
	}
}

func (c *Chat) markdown(md string) string {
	if c.render == nil {
		return md
	}
	out, err := c.render(md)
	if err != nil {
		return md
	}
	return out
}

func (c *Chat) style(s, hex string) termenv.Style {
	return c.profile.String(s).Foreground(c.profile.Color(hex))
}

func (c *Chat) prompt() {
	fmt.Fprint(c.out, c.style("> ", "#c084fc"))
}

func (c *Chat) banner() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.style("  📖 Gita Story Weaver", "#818cf8").Bold())
	fmt.Fprintln(c.out, c.style("  Stories of ancient wisdom for modern life", "#f472b6"))
	fmt.Fprintln(c.out, c.style("  type exit to leave", "#a78bfa"))
	fmt.Fprintln(c.out)
}
