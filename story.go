package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gita_story_weaver/console"
	"gita_story_weaver/frontend"
)

var storyCmd = &cobra.Command{
	Use:   "story [theme]",
	Short: "Generate one story for a theme",
	Example: `  storyweaver story "Duty and Righteousness (Karma Yoga) - Acting without attachment"
  storyweaver story --theme "courage" --out story.html --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		theme, _ := cmd.Flags().GetString("theme")
		if theme == "" {
			theme = strings.Join(args, " ")
		}
		if strings.TrimSpace(theme) == "" {
			return errors.New("a theme is required (argument or --theme)")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, frontend.MsgCreatingStory)

		state, err := a.pipeline.RunState(cmd.Context(), theme)
		if err != nil {
			a.logger.Error("error generating story", "theme", theme, "error", err)
			return errors.New(frontend.MsgStoryFailed)
		}
		story, err := a.publisher.Publish(theme, state.RefinedStory())
		if err != nil {
			return err
		}

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			for _, m := range state.Messages() {
				fmt.Fprintln(os.Stderr, m)
			}
			fmt.Fprintf(os.Stderr, "\n--- core story ---\n%s\n", state.CoreStory())
			fmt.Fprintf(os.Stderr, "\n--- characters ---\n%s\n", state.Characters())
			fmt.Fprintf(os.Stderr, "\n--- narrative ---\n%s\n\n", state.Narrative())
		}

		if path, _ := cmd.Flags().GetString("out"); path != "" {
			if err := a.publisher.WriteFile(path, story); err != nil {
				return err
			}
			a.logger.Info("story written", "path", path)
			return nil
		}

		text := story.Markdown
		if tty, width := console.Terminal(out); tty {
			if render := console.NewRenderer(width); render != nil {
				if rendered, err := render(text); err == nil {
					text = rendered
				}
			}
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storyCmd)
	storyCmd.Flags().StringP("theme", "t", "", "Theme for the story")
	storyCmd.Flags().StringP("out", "o", "", "Write the story to a file (.html for a web page, markdown otherwise)")
	storyCmd.Flags().BoolP("verbose", "v", false, "Print stage progress and intermediate outputs to stderr")
}
