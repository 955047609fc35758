package main

import (
	"os"

	"github.com/spf13/cobra"

	"gita_story_weaver/console"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive story session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		var opts []console.Option
		if tty, width := console.Terminal(os.Stdout); tty {
			opts = append(opts, console.WithTerminal(width))
		}
		return console.New(a.svc, os.Stdin, os.Stdout, opts...).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
