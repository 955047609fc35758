package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gita_story_weaver/generator"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Suggest story themes",
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

		themes, err := a.themes.Suggest(cmd.Context())
		if errors.Is(err, generator.ErrEmptyThemeList) {
			return errors.New("the model returned no usable themes; try again or pass your own theme to `story`")
		}
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(themes)
		}
		for i, t := range themes {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, t.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
	themesCmd.Flags().Bool("json", false, "Print themes as JSON with name, term and description")
}
