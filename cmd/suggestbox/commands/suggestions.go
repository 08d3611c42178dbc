package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/suggestion-box/cmd/suggestbox/output"
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Inspect suggestions",
}

var suggestionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every suggestion with its replies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		threads, err := s.suggestions.ListWithReplies(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(threads)
		}
		if len(threads) == 0 {
			output.Muted(w, "no suggestions")
			return nil
		}
		for _, t := range threads {
			output.Section(w, fmt.Sprintf("#%d by %s", t.Suggestion.ID, t.Suggestion.Username))
			fmt.Fprintln(w, t.Suggestion.Text)
			for _, r := range t.Replies {
				output.Muted(w, "  ↳ %s: %s", r.Username, r.Text)
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	suggestionsCmd.AddCommand(suggestionsListCmd)
	rootCmd.AddCommand(suggestionsCmd)
}
