package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iliyamo/suggestion-box/cmd/suggestbox/output"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users and their suggestion access",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users ordered by id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		users, err := s.access.ListUsers(cmd.Context(), s.admin)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput {
			type row struct {
				ID               uint64 `json:"id"`
				Username         string `json:"username"`
				SuggestionAccess bool   `json:"suggestion_access"`
			}
			out := make([]row, 0, len(users))
			for _, u := range users {
				out = append(out, row{u.ID, u.Username, u.SuggestionAccess})
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		if len(users) == 0 {
			output.Muted(w, "no users")
			return nil
		}
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{strconv.FormatUint(u.ID, 10), u.Username, output.AccessIcon(u.SuggestionAccess)})
		}
		return output.Table(w, []string{"ID", "USERNAME", "ACCESS"}, rows)
	},
}

func parseUserID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

func setAccessCmd(use, short string, granted bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			s, err := openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.access.SetAccess(cmd.Context(), s.admin, id, granted); err != nil {
				return fmt.Errorf("user %d: %w", id, err)
			}
			verb := "revoked from"
			if granted {
				verb = "granted to"
			}
			output.Success(cmd.OutOrStdout(), "suggestion access %s user %d", verb, id)
			return nil
		},
	}
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a user and end their sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		s, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.access.DeleteUser(cmd.Context(), s.admin, id); err != nil {
			return fmt.Errorf("user %d: %w", id, err)
		}
		output.Success(cmd.OutOrStdout(), "user %d deleted", id)
		return nil
	},
}

func init() {
	usersCmd.AddCommand(
		usersListCmd,
		setAccessCmd("grant", "Allow a user to post and read suggestions", true),
		setAccessCmd("revoke", "Stop a user from posting and reading suggestions", false),
		usersDeleteCmd,
	)
	rootCmd.AddCommand(usersCmd)
}
