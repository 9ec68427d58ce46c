package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/scoresnap/internal/api/response"
)

func newBowlerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bowler",
		Short: "Bowler commands",
	}

	cmd.AddCommand(newBowlerSearchCmd())
	cmd.AddCommand(newBowlerCreateCmd())
	cmd.AddCommand(newBowlerShowCmd())
	cmd.AddCommand(newBowlerAliasCmd())
	cmd.AddCommand(newBowlerResolveCmd())
	cmd.AddCommand(newBowlerStatsCmd())

	return cmd
}

func newBowlerSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search bowlers by name, or list them all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if len(args) == 1 {
				q.Set("q", args[0])
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/v1/bowlers"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result []response.Bowler
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results")

	return cmd
}

func newBowlerCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a bowler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Bowler
			if err := client.Post(cmd.Context(), "/api/v1/bowlers", map[string]string{"name": args[0]}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newBowlerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a bowler and their aliases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.BowlerDetail
			if err := client.Get(cmd.Context(), "/api/v1/bowlers/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newBowlerAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias <id> <alias>",
		Short: "Record another spelling of a bowler's name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.BowlerDetail
			path := "/api/v1/bowlers/" + url.PathEscape(args[0]) + "/aliases"
			if err := client.Post(cmd.Context(), path, map[string]string{"alias": args[1]}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newBowlerResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show which bowler a scoreboard name resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.NameResolution
			if err := client.Post(cmd.Context(), "/api/v1/bowlers/resolve", map[string]string{"name": args[0]}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newBowlerStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <id>",
		Short: "Show a bowler's statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.BowlerStats
			if err := client.Get(cmd.Context(), "/api/v1/bowlers/"+url.PathEscape(args[0])+"/stats", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
