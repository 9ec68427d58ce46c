package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/scoresnap/internal/api/response"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Bowling session commands",
	}

	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionExportCmd())
	cmd.AddCommand(newSessionAlleysCmd())

	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.Session
			if err := client.Get(cmd.Context(), "/api/v1/sessions", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every series and team total in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SessionSummary
			if err := client.Get(cmd.Context(), "/api/v1/sessions/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Download a session as an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = fmt.Sprintf("session-%s.xlsx", args[0])
			}
			f, err := os.Create(file)
			if err != nil {
				return err
			}

			path := "/api/v1/sessions/" + url.PathEscape(args[0]) + "/export"
			if err := client.Download(cmd.Context(), path, f); err != nil {
				_ = f.Close()
				_ = os.Remove(file)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			output(cmd).PrintMessage("Exported to " + file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default session-<id>.xlsx)")

	return cmd
}

func newSessionAlleysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alleys",
		Short: "Show averages per bowling alley",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []response.AlleyStats
			if err := client.Get(cmd.Context(), "/api/v1/alleys/stats", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
