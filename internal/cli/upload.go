package cli

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mcoot/scoresnap/internal/api/response"
	"github.com/mcoot/scoresnap/internal/model"
)

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Scoreboard upload commands",
	}

	cmd.AddCommand(newUploadSubmitCmd())
	cmd.AddCommand(newUploadShowCmd())
	cmd.AddCommand(newUploadAnalyzeCmd())
	cmd.AddCommand(newUploadPersistCmd())

	return cmd
}

func newUploadSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <file>",
		Short: "Submit a scoreboard photo or a parsed scoreboard JSON file",
		Long: `Submit a scoreboard. Files ending in .json are sent as an already
parsed scoreboard; anything else is uploaded as a photo for extraction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			var result response.UploadResponse
			if strings.EqualFold(filepath.Ext(path), ".json") {
				var parsed model.ParsedScoreboard
				if err := json.Unmarshal(data, &parsed); err != nil {
					return fmt.Errorf("invalid scoreboard file: %w", err)
				}
				err = client.Post(cmd.Context(), "/api/v1/uploads", &parsed, &result)
			} else {
				err = client.PostFile(cmd.Context(), "/api/v1/uploads", "image", filepath.Base(path), imageType(path, data), data, &result)
			}
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

// imageType guesses a photo's MIME type from its extension, then its content
func imageType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return http.DetectContentType(data)
}

func newUploadShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an upload and its name analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.UploadResponse
			if err := client.Get(cmd.Context(), "/api/v1/uploads/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newUploadAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <id>",
		Short: "Re-run name resolution against the current bowlers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.NameAnalysis
			path := "/api/v1/uploads/" + url.PathEscape(args[0]) + "/analyze"
			if err := client.Post(cmd.Context(), path, nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newUploadPersistCmd() *cobra.Command {
	var (
		mappings    map[string]string
		recordAlias bool
	)

	cmd := &cobra.Command{
		Use:   "persist <id>",
		Short: "Save an upload's games into a session",
		Long: `Save an upload's games. Use --map to assign scoreboard names to
existing bowlers, for example --map Rich=<bowler-id>. An empty id creates
a new bowler for that name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{}
			if len(mappings) > 0 {
				m := make(map[string]any, len(mappings))
				for name, id := range mappings {
					m[name] = map[string]any{"bowler_id": id, "record_alias": recordAlias}
				}
				body["mappings"] = m
			}

			var result response.PersistResult
			path := "/api/v1/uploads/" + url.PathEscape(args[0]) + "/persist"
			if err := client.Post(cmd.Context(), path, body, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			if !result.Success {
				return fmt.Errorf("persist failed: %s", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&mappings, "map", nil, "Scoreboard name to bowler id, repeatable")
	cmd.Flags().BoolVar(&recordAlias, "record-alias", false, "Remember mapped names as aliases")

	return cmd
}
