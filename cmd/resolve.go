package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/newscope/internal/redirect"
)

// resolveCommand returns the command that traces redirects for a URL.
func resolveCommand() *cobra.Command {
	var useBrowser bool

	cmd := &cobra.Command{
		Use:   "resolve [url]",
		Short: "Trace the redirect chain for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			resolver := redirect.NewResolver(log)
			opts := redirect.Options{
				MaxRedirects:      cfg.Redirect.MaxRedirects,
				Timeout:           cfg.Redirect.Timeout,
				FollowMetaRefresh: cfg.Redirect.FollowMetaRefresh,
				FollowJavaScript:  cfg.Redirect.FollowJavaScript,
				UserAgent:         cfg.Fetch.UserAgent,
			}

			var info redirect.RedirectInfo
			if useBrowser {
				info = resolver.ResolveBrowser(cmd.Context(), args[0], opts)
			} else {
				info = resolver.ResolveHTTP(cmd.Context(), args[0], opts)
			}

			renderRedirects(info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useBrowser, "browser", false, "resolve with a headless browser instead of HTTP probes")

	return cmd
}

// renderRedirects displays a redirect chain in a table.
func renderRedirects(info redirect.RedirectInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Hop", "URL"})
	for i, hop := range info.RedirectChain {
		t.AppendRow(table.Row{i, hop})
	}
	t.AppendFooter(table.Row{"Final", info.FinalURL})

	t.Render()

	if info.Diagnostic != "" {
		t2 := table.NewWriter()
		t2.SetOutputMirror(os.Stdout)
		t2.SetStyle(table.StyleLight)
		t2.AppendRow(table.Row{"Diagnostic", info.Diagnostic})
		t2.Render()
	}
}
