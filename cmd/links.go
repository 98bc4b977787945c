package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// linksCommand returns the command that lists article links on a source page.
func linksCommand() *cobra.Command {
	var (
		noBrowser bool
		maxLinks  int
	)

	cmd := &cobra.Command{
		Use:   "links [url]",
		Short: "List article links discovered on a source page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if maxLinks > 0 {
				cfg.Scraper.MaxLinks = maxLinks
			}

			p, err := buildPipeline(cfg, log, !noBrowser)
			if err != nil {
				return err
			}
			defer p.close()

			links, err := p.scraper.ScrapeSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			renderLinks(links)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "disable the headless browser fallback")
	cmd.Flags().IntVar(&maxLinks, "max-links", 0, "override the configured link cap")

	return cmd
}

// renderLinks displays discovered links in a table.
func renderLinks(links []string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"#", "URL"})
	for i, link := range links {
		t.AppendRow(table.Row{i + 1, link})
	}

	t.Render()
}
