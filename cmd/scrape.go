package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/newscope/internal/extract"
	"github.com/jonesrussell/newscope/internal/structure"
)

// contentPreviewChars limits how much article body the table shows.
const contentPreviewChars = 200

// scrapeCommand returns the command that scrapes a single article URL.
func scrapeCommand() *cobra.Command {
	var (
		noBrowser       bool
		titleSelector   string
		contentSelector string
	)

	cmd := &cobra.Command{
		Use:   "scrape [url]",
		Short: "Scrape an article from a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg, log, !noBrowser)
			if err != nil {
				return err
			}
			defer p.close()

			var supplied *structure.SelectorConfig
			if titleSelector != "" || contentSelector != "" {
				supplied = &structure.SelectorConfig{
					TitleSelector:   titleSelector,
					ContentSelector: contentSelector,
					Confidence:      1.0,
				}
			}

			article, err := p.scraper.ScrapeArticle(cmd.Context(), args[0], supplied)
			if err != nil {
				return err
			}

			renderArticle(args[0], article)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "disable the headless browser fallback")
	cmd.Flags().StringVar(&titleSelector, "title-selector", "", "skip structure detection and use this title selector")
	cmd.Flags().StringVar(&contentSelector, "content-selector", "", "skip structure detection and use this content selector")

	return cmd
}

// renderArticle displays a scraped article in a table.
func renderArticle(url string, article extract.ArticleContent) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"URL", url})
	t.AppendRow(table.Row{"Title", article.Title})
	t.AppendRow(table.Row{"Author", article.Author})

	published := ""
	if !article.PublishDate.IsZero() {
		published = article.PublishDate.Format("2006-01-02")
	}
	t.AppendRow(table.Row{"Published", published})
	t.AppendRow(table.Row{"Method", article.ExtractionMethod})
	t.AppendRow(table.Row{"Confidence", fmt.Sprintf("%.2f", article.Confidence)})
	t.AppendRow(table.Row{"Content", previewText(article.Content, contentPreviewChars)})

	t.Render()
}

// previewText truncates s for table display.
func previewText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
