// Package history implements the history CLI commands over the embed
// database.
package history

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	dbpkg "github.com/Doomwhite/obsidian-link-embed/pkg/db"
)

type embedRow struct {
	URL       string `json:"url" yaml:"url"`
	Title     string `json:"title" yaml:"title"`
	Parser    string `json:"parser" yaml:"parser"`
	ImageFile string `json:"image_file,omitempty" yaml:"image_file,omitempty"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

func ListAction(c *cli.Context) error {
	database, err := dbpkg.Open(c.String("vault"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	embeds, err := database.ListEmbeds(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list embeds: %w", err)
	}

	if len(embeds) == 0 {
		fmt.Println("No embeds recorded")
		return nil
	}

	rows := make([]embedRow, len(embeds))
	for i, e := range embeds {
		rows[i] = embedRow{
			URL:       e.URL,
			Title:     e.Title,
			Parser:    e.Parser,
			ImageFile: e.ImageFile,
			Language:  e.Language,
			CreatedAt: e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	switch {
	case c.Bool("json"):
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case c.Bool("yaml"):
		return yaml.NewEncoder(os.Stdout).Encode(rows)
	default:
		for _, row := range rows {
			fmt.Printf("%s  [%s]  %s  %s\n", row.CreatedAt, row.Parser, row.URL, row.Title)
		}
		return nil
	}
}

func AttemptsAction(c *cli.Context) error {
	url := c.String("url")
	if url == "" {
		return fmt.Errorf("--url is required")
	}

	database, err := dbpkg.Open(c.String("vault"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	attempts, err := database.AttemptsForURL(url)
	if err != nil {
		return fmt.Errorf("failed to load attempts: %w", err)
	}

	if len(attempts) == 0 {
		fmt.Printf("No attempts recorded for %s\n", url)
		return nil
	}

	for _, a := range attempts {
		status := "ok"
		if !a.Success {
			status = "failed"
			if a.ErrorType != "" {
				status = a.ErrorType
			}
		}
		fmt.Printf("%s  %-10s  %s\n", a.AttemptedAt.Format("2006-01-02 15:04:05"), a.Parser, status)
	}
	return nil
}
