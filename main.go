package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	embedcmd "github.com/Doomwhite/obsidian-link-embed/internal/embed"
	historycmd "github.com/Doomwhite/obsidian-link-embed/internal/history"
)

func main() {
	app := &cli.App{
		Name:  "link-embed",
		Usage: "turn URLs into rich embed blocks inside markdown notes",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
		},
		Commands: []*cli.Command{
			{
				Name:  "embed",
				Usage: "resolve a URL and commit an embed block into a note",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "URL to embed (stdin when omitted)"},
					&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "markdown note to edit"},
					&cli.StringFlag{Name: "parser", Aliases: []string{"p"}, Usage: "use a single named parser instead of the fallback chain"},
					&cli.StringFlag{Name: "parser-order", Usage: "comma-separated parser fallback order"},
					&cli.BoolFlag{Name: "in-place", Usage: "replace the selected URL line with the embed"},
					&cli.IntFlag{Name: "delay", Usage: "delay in milliseconds before committing"},
					&cli.BoolFlag{Name: "dry-run", Usage: "print the resulting note instead of writing it"},
					&cli.BoolFlag{Name: "no-history", Usage: "skip the history database"},
					&cli.BoolFlag{Name: "debug", Usage: "verbose parser logging"},
					&cli.StringFlag{Name: "vault", Usage: "vault root directory"},
					&cli.StringFlag{Name: "attachments", Usage: "attachment directory for downloaded images"},
					&cli.StringFlag{Name: "serving-base", Usage: "base URL images are served from"},
					&cli.StringFlag{Name: "user-agent", Usage: "HTTP User-Agent header"},
					&cli.IntFlag{Name: "timeout", Usage: "HTTP timeout in seconds"},
					&cli.StringFlag{Name: "config", Usage: "yaml settings file"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
				},
				Action: embedcmd.EmbedAction,
			},
			{
				Name:  "parsers",
				Usage: "list registered parsers and the active fallback order",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parser-order", Usage: "comma-separated parser fallback order"},
					&cli.StringFlag{Name: "config", Usage: "yaml settings file"},
				},
				Action: embedcmd.ParsersAction,
			},
			{
				Name:  "history",
				Usage: "inspect recorded embeds",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "vault", Usage: "vault root directory"},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum rows to show"},
					&cli.BoolFlag{Name: "json", Usage: "output JSON"},
					&cli.BoolFlag{Name: "yaml", Usage: "output YAML"},
				},
				Action: historycmd.ListAction,
				Subcommands: []*cli.Command{
					{
						Name:  "attempts",
						Usage: "show the parser attempt log for a URL",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "vault", Usage: "vault root directory"},
							&cli.StringFlag{Name: "url", Usage: "URL to inspect", Required: true},
						},
						Action: historycmd.AttemptsAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
