// Package embed implements the embed CLI command: turn a URL into a
// rendered embed block inside a markdown note.
package embed

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Doomwhite/obsidian-link-embed/models"
	"github.com/Doomwhite/obsidian-link-embed/pkg/db"
	"github.com/Doomwhite/obsidian-link-embed/pkg/detector"
	"github.com/Doomwhite/obsidian-link-embed/pkg/document"
	"github.com/Doomwhite/obsidian-link-embed/pkg/fetcher"
	"github.com/Doomwhite/obsidian-link-embed/pkg/imagestore"
	"github.com/Doomwhite/obsidian-link-embed/pkg/parser"
	"github.com/Doomwhite/obsidian-link-embed/pkg/protocol"
	"github.com/Doomwhite/obsidian-link-embed/pkg/resolver"
)

// NewLogger builds the shared JSON logger on stderr.
func NewLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// LoadCLISettings merges an optional config file with CLI flags; flags win.
func LoadCLISettings(c *cli.Context) (*models.Settings, error) {
	settings := models.DefaultSettings()
	if c.IsSet("config") {
		loaded, err := models.LoadSettings(c.String("config"))
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	if c.IsSet("parser-order") {
		order := strings.Split(c.String("parser-order"), ",")
		for i := range order {
			order[i] = strings.TrimSpace(order[i])
		}
		settings.ParserOrder = order
	}
	if c.IsSet("in-place") {
		settings.InPlace = c.Bool("in-place")
	}
	if c.IsSet("delay") {
		settings.CommitDelayMs = c.Int("delay")
	}
	if c.IsSet("debug") {
		settings.Debug = c.Bool("debug")
	}
	if c.IsSet("vault") {
		settings.VaultDir = c.String("vault")
	}
	if c.IsSet("attachments") {
		settings.AttachmentDir = c.String("attachments")
	}
	if c.IsSet("serving-base") {
		settings.ServingBase = c.String("serving-base")
	}
	if c.IsSet("user-agent") {
		settings.UserAgent = c.String("user-agent")
	}
	if c.IsSet("timeout") {
		settings.TimeoutSeconds = c.Int("timeout")
	}
	return settings, nil
}

// inputText returns the URL candidate: the --url flag, or stdin when the
// flag is absent (pipe-friendly, mirrors pasting from the clipboard).
func inputText(c *cli.Context) (string, error) {
	if c.IsSet("url") {
		return c.String("url"), nil
	}
	data, err := io.ReadAll(io.LimitReader(os.Stdin, 1<<16))
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// buildSelection finds the first note line whose content is exactly the
// URL. When found, that line becomes a replaceable selection boundary for
// in-place mode.
func buildSelection(buffer *document.Buffer, text string) models.Selection {
	sel := models.Selection{Text: text}
	for i := 0; i < buffer.LineCount(); i++ {
		line, err := buffer.Line(i)
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == text && text != "" {
			sel.Boundary = &models.Range{
				Start: models.Position{Line: i, Col: 0},
				End:   models.Position{Line: i, Col: len([]rune(line))},
			}
			sel.Replaceable = true
			buffer.SetCursor(sel.Boundary.Start)
			break
		}
	}
	return sel
}

func EmbedAction(c *cli.Context) error {
	logger := NewLogger(c.Bool("quiet"))

	settings, err := LoadCLISettings(c)
	if err != nil {
		return err
	}

	text, err := inputText(c)
	if err != nil {
		return err
	}
	if !detector.IsURL(text) {
		return fmt.Errorf("input is not a URL: %q", text)
	}

	notePath := c.String("note")
	var buffer *document.Buffer
	if notePath != "" {
		buffer, err = document.LoadFile(notePath)
		if err != nil {
			return err
		}
	} else if c.Bool("dry-run") {
		buffer = document.NewBuffer("")
	} else {
		return fmt.Errorf("--note is required unless --dry-run is set")
	}

	// Default cursor: end of the document.
	lastLine, err := buffer.Line(buffer.LineCount() - 1)
	if err != nil {
		return err
	}
	buffer.SetCursor(models.Position{Line: buffer.LineCount() - 1, Col: len([]rune(lastLine))})

	sel := buildSelection(buffer, text)

	attachmentDir := settings.AttachmentDir
	if !filepath.IsAbs(attachmentDir) && settings.VaultDir != "" {
		attachmentDir = filepath.Join(settings.VaultDir, attachmentDir)
	}
	settings.AttachmentDir = attachmentDir

	f := fetcher.NewFetcher(
		fetcher.WithTimeout(time.Duration(settings.TimeoutSeconds)*time.Second),
		fetcher.WithUserAgent(settings.UserAgent),
	)
	registry := parser.NewRegistry(f, settings, logger)
	store := imagestore.NewStore(f)
	notifier := &document.LogNotifier{Logger: logger}

	var history *db.DB
	if !c.Bool("no-history") {
		history, err = db.Open(settings.VaultDir)
		if err != nil {
			logger.Warn("failed to open history database, continuing without history", "error", err)
		} else {
			defer history.Close()
		}
	}

	var sink resolver.AttemptSink
	var saver protocol.HistorySink
	if history != nil {
		sink = history
		saver = history
	}

	res := resolver.NewResolver(registry, logger, sink)
	runner := protocol.NewRunner(res, store, settings, notifier, logger, saver)

	op, runErr := runner.Embed(c.Context, buffer, sel, c.String("parser"))
	logger.Info("operation finished", "url", op.URL, "state", op.State())

	if c.Bool("dry-run") {
		fmt.Println(buffer.Text())
	} else if err := buffer.SaveFile(notePath); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("embed operation aborted: %w", runErr)
	}
	return nil
}

// ParsersAction lists the registered parser names and the active order.
func ParsersAction(c *cli.Context) error {
	logger := NewLogger(true)
	settings, err := LoadCLISettings(c)
	if err != nil {
		return err
	}

	registry := parser.NewRegistry(fetcher.NewFetcher(), settings, logger)
	fmt.Println("Registered parsers:")
	for _, name := range registry.Names() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("Default order: %s\n", strings.Join(settings.ParserOrder, ", "))
	return nil
}
