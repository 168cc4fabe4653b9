package protocol

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Doomwhite/obsidian-link-embed/models"
	"github.com/Doomwhite/obsidian-link-embed/pkg/document"
	"github.com/Doomwhite/obsidian-link-embed/pkg/fetcher"
	"github.com/Doomwhite/obsidian-link-embed/pkg/imagestore"
	"github.com/Doomwhite/obsidian-link-embed/pkg/parser"
	"github.com/Doomwhite/obsidian-link-embed/pkg/resolver"
)

// stubParser is a canned parser strategy for end to end runs.
type stubParser struct {
	name   string
	result *models.ParseResult
	fail   bool
	calls  int
}

func (p *stubParser) Name() string  { return p.name }
func (p *stubParser) SetDebug(bool) {}
func (p *stubParser) Parse(ctx context.Context, rawURL string) (*models.ParseResult, error) {
	p.calls++
	if p.fail {
		return nil, &parser.ParseError{Parser: p.name, URL: rawURL, Err: errors.New("stub failure")}
	}
	return p.result, nil
}

func newPipeline(t *testing.T, attachDir string, parsers ...parser.Parser) (*Runner, *fakeNotifier, *models.Settings) {
	t.Helper()
	registry := parser.NewEmptyRegistry()
	for _, p := range parsers {
		registry.Register(p)
	}

	settings := testSettings()
	settings.AttachmentDir = attachDir

	notifier := &fakeNotifier{}
	res := resolver.NewResolver(registry, testLogger(), nil)
	store := imagestore.NewStore(fetcher.NewFetcher())
	return NewRunner(res, store, settings, notifier, testLogger(), nil), notifier, settings
}

func TestEndToEndEmbed(t *testing.T) {
	imageBytes := []byte("png payload")
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(imageBytes)
	}))
	defer imageServer.Close()

	primary := &stubParser{
		name: "primary",
		result: &models.ParseResult{
			Title:       "T",
			Description: "D",
			ImageURL:    imageServer.URL + "/x.png",
			URL:         "https://example.com/page",
		},
	}

	attachDir := t.TempDir()
	runner, notifier, _ := newPipeline(t, attachDir, primary)

	buffer := document.NewBuffer("")
	sel := models.Selection{Text: "https://example.com/page"}
	op, err := runner.Embed(context.Background(), buffer, sel, "primary")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if op.State() != StateCommitted {
		t.Fatalf("state = %s, want committed", op.State())
	}

	sum := sha256.Sum256(imageBytes)
	wantName := hex.EncodeToString(sum[:]) + ".png"
	if op.Image.FinalName != wantName {
		t.Errorf("FinalName = %q, want %q", op.Image.FinalName, wantName)
	}
	if _, err := os.Stat(filepath.Join(attachDir, wantName)); err != nil {
		t.Errorf("stored image missing: %v", err)
	}

	text := buffer.Text()
	for _, want := range []string{
		`title: "T"`,
		`image: "http://localhost:8181/` + wantName + `"`,
		`url: "https://example.com/page"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("committed embed missing %q:\n%s", want, text)
		}
	}
	if len(notifier.messages) != 0 {
		t.Errorf("unexpected notices: %v", notifier.messages)
	}
}

func TestEndToEndFallback(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("backup image"))
	}))
	defer imageServer.Close()

	primary := &stubParser{name: "primary", fail: true}
	backup := &stubParser{
		name: "backup",
		result: &models.ParseResult{
			Title:       "Backup Title",
			Description: "from the backup parser",
			ImageURL:    imageServer.URL + "/b.png",
			URL:         "https://example.com/page",
		},
	}

	runner, _, settings := newPipeline(t, t.TempDir(), primary, backup)
	settings.ParserOrder = []string{"primary", "backup"}

	buffer := document.NewBuffer("")
	op, err := runner.Embed(context.Background(), buffer, models.Selection{Text: "https://example.com/page"}, "")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	if op.Parser != "backup" {
		t.Errorf("winning parser = %q, want backup", op.Parser)
	}
	if primary.calls != 1 {
		t.Errorf("primary invoked %d times, want exactly 1", primary.calls)
	}
	if !strings.Contains(buffer.Text(), `title: "Backup Title"`) {
		t.Errorf("embed does not reflect backup data:\n%s", buffer.Text())
	}
}

func TestEndToEndAllParsersFail(t *testing.T) {
	primary := &stubParser{name: "primary", fail: true}
	backup := &stubParser{name: "backup", fail: true}

	runner, notifier, settings := newPipeline(t, t.TempDir(), primary, backup)
	settings.ParserOrder = []string{"primary", "backup"}

	buffer := document.NewBuffer("")
	_, err := runner.Embed(context.Background(), buffer, models.Selection{Text: "https://example.com/page"}, "")

	var failed *resolver.ResolutionFailed
	if !errors.As(err, &failed) {
		t.Fatalf("Embed() error = %v, want ResolutionFailed", err)
	}

	text := buffer.Text()
	if !strings.Contains(text, `title: "Fetching"`) {
		t.Errorf("placeholder block missing:\n%s", text)
	}
	if !strings.Contains(text, `description: "https://example.com/page"`) {
		t.Errorf("placeholder description should be the raw URL:\n%s", text)
	}
	if len(notifier.messages) != 1 {
		t.Errorf("got %d notices, want exactly 1", len(notifier.messages))
	}
	if primary.calls != 1 || backup.calls != 1 {
		t.Errorf("invocations = %d/%d, want 1/1", primary.calls, backup.calls)
	}
}
