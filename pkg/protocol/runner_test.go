package protocol

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Doomwhite/obsidian-link-embed/models"
	"github.com/Doomwhite/obsidian-link-embed/pkg/document"
	"github.com/Doomwhite/obsidian-link-embed/pkg/embed"
)

type fakeResolver struct {
	result    *models.ParseResult
	parser    string
	err       error
	onResolve func()
	calls     int
}

func (f *fakeResolver) Resolve(ctx context.Context, rawURL string, parserNames []string) (*models.ParseResult, string, error) {
	f.calls++
	if f.onResolve != nil {
		f.onResolve()
	}
	if f.err != nil {
		return nil, "", f.err
	}
	return f.result, f.parser, nil
}

type fakeStore struct {
	img   *models.DownloadedImage
	err   error
	calls int
}

func (f *fakeStore) Store(ctx context.Context, sourceURL, destDir string) (*models.DownloadedImage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(message string) {
	f.messages = append(f.messages, message)
}

type fakeHistory struct {
	urls       []string
	canonicals []string
	parsers    []string
}

func (f *fakeHistory) SaveEmbed(url, canonicalURL, title, description, imageFile, contentHash, parserName, language string) error {
	f.urls = append(f.urls, url)
	f.canonicals = append(f.canonicals, canonicalURL)
	f.parsers = append(f.parsers, parserName)
	return nil
}

func testSettings() *models.Settings {
	settings := models.DefaultSettings()
	settings.AttachmentDir = "attachments"
	settings.ServingBase = "http://localhost:8181"
	return settings
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func goodResolver() *fakeResolver {
	return &fakeResolver{
		result: &models.ParseResult{
			Title:       "T",
			Description: "D",
			ImageURL:    "https://img/x.png",
			URL:         "https://example.com/page",
		},
		parser: "primary",
	}
}

func goodStore() *fakeStore {
	return &fakeStore{
		img: &models.DownloadedImage{
			ContentHash: "abc123",
			Extension:   "png",
			FinalName:   "abc123.png",
			FinalPath:   "attachments/abc123.png",
		},
	}
}

func TestEmbedHappyPath(t *testing.T) {
	buffer := document.NewBuffer("")
	notifier := &fakeNotifier{}
	history := &fakeHistory{}
	resolver := goodResolver()
	// The parser resolved a canonical that differs from the input URL.
	resolver.result.URL = "https://example.com/canonical"
	runner := NewRunner(resolver, goodStore(), testSettings(), notifier, testLogger(), history)

	sel := models.Selection{Text: "https://example.com/page"}
	op, err := runner.Embed(context.Background(), buffer, sel, "")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	if op.State() != StateCommitted {
		t.Errorf("state = %s, want committed", op.State())
	}

	text := buffer.Text()
	for _, want := range []string{
		`title: "T"`,
		`image: "http://localhost:8181/abc123.png"`,
		`description: "D"`,
		`url: "https://example.com/canonical"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("document missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, embed.PlaceholderTitle) {
		t.Errorf("placeholder still present:\n%s", text)
	}
	if len(notifier.messages) != 0 {
		t.Errorf("unexpected notices: %v", notifier.messages)
	}
	if len(history.urls) != 1 || history.parsers[0] != "primary" {
		t.Errorf("history = %v/%v, want one record from primary", history.urls, history.parsers)
	}
	if len(history.canonicals) != 1 || history.canonicals[0] != "https://example.com/canonical" {
		t.Errorf("history canonicals = %v, want the resolved canonical", history.canonicals)
	}
}

func TestEmbedInsertsBelowNonEmptyLine(t *testing.T) {
	buffer := document.NewBuffer("existing note text")
	buffer.SetCursor(models.Position{Line: 0, Col: 5})
	runner := NewRunner(goodResolver(), goodStore(), testSettings(), &fakeNotifier{}, testLogger(), nil)

	op, err := runner.Embed(context.Background(), buffer, models.Selection{Text: "https://example.com/page"}, "")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	if op.Region.Start != (models.Position{Line: 1, Col: 0}) {
		t.Errorf("placeholder start = %v, want line 1 col 0", op.Region.Start)
	}
	firstLine, _ := buffer.Line(0)
	if firstLine != "existing note text" {
		t.Errorf("existing line was modified: %q", firstLine)
	}
}

func TestEmbedInPlaceReplacesSelection(t *testing.T) {
	url := "https://example.com/page"
	buffer := document.NewBuffer("before\n" + url + "\nafter")
	settings := testSettings()
	settings.InPlace = true
	runner := NewRunner(goodResolver(), goodStore(), settings, &fakeNotifier{}, testLogger(), nil)

	sel := models.Selection{
		Text: url,
		Boundary: &models.Range{
			Start: models.Position{Line: 1, Col: 0},
			End:   models.Position{Line: 1, Col: len([]rune(url))},
		},
		Replaceable: true,
	}
	if _, err := runner.Embed(context.Background(), buffer, sel, ""); err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	text := buffer.Text()
	if strings.Contains(text, url+"\n") && !strings.Contains(text, `url: "`+url+`"`) {
		t.Errorf("selection not replaced:\n%s", text)
	}
	if !strings.HasPrefix(text, "before\n") || !strings.HasSuffix(text, "\nafter") {
		t.Errorf("surrounding lines disturbed:\n%s", text)
	}
}

func TestEmbedResolutionFailureLeavesPlaceholder(t *testing.T) {
	buffer := document.NewBuffer("")
	notifier := &fakeNotifier{}
	store := goodStore()
	runner := NewRunner(&fakeResolver{err: errors.New("all parsers failed")}, store, testSettings(), notifier, testLogger(), nil)

	op, err := runner.Embed(context.Background(), buffer, models.Selection{Text: "https://example.com/page"}, "")
	if err == nil {
		t.Fatal("Embed() succeeded, want error")
	}

	if op.State() != StateAborted {
		t.Errorf("state = %s, want aborted", op.State())
	}
	if !strings.Contains(buffer.Text(), embed.PlaceholderTitle) {
		t.Errorf("placeholder missing after abort:\n%s", buffer.Text())
	}
	if len(notifier.messages) != 1 {
		t.Errorf("got %d notices, want exactly 1: %v", len(notifier.messages), notifier.messages)
	}
	if store.calls != 0 {
		t.Errorf("image store invoked %d times after resolution failure", store.calls)
	}
}

func TestEmbedImageFailureAborts(t *testing.T) {
	buffer := document.NewBuffer("")
	notifier := &fakeNotifier{}
	runner := NewRunner(goodResolver(), &fakeStore{err: errors.New("download failed")}, testSettings(), notifier, testLogger(), nil)

	op, err := runner.Embed(context.Background(), buffer, models.Selection{Text: "https://example.com/page"}, "")
	if err == nil {
		t.Fatal("Embed() succeeded, want error")
	}
	if op.State() != StateAborted {
		t.Errorf("state = %s, want aborted", op.State())
	}
	if !strings.Contains(buffer.Text(), embed.PlaceholderTitle) {
		t.Errorf("placeholder missing after abort:\n%s", buffer.Text())
	}
	if len(notifier.messages) != 1 {
		t.Errorf("got %d notices, want exactly 1", len(notifier.messages))
	}
}

func TestEmbedConflictCancelsCommit(t *testing.T) {
	buffer := document.NewBuffer("")
	notifier := &fakeNotifier{}
	resolver := goodResolver()

	// Simulate the user editing the placeholder while the fetch is in
	// flight: mutate one character of the placeholder during resolution.
	var editedText string
	resolver.onResolve = func() {
		start := models.Position{Line: 0, Col: 0}
		end := models.Position{Line: 0, Col: 1}
		if err := buffer.ReplaceRange(start, end, "X"); err != nil {
			t.Fatalf("failed to simulate edit: %v", err)
		}
		editedText = buffer.Text()
	}

	runner := NewRunner(resolver, goodStore(), testSettings(), notifier, testLogger(), nil)
	op, err := runner.Embed(context.Background(), buffer, models.Selection{Text: "https://example.com/page"}, "")

	var conflict *DocumentConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("Embed() error = %v, want DocumentConflict", err)
	}
	if op.State() != StateAborted {
		t.Errorf("state = %s, want aborted", op.State())
	}
	if buffer.Text() != editedText {
		t.Errorf("document changed by cancelled commit:\ngot:\n%s\nwant:\n%s", buffer.Text(), editedText)
	}
	if len(notifier.messages) != 1 {
		t.Errorf("got %d notices, want exactly 1", len(notifier.messages))
	}
	if strings.Contains(buffer.Text(), `title: "T"`) {
		t.Errorf("final embed force-inserted despite conflict:\n%s", buffer.Text())
	}
}

func TestEmbedWithoutImageURL(t *testing.T) {
	buffer := document.NewBuffer("")
	resolver := goodResolver()
	resolver.result.ImageURL = ""
	store := goodStore()
	runner := NewRunner(resolver, store, testSettings(), &fakeNotifier{}, testLogger(), nil)

	op, err := runner.Embed(context.Background(), buffer, models.Selection{Text: "https://example.com/page"}, "")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if op.State() != StateCommitted {
		t.Errorf("state = %s, want committed", op.State())
	}
	if store.calls != 0 {
		t.Errorf("image store invoked %d times for imageless result", store.calls)
	}
	if !strings.Contains(buffer.Text(), `image: ""`) {
		t.Errorf("expected empty image field:\n%s", buffer.Text())
	}
}

func TestEmbedCommitDelayUsesInjectedSleep(t *testing.T) {
	buffer := document.NewBuffer("")
	settings := testSettings()
	settings.CommitDelayMs = 250

	runner := NewRunner(goodResolver(), goodStore(), settings, &fakeNotifier{}, testLogger(), nil)
	var slept []int64
	runner.sleep = func(ctx context.Context, d time.Duration) {
		slept = append(slept, d.Milliseconds())
	}

	if _, err := runner.Embed(context.Background(), buffer, models.Selection{Text: "https://example.com/page"}, ""); err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(slept) != 1 || slept[0] != 250 {
		t.Errorf("sleep calls = %v, want one 250ms delay", slept)
	}
}

func TestOperationTransitionGuard(t *testing.T) {
	op := &Operation{state: StateIdle}
	if err := op.transition(StateCommitted); err == nil {
		t.Error("idle -> committed allowed, want rejection")
	}
	if err := op.transition(StatePlaceholderInserted); err != nil {
		t.Errorf("idle -> placeholder_inserted rejected: %v", err)
	}
}
