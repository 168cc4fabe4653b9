package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Doomwhite/obsidian-link-embed/models"
	"github.com/Doomwhite/obsidian-link-embed/pkg/detector"
	"github.com/Doomwhite/obsidian-link-embed/pkg/document"
	"github.com/Doomwhite/obsidian-link-embed/pkg/embed"
)

// MetadataResolver runs the ordered parser fallback chain.
type MetadataResolver interface {
	Resolve(ctx context.Context, rawURL string, parserNames []string) (*models.ParseResult, string, error)
}

// ImageStore downloads and commits a preview image.
type ImageStore interface {
	Store(ctx context.Context, sourceURL, destDir string) (*models.DownloadedImage, error)
}

// HistorySink records committed embeds. Sink failures are logged, never
// escalated; history must not block the protocol.
type HistorySink interface {
	SaveEmbed(url, canonicalURL, title, description, imageFile, contentHash, parserName, language string) error
}

// Runner wires the pipeline collaborators and executes embed operations.
type Runner struct {
	resolver MetadataResolver
	store    ImageStore
	settings *models.Settings
	notifier document.Notifier
	logger   *slog.Logger
	history  HistorySink
	sleep    func(ctx context.Context, d time.Duration)
}

// NewRunner builds a Runner. history may be nil.
func NewRunner(res MetadataResolver, store ImageStore, settings *models.Settings, notifier document.Notifier, logger *slog.Logger, history HistorySink) *Runner {
	return &Runner{
		resolver: res,
		store:    store,
		settings: settings,
		notifier: notifier,
		logger:   logger,
		history:  history,
		sleep:    sleepCtx,
	}
}

// Embed runs one full operation against ed: insert placeholder, resolve
// metadata, fetch the preview image, then conditionally commit. The
// returned Operation always reflects the terminal state. A non-nil error
// means the operation aborted; the placeholder stays in the document.
func (r *Runner) Embed(ctx context.Context, ed document.Editor, sel models.Selection, parserOverride string) (*Operation, error) {
	op := &Operation{
		URL:       strings.TrimSpace(sel.Text),
		Selection: sel,
		state:     StateIdle,
	}

	if err := r.insertPlaceholder(ed, op); err != nil {
		op.state = StateAborted
		return op, err
	}

	if err := op.transition(StateResolving); err != nil {
		return op, err
	}
	result, parserName, err := r.resolver.Resolve(ctx, op.URL, r.parserNames(parserOverride))
	if err != nil {
		r.abort(op, fmt.Sprintf("Failed to fetch link metadata for %s", op.URL))
		return op, err
	}
	op.Result = result
	op.Parser = parserName

	if err := op.transition(StateImageFetching); err != nil {
		return op, err
	}
	finalImageURL, err := r.fetchImage(ctx, op)
	if err != nil {
		r.abort(op, fmt.Sprintf("Failed to store preview image for %s", op.URL))
		return op, err
	}

	if err := op.transition(StateReadyToCommit); err != nil {
		return op, err
	}
	final := embed.Block{
		Title:       result.Title,
		Image:       finalImageURL,
		Description: result.Description,
		URL:         result.URL,
	}
	if delay := r.settings.CommitDelayMs; delay > 0 {
		r.sleep(ctx, time.Duration(delay)*time.Millisecond)
	}

	if err := r.commit(ed, op, final); err != nil {
		return op, err
	}

	r.recordHistory(op)
	return op, nil
}

// insertPlaceholder renders the placeholder embed and puts it into the
// document, recording the exact spanned range and a snapshot of the
// inserted text.
func (r *Runner) insertPlaceholder(ed document.Editor, op *Operation) error {
	rendered := embed.Placeholder(op.URL).Render()

	var start models.Position
	if r.settings.InPlace && op.Selection.Replaceable && op.Selection.Boundary != nil {
		boundary := *op.Selection.Boundary
		if err := ed.ReplaceRange(boundary.Start, boundary.End, ""); err != nil {
			return fmt.Errorf("failed to delete selection: %w", err)
		}
		start = boundary.Start
		if err := ed.InsertAt(start, rendered); err != nil {
			return fmt.Errorf("failed to insert placeholder: %w", err)
		}
	} else {
		cursor := ed.Cursor()
		line, err := ed.Line(cursor.Line)
		if err != nil {
			return fmt.Errorf("failed to read cursor line: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			start = models.Position{Line: cursor.Line, Col: 0}
			if err := ed.InsertAt(start, rendered); err != nil {
				return fmt.Errorf("failed to insert placeholder: %w", err)
			}
		} else {
			// The current line has content: open a fresh line below it so
			// the insertion never overwrites unrelated text.
			lineEnd := models.Position{Line: cursor.Line, Col: len([]rune(line))}
			if err := ed.InsertAt(lineEnd, "\n"+rendered); err != nil {
				return fmt.Errorf("failed to insert placeholder: %w", err)
			}
			start = models.Position{Line: cursor.Line + 1, Col: 0}
		}
	}

	op.Region = PlaceholderRegion{
		Start:        start,
		End:          document.Advance(start, rendered),
		RenderedText: rendered,
	}
	r.logger.Info("placeholder inserted", "url", op.URL, "start", op.Region.Start, "end", op.Region.End)
	return op.transition(StatePlaceholderInserted)
}

// fetchImage stores the preview image and returns the servable URL. A
// result with no image URL skips the download and leaves the embed
// imageless.
func (r *Runner) fetchImage(ctx context.Context, op *Operation) (string, error) {
	if op.Result.ImageURL == "" {
		return "", nil
	}
	img, err := r.store.Store(ctx, op.Result.ImageURL, r.settings.AttachmentDir)
	if err != nil {
		return "", err
	}
	op.Image = img
	return strings.TrimRight(r.settings.ServingBase, "/") + "/" + img.FinalName, nil
}

// commit re-reads the live placeholder region and swaps in the final embed
// only when the region still matches its snapshot byte for byte.
func (r *Runner) commit(ed document.Editor, op *Operation, final embed.Block) error {
	live, err := ed.GetRange(op.Region.Start, op.Region.End)
	if err != nil || live != op.Region.RenderedText {
		conflict := &DocumentConflict{Region: op.Region}
		r.abort(op, "Placeholder was modified, embed cancelled")
		return conflict
	}

	if err := ed.ReplaceRange(op.Region.Start, op.Region.End, final.Render()); err != nil {
		r.abort(op, fmt.Sprintf("Failed to write embed for %s", op.URL))
		return fmt.Errorf("failed to replace placeholder: %w", err)
	}

	if err := op.transition(StateCommitted); err != nil {
		return err
	}
	r.logger.Info("embed committed", "url", op.URL, "parser", op.Parser)
	return nil
}

func (r *Runner) recordHistory(op *Operation) {
	if r.history == nil {
		return
	}
	var imageFile, contentHash string
	if op.Image != nil {
		imageFile = op.Image.FinalName
		contentHash = op.Image.ContentHash
	}
	language := detector.DetectLanguage(op.Result.Title + " " + op.Result.Description)
	if err := r.history.SaveEmbed(op.URL, op.Result.URL, op.Result.Title, op.Result.Description, imageFile, contentHash, op.Parser, language); err != nil {
		r.logger.Warn("failed to record embed history", "url", op.URL, "error", err)
	}
}

// abort marks the operation aborted and surfaces exactly one notice. The
// placeholder is deliberately left in the document.
func (r *Runner) abort(op *Operation, notice string) {
	op.state = StateAborted
	r.notifier.Notify(notice)
}

func (r *Runner) parserNames(override string) []string {
	if override != "" {
		return []string{override}
	}
	return r.settings.ParserOrder
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
