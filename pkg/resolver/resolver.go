// Package resolver runs the ordered parser fallback chain: first success
// wins, parsers run strictly in sequence, and a slow early parser delays
// the fallbacks on purpose so results stay deterministic.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Doomwhite/obsidian-link-embed/models"
	"github.com/Doomwhite/obsidian-link-embed/pkg/parser"
)

// ResolutionFailed means every parser in the chain failed. It carries the
// last attempt's error.
type ResolutionFailed struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ResolutionFailed) Error() string {
	return fmt.Sprintf("all %d parsers failed for %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *ResolutionFailed) Unwrap() error { return e.Err }

// AttemptSink records per-attempt outcomes, typically into the history
// database. Sink failures are logged, never escalated.
type AttemptSink interface {
	RecordAttempt(url, parserName string, success bool, errorType string) error
}

type Resolver struct {
	registry *parser.Registry
	logger   *slog.Logger
	sink     AttemptSink
}

// NewResolver builds a resolver. sink may be nil.
func NewResolver(registry *parser.Registry, logger *slog.Logger, sink AttemptSink) *Resolver {
	return &Resolver{registry: registry, logger: logger, sink: sink}
}

// Resolve tries each named parser in order against rawURL and returns the
// first successful result along with the winning parser's name. Parsers
// after the first success are never invoked. When the list is exhausted it
// returns a ResolutionFailed wrapping the last error.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, parserNames []string) (*models.ParseResult, string, error) {
	if len(parserNames) == 0 {
		return nil, "", &ResolutionFailed{URL: rawURL, Err: errors.New("no parsers configured")}
	}

	var lastErr error
	for _, name := range parserNames {
		result, err := r.registry.Parse(ctx, name, rawURL)
		if err == nil {
			r.record(rawURL, name, true, "")
			r.logger.Info("metadata resolved", "url", rawURL, "parser", name, "title", result.Title)
			return result, name, nil
		}

		lastErr = err
		r.record(rawURL, name, false, errorType(err))
		r.logger.Info("parser attempt failed", "url", rawURL, "parser", name, "error", err)
	}

	return nil, "", &ResolutionFailed{URL: rawURL, Attempts: len(parserNames), Err: lastErr}
}

func (r *Resolver) record(url, name string, success bool, errType string) {
	if r.sink == nil {
		return
	}
	if err := r.sink.RecordAttempt(url, name, success, errType); err != nil {
		r.logger.Warn("failed to record resolve attempt", "url", url, "parser", name, "error", err)
	}
}

func errorType(err error) string {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return "parse_error"
	}
	return "unknown_error"
}
