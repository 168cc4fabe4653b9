// Package parser implements the named metadata parser strategies. Each
// parser turns a URL into title/description/image/url metadata; callers
// chain them in priority order through pkg/resolver.
package parser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Doomwhite/obsidian-link-embed/models"
)

// Parser is one metadata extraction strategy.
type Parser interface {
	Name() string
	Parse(ctx context.Context, rawURL string) (*models.ParseResult, error)
	SetDebug(debug bool)
}

// ParseError reports one failed parser attempt. It is recoverable: the
// caller advances to the next parser in the chain.
type ParseError struct {
	Parser string
	URL    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser %s failed for %s: %v", e.Parser, e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// normalizeResult trims whitespace and guarantees every field is a real
// string. A result with no usable canonical URL falls back to the input.
func normalizeResult(result *models.ParseResult, rawURL string) *models.ParseResult {
	result.Title = collapseWhitespace(result.Title)
	result.Description = collapseWhitespace(result.Description)
	result.ImageURL = strings.TrimSpace(result.ImageURL)
	result.URL = strings.TrimSpace(result.URL)
	if result.URL == "" {
		result.URL = rawURL
	}
	result.ImageURL = resolveAgainst(result.URL, result.ImageURL)
	return result
}

// collapseWhitespace trims a string and folds internal runs of whitespace
// into single spaces, so multi-line meta content renders on one line.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveAgainst makes ref absolute relative to base. Already-absolute refs
// and unparseable input pass through unchanged.
func resolveAgainst(base, ref string) string {
	if ref == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
