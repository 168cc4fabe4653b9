package parser

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Doomwhite/obsidian-link-embed/models"
)

// Fetcher combines the transport needs of every built-in parser.
type Fetcher interface {
	HTMLFetcher
	DocumentFetcher
	JSONFetcher
}

// Registry maps parser names to strategies. Lookup of an unknown name is a
// ParseError so a misconfigured chain degrades like any other failed
// attempt instead of crashing the operation.
type Registry struct {
	parsers map[string]Parser
}

// NewEmptyRegistry builds a registry with no parsers, for callers that
// register their own strategies.
func NewEmptyRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// NewRegistry builds a registry holding every built-in parser, with debug
// flags applied from settings.
func NewRegistry(f Fetcher, settings *models.Settings, logger *slog.Logger) *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register(NewLocalParser(f, logger))
	r.Register(NewOpenGraphParser(f, logger))
	r.Register(NewJSONLinkParser(f, logger))
	r.Register(NewMicrolinkParser(f, logger))
	r.Register(NewIframelyParser(f, logger))

	if settings != nil && settings.Debug {
		for _, p := range r.parsers {
			p.SetDebug(true)
		}
	}
	return r
}

// Register adds or replaces a parser under its own name.
func (r *Registry) Register(p Parser) {
	r.parsers[p.Name()] = p
}

// Get returns the parser registered under name.
func (r *Registry) Get(name string) (Parser, error) {
	p, ok := r.parsers[name]
	if !ok {
		return nil, fmt.Errorf("no parser registered under %q", name)
	}
	return p, nil
}

// Parse runs the named parser against rawURL. Unknown names fail with a
// ParseError carrying the requested name.
func (r *Registry) Parse(ctx context.Context, name, rawURL string) (*models.ParseResult, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, &ParseError{Parser: name, URL: rawURL, Err: err}
	}
	return p.Parse(ctx, rawURL)
}

// Names lists every registered parser name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
