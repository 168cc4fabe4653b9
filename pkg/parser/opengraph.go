package parser

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Doomwhite/obsidian-link-embed/models"
)

// DocumentFetcher is the slice of the fetcher the meta-only parser needs:
// it never touches the raw bytes, only the parsed document.
type DocumentFetcher interface {
	GetHTML(ctx context.Context, url string) (*goquery.Document, error)
}

// OpenGraphParser scrapes only the page's meta tags. Cheaper than the local
// parser (no readability pass) and works on pages whose body defeats
// content distillation, but it needs the site to declare its metadata.
type OpenGraphParser struct {
	fetcher DocumentFetcher
	logger  *slog.Logger
	debug   bool
}

func NewOpenGraphParser(f DocumentFetcher, logger *slog.Logger) *OpenGraphParser {
	return &OpenGraphParser{fetcher: f, logger: logger}
}

func (p *OpenGraphParser) Name() string { return "opengraph" }

func (p *OpenGraphParser) SetDebug(debug bool) { p.debug = debug }

func (p *OpenGraphParser) Parse(ctx context.Context, rawURL string) (*models.ParseResult, error) {
	doc, err := p.fetcher.GetHTML(ctx, rawURL)
	if err != nil {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: err}
	}

	result := &models.ParseResult{
		Title:       firstMeta(doc, "og:title", "twitter:title"),
		Description: firstMeta(doc, "og:description", "description", "twitter:description"),
		ImageURL:    firstMeta(doc, "og:image", "twitter:image"),
		URL:         rawURL,
	}
	if result.Title == "" {
		result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	fillFromMeta(doc, result)

	if result.Title == "" && result.Description == "" {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: errors.New("page declares no usable metadata")}
	}

	if p.debug {
		p.logger.Debug("opengraph parse complete", "url", rawURL, "title", result.Title)
	}
	return normalizeResult(result, rawURL), nil
}
