package parser

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/Doomwhite/obsidian-link-embed/models"
)

// HTMLFetcher is the slice of the fetcher the HTML-scraping parsers need.
type HTMLFetcher interface {
	GetBytes(ctx context.Context, url string) (body []byte, contentType string, err error)
}

// LocalParser extracts metadata without any third-party API: readability
// distills title and excerpt from the page itself, goquery meta tags fill
// whatever readability leaves empty.
type LocalParser struct {
	fetcher HTMLFetcher
	logger  *slog.Logger
	debug   bool
}

func NewLocalParser(f HTMLFetcher, logger *slog.Logger) *LocalParser {
	return &LocalParser{fetcher: f, logger: logger}
}

func (p *LocalParser) Name() string { return "local" }

func (p *LocalParser) SetDebug(debug bool) { p.debug = debug }

func (p *LocalParser) Parse(ctx context.Context, rawURL string) (*models.ParseResult, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: err}
	}

	body, _, err := p.fetcher.GetBytes(ctx, rawURL)
	if err != nil {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: err}
	}

	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(strings.NewReader(string(body)), pageURL)
	if err != nil {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: err}
	}

	result := &models.ParseResult{
		Title:       article.Title,
		Description: article.Excerpt,
		ImageURL:    article.Image,
		URL:         rawURL,
	}

	// Meta tags beat readability's guesses for everything but the title.
	if doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(string(body))); docErr == nil {
		fillFromMeta(doc, result)
	}

	if p.debug {
		p.logger.Debug("local parse complete", "url", rawURL, "title", result.Title, "image", result.ImageURL)
	}
	return normalizeResult(result, rawURL), nil
}

// fillFromMeta completes empty result fields from OpenGraph and Twitter
// card meta tags, and prefers the page's declared canonical URL.
func fillFromMeta(doc *goquery.Document, result *models.ParseResult) {
	if result.Title == "" {
		result.Title = firstMeta(doc, "og:title", "twitter:title")
	}
	if result.Description == "" {
		result.Description = firstMeta(doc, "og:description", "description", "twitter:description")
	}
	if result.ImageURL == "" {
		result.ImageURL = firstMeta(doc, "og:image", "twitter:image")
	}

	if canonical := firstMeta(doc, "og:url"); canonical != "" {
		result.URL = canonical
	} else if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		result.URL = strings.TrimSpace(href)
	}
}

// firstMeta returns the first non-empty content attribute among the named
// meta tags, checking both property= and name= forms.
func firstMeta(doc *goquery.Document, names ...string) string {
	for _, name := range names {
		selector := `meta[property="` + name + `"], meta[name="` + name + `"]`
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
