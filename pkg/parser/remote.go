package parser

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/Doomwhite/obsidian-link-embed/models"
)

// JSONFetcher is the slice of the fetcher the API-backed parsers need.
type JSONFetcher interface {
	GetJSON(ctx context.Context, url string, target any) error
}

// JSONLinkParser queries the jsonlink.io extraction API.
type JSONLinkParser struct {
	fetcher  JSONFetcher
	logger   *slog.Logger
	endpoint string
	debug    bool
}

func NewJSONLinkParser(f JSONFetcher, logger *slog.Logger) *JSONLinkParser {
	return &JSONLinkParser{fetcher: f, logger: logger, endpoint: "https://jsonlink.io/api/extract"}
}

// SetEndpoint points the parser at a different API base, used by tests.
func (p *JSONLinkParser) SetEndpoint(endpoint string) { p.endpoint = endpoint }

func (p *JSONLinkParser) Name() string { return "jsonlink" }

func (p *JSONLinkParser) SetDebug(debug bool) { p.debug = debug }

func (p *JSONLinkParser) Parse(ctx context.Context, rawURL string) (*models.ParseResult, error) {
	var payload struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Images      []string `json:"images"`
		URL         string   `json:"url"`
	}
	apiURL := p.endpoint + "?url=" + url.QueryEscape(rawURL)
	if err := p.fetcher.GetJSON(ctx, apiURL, &payload); err != nil {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: err}
	}
	if payload.Title == "" && payload.Description == "" {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: errors.New("API returned no metadata")}
	}

	result := &models.ParseResult{
		Title:       payload.Title,
		Description: payload.Description,
		URL:         payload.URL,
	}
	if len(payload.Images) > 0 {
		result.ImageURL = payload.Images[0]
	}
	if p.debug {
		p.logger.Debug("jsonlink parse complete", "url", rawURL, "title", result.Title)
	}
	return normalizeResult(result, rawURL), nil
}

// MicrolinkParser queries the api.microlink.io metadata API.
type MicrolinkParser struct {
	fetcher  JSONFetcher
	logger   *slog.Logger
	endpoint string
	debug    bool
}

func NewMicrolinkParser(f JSONFetcher, logger *slog.Logger) *MicrolinkParser {
	return &MicrolinkParser{fetcher: f, logger: logger, endpoint: "https://api.microlink.io"}
}

func (p *MicrolinkParser) SetEndpoint(endpoint string) { p.endpoint = endpoint }

func (p *MicrolinkParser) Name() string { return "microlink" }

func (p *MicrolinkParser) SetDebug(debug bool) { p.debug = debug }

func (p *MicrolinkParser) Parse(ctx context.Context, rawURL string) (*models.ParseResult, error) {
	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Image       struct {
				URL string `json:"url"`
			} `json:"image"`
			URL string `json:"url"`
		} `json:"data"`
	}
	apiURL := p.endpoint + "/?url=" + url.QueryEscape(rawURL)
	if err := p.fetcher.GetJSON(ctx, apiURL, &payload); err != nil {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: err}
	}
	if payload.Status != "success" {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: errors.New("API status " + payload.Status)}
	}

	result := &models.ParseResult{
		Title:       payload.Data.Title,
		Description: payload.Data.Description,
		ImageURL:    payload.Data.Image.URL,
		URL:         payload.Data.URL,
	}
	if p.debug {
		p.logger.Debug("microlink parse complete", "url", rawURL, "title", result.Title)
	}
	return normalizeResult(result, rawURL), nil
}

// IframelyParser queries the iframely oEmbed API. oEmbed has no
// description field, so the description comes back empty and a later
// consumer may leave it blank.
type IframelyParser struct {
	fetcher  JSONFetcher
	logger   *slog.Logger
	endpoint string
	debug    bool
}

func NewIframelyParser(f JSONFetcher, logger *slog.Logger) *IframelyParser {
	return &IframelyParser{fetcher: f, logger: logger, endpoint: "https://iframely.apis.dev/oembed"}
}

func (p *IframelyParser) SetEndpoint(endpoint string) { p.endpoint = endpoint }

func (p *IframelyParser) Name() string { return "iframely" }

func (p *IframelyParser) SetDebug(debug bool) { p.debug = debug }

func (p *IframelyParser) Parse(ctx context.Context, rawURL string) (*models.ParseResult, error) {
	var payload struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ThumbnailURL string `json:"thumbnail_url"`
		URL          string `json:"url"`
	}
	apiURL := p.endpoint + "?url=" + url.QueryEscape(rawURL)
	if err := p.fetcher.GetJSON(ctx, apiURL, &payload); err != nil {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: err}
	}
	if payload.Title == "" {
		return nil, &ParseError{Parser: p.Name(), URL: rawURL, Err: errors.New("API returned no title")}
	}

	result := &models.ParseResult{
		Title:       payload.Title,
		Description: payload.Description,
		ImageURL:    payload.ThumbnailURL,
		URL:         payload.URL,
	}
	if p.debug {
		p.logger.Debug("iframely parse complete", "url", rawURL, "title", result.Title)
	}
	return normalizeResult(result, rawURL), nil
}
