package db

import (
	"fmt"
	"net/url"
	"time"
)

// Embed is one stored embed record.
type Embed struct {
	EmbedID      int64
	URL          string
	CanonicalURL string
	Domain       string
	Title        string
	Description  string
	ImageFile    string
	ContentHash  string
	Parser       string
	Language     string
	CreatedAt    time.Time
}

// Attempt is one recorded parser invocation.
type Attempt struct {
	AttemptID   int64
	URL         string
	Parser      string
	Success     bool
	ErrorType   string
	AttemptedAt time.Time
}

// SaveEmbed records a committed embed. canonicalURL is the page's own
// declared canonical (og:url or rel=canonical); when empty the raw URL is
// stripped of query and fragment instead. Satisfies protocol.HistorySink.
func (db *DB) SaveEmbed(rawURL, canonicalURL, title, description, imageFile, contentHash, parserName, language string) error {
	canonical := canonicalURL
	var domain string
	if parsed, err := url.Parse(rawURL); err == nil {
		if canonical == "" {
			canonical = fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)
		}
		domain = parsed.Host
	}

	_, err := db.Exec(`
		INSERT INTO embeds (url, canonical_url, domain, title, description, image_file, content_hash, parser, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rawURL, canonical, domain, title, description, imageFile, contentHash, parserName, language)
	if err != nil {
		return fmt.Errorf("failed to insert embed: %w", err)
	}
	return nil
}

// RecordAttempt logs one parser invocation. Satisfies resolver.AttemptSink.
func (db *DB) RecordAttempt(rawURL, parserName string, success bool, errorType string) error {
	_, err := db.Exec(`
		INSERT INTO resolve_attempts (url, parser, success, error_type)
		VALUES (?, ?, ?, ?)
	`, rawURL, parserName, success, errorType)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ListEmbeds returns the most recent embeds, newest first.
func (db *DB) ListEmbeds(limit int) ([]Embed, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT embed_id, url, canonical_url, domain, title, description,
		       image_file, content_hash, parser, language, created_at
		FROM embeds
		ORDER BY created_at DESC, embed_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeds: %w", err)
	}
	defer rows.Close()

	var embeds []Embed
	for rows.Next() {
		var e Embed
		if err := rows.Scan(&e.EmbedID, &e.URL, &e.CanonicalURL, &e.Domain, &e.Title,
			&e.Description, &e.ImageFile, &e.ContentHash, &e.Parser, &e.Language, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan embed: %w", err)
		}
		embeds = append(embeds, e)
	}
	return embeds, rows.Err()
}

// AttemptsForURL returns every recorded attempt for a URL, oldest first.
func (db *DB) AttemptsForURL(rawURL string) ([]Attempt, error) {
	rows, err := db.Query(`
		SELECT attempt_id, url, parser, success, COALESCE(error_type, ''), attempted_at
		FROM resolve_attempts
		WHERE url = ?
		ORDER BY attempt_id ASC
	`, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.AttemptID, &a.URL, &a.Parser, &a.Success, &a.ErrorType, &a.AttemptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
