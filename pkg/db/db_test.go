package db

import (
	"testing"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestSaveEmbedAndList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	records := []struct {
		url    string
		title  string
		parser string
	}{
		{url: "https://example.com/a", title: "First", parser: "local"},
		{url: "https://example.com/b", title: "Second", parser: "jsonlink"},
		{url: "https://doc.rust-lang.org/book", title: "Third", parser: "microlink"},
	}
	for _, rec := range records {
		if err := db.SaveEmbed(rec.url, "", rec.title, "desc", "abc.png", "abc", rec.parser, "en"); err != nil {
			t.Fatalf("SaveEmbed(%s) error: %v", rec.url, err)
		}
	}

	embeds, err := db.ListEmbeds(10)
	if err != nil {
		t.Fatalf("ListEmbeds() error: %v", err)
	}
	if len(embeds) != 3 {
		t.Fatalf("ListEmbeds() returned %d rows, want 3", len(embeds))
	}

	// Newest first.
	if embeds[0].Title != "Third" {
		t.Errorf("first row = %q, want newest", embeds[0].Title)
	}
	if embeds[0].Domain != "doc.rust-lang.org" {
		t.Errorf("Domain = %q, want doc.rust-lang.org", embeds[0].Domain)
	}
	if embeds[0].CanonicalURL != "https://doc.rust-lang.org/book" {
		t.Errorf("CanonicalURL = %q", embeds[0].CanonicalURL)
	}
	if embeds[0].Language != "en" {
		t.Errorf("Language = %q, want en", embeds[0].Language)
	}
	if embeds[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestSaveEmbedCanonicalURL(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// The page's declared canonical wins over the raw input URL.
	if err := db.SaveEmbed("https://example.com/a?utm=x#frag", "https://example.com/canonical", "T", "", "", "", "local", ""); err != nil {
		t.Fatalf("SaveEmbed() error: %v", err)
	}
	// Without one, the raw URL is stripped of query and fragment.
	if err := db.SaveEmbed("https://example.com/b?utm=y#frag", "", "T", "", "", "", "local", ""); err != nil {
		t.Fatalf("SaveEmbed() error: %v", err)
	}

	embeds, err := db.ListEmbeds(10)
	if err != nil {
		t.Fatalf("ListEmbeds() error: %v", err)
	}
	if len(embeds) != 2 {
		t.Fatalf("ListEmbeds() returned %d rows, want 2", len(embeds))
	}
	if embeds[1].CanonicalURL != "https://example.com/canonical" {
		t.Errorf("CanonicalURL = %q, want declared canonical", embeds[1].CanonicalURL)
	}
	if embeds[0].CanonicalURL != "https://example.com/b" {
		t.Errorf("CanonicalURL = %q, want stripped raw URL", embeds[0].CanonicalURL)
	}
}

func TestListEmbedsLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for i := 0; i < 5; i++ {
		if err := db.SaveEmbed("https://example.com", "", "t", "", "", "", "local", ""); err != nil {
			t.Fatalf("SaveEmbed() error: %v", err)
		}
	}

	embeds, err := db.ListEmbeds(2)
	if err != nil {
		t.Fatalf("ListEmbeds() error: %v", err)
	}
	if len(embeds) != 2 {
		t.Errorf("ListEmbeds(2) returned %d rows", len(embeds))
	}
}

func TestRecordAttemptAndQuery(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	url := "https://example.com/page"
	attempts := []struct {
		parser    string
		success   bool
		errorType string
	}{
		{parser: "local", success: false, errorType: "parse_error"},
		{parser: "jsonlink", success: false, errorType: "parse_error"},
		{parser: "microlink", success: true},
	}
	for _, a := range attempts {
		if err := db.RecordAttempt(url, a.parser, a.success, a.errorType); err != nil {
			t.Fatalf("RecordAttempt(%s) error: %v", a.parser, err)
		}
	}
	// Attempts for other URLs must not leak in.
	if err := db.RecordAttempt("https://other.example.com", "local", true, ""); err != nil {
		t.Fatalf("RecordAttempt() error: %v", err)
	}

	got, err := db.AttemptsForURL(url)
	if err != nil {
		t.Fatalf("AttemptsForURL() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("AttemptsForURL() returned %d rows, want 3", len(got))
	}
	for i, want := range attempts {
		if got[i].Parser != want.parser || got[i].Success != want.success || got[i].ErrorType != want.errorType {
			t.Errorf("attempt %d = %+v, want %+v", i, got[i], want)
		}
	}
}

func TestOpenAtCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/deeper"
	database, err := OpenAt(dir + "/history.db")
	if err != nil {
		t.Fatalf("OpenAt() error: %v", err)
	}
	defer database.Close()

	if err := database.SaveEmbed("https://example.com", "", "t", "", "", "", "local", ""); err != nil {
		t.Errorf("SaveEmbed() on fresh database error: %v", err)
	}
}
