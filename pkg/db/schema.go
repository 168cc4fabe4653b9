package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Embeds: one row per committed embed
CREATE TABLE IF NOT EXISTS embeds (
    embed_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL,
    canonical_url TEXT,
    domain TEXT,
    title TEXT NOT NULL,
    description TEXT,
    image_file TEXT,
    content_hash TEXT,
    parser TEXT NOT NULL,
    language TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_embeds_url ON embeds(url);
CREATE INDEX IF NOT EXISTS idx_embeds_domain ON embeds(domain);
CREATE INDEX IF NOT EXISTS idx_embeds_created ON embeds(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_embeds_hash ON embeds(content_hash);

-- Resolve attempts: every parser invocation tracked
CREATE TABLE IF NOT EXISTS resolve_attempts (
    attempt_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL,
    parser TEXT NOT NULL,
    success BOOLEAN NOT NULL,
    error_type TEXT,
    attempted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_attempts_url ON resolve_attempts(url);
CREATE INDEX IF NOT EXISTS idx_attempts_parser ON resolve_attempts(parser);
CREATE INDEX IF NOT EXISTS idx_attempts_success ON resolve_attempts(success);
`
