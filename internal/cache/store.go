// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists summarization results keyed by embedded query text
// and answers "do we already have an equivalent result" by cosine
// similarity against a configurable threshold. It is a read-through,
// append-only store: entries are never mutated, and only a full clear
// removes them.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/digest-engine/pkg/types"
)

const dbFile = "digest-cache.db"

// Embedder is the slice of the provider adapter the cache needs: vectors
// plus the identity of the model that produced them. Entries recorded under
// a different model are never compared for similarity.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedModel() string
}

// Store manages the on-disk semantic cache.
type Store struct {
	db        *sql.DB
	dir       string
	embedder  Embedder
	threshold float64
	inflight  singleflight.Group
}

// NewStore opens or creates the cache database at cfg.Dir/digest-cache.db,
// creating the schema if it does not exist.
func NewStore(cfg types.CacheConfig, embedder Embedder) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join("data", "cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.62
	}

	s := &Store{
		db:        db,
		dir:       dir,
		embedder:  embedder,
		threshold: threshold,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Threshold returns the configured similarity threshold.
func (s *Store) Threshold() float64 {
	return s.threshold
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_text TEXT NOT NULL,
			query_text TEXT NOT NULL,
			embed_model TEXT NOT NULL,
			embedding BLOB NOT NULL,
			summary TEXT NOT NULL,
			sentiment REAL NOT NULL,
			articles TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_model ON entries(embed_model)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Lookup embeds keyText and scans stored entries produced by the same
// embedding model for the nearest neighbor. A maximum cosine similarity at
// or above the threshold is a hit; anything else, including an empty store
// or entries from other models, is a miss (nil entry). Exact similarity
// ties resolve to the most recently created entry.
func (s *Store) Lookup(ctx context.Context, keyText string) (*types.CacheEntry, float64, error) {
	vectors, err := s.embedder.Embed(ctx, []string{keyText})
	if err != nil {
		return nil, 0, err
	}
	if len(vectors) != 1 {
		return nil, 0, &types.CacheError{Kind: types.CacheStoreUnavailable,
			Err: fmt.Errorf("embedder returned %d vectors for one key", len(vectors))}
	}
	key := vectors[0]

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key_text, query_text, embed_model, embedding, summary, sentiment, articles, created_at
		 FROM entries WHERE embed_model = ?
		 ORDER BY created_at DESC, id DESC`,
		s.embedder.EmbedModel(),
	)
	if err != nil {
		return nil, 0, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}
	defer rows.Close()

	var (
		best     *types.CacheEntry
		bestSim  float64
		haveBest bool
	)

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
		}

		// Vectors of mismatched dimension cannot have come from the same
		// model revision; skip rather than compare.
		if len(entry.Embedding) != len(key) {
			continue
		}

		sim := Cosine(key, entry.Embedding)
		// Strict > keeps the first (newest) entry on exact ties.
		if !haveBest || sim > bestSim {
			best = entry
			bestSim = sim
			haveBest = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}

	if !haveBest || bestSim < s.threshold {
		return nil, bestSim, nil
	}
	return best, bestSim, nil
}

// Put embeds keyText and appends a new entry. Entries are never updated in
// place: repeated puts for the same key accumulate, and lookup prefers the
// newest on ties.
func (s *Store) Put(ctx context.Context, keyText, queryText, summary string, sentiment float64, articles []types.Article) (*types.CacheEntry, error) {
	vectors, err := s.embedder.Embed(ctx, []string{keyText})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, &types.CacheError{Kind: types.CacheStoreUnavailable,
			Err: fmt.Errorf("embedder returned %d vectors for one key", len(vectors))}
	}

	articlesJSON, err := json.Marshal(articles)
	if err != nil {
		return nil, &types.CacheError{Kind: types.CacheStoreUnavailable,
			Err: fmt.Errorf("marshaling articles: %w", err)}
	}

	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (key_text, query_text, embed_model, embedding, summary, sentiment, articles, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		keyText, queryText, s.embedder.EmbedModel(), encodeVector(vectors[0]),
		summary, sentiment, string(articlesJSON), createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}

	return &types.CacheEntry{
		ID:         id,
		KeyText:    keyText,
		QueryText:  queryText,
		EmbedModel: s.embedder.EmbedModel(),
		Embedding:  vectors[0],
		Summary:    summary,
		Sentiment:  sentiment,
		Articles:   articles,
		CreatedAt:  createdAt,
	}, nil
}

// ComputeFunc produces a fresh summarization result for a cache miss.
type ComputeFunc func(ctx context.Context) (summary string, sentiment float64, articles []types.Article, err error)

// GetOrCompute is the read-through path: lookup, and on a miss run compute
// exactly once per key across concurrent callers and persist the result
// before returning it. Losers of the in-flight race receive the winner's
// entry instead of paying for a duplicate external call. The returned bool
// reports whether the entry came from the cache.
func (s *Store) GetOrCompute(ctx context.Context, keyText, queryText string, compute ComputeFunc) (*types.CacheEntry, bool, error) {
	type flightResult struct {
		entry *types.CacheEntry
		hit   bool
	}

	v, err, _ := s.inflight.Do(keyText, func() (any, error) {
		entry, _, err := s.Lookup(ctx, keyText)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return flightResult{entry: entry, hit: true}, nil
		}

		summary, sentiment, articles, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		entry, err = s.Put(ctx, keyText, queryText, summary, sentiment, articles)
		if err != nil {
			return nil, err
		}
		return flightResult{entry: entry, hit: false}, nil
	})
	if err != nil {
		return nil, false, err
	}

	res := v.(flightResult)
	return res.entry, res.hit, nil
}

// ClearAll removes every entry in one transaction and returns the count
// removed. Concurrent readers observe either the pre-clear or post-clear
// entry set, never a partial one.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}
	return removed, nil
}

// Stats reports the entry count and on-disk footprint of the store.
type Stats struct {
	Entries   int64 `json:"entries" yaml:"entries"`
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`
}

// Stat returns current store statistics.
func (s *Store) Stat(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&st.Entries); err != nil {
		return Stats{}, &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}

	// WAL mode spreads the store across db, -wal, and -shm files.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		info, err := os.Stat(filepath.Join(s.dir, dbFile+suffix))
		if err != nil {
			continue
		}
		st.SizeBytes += info.Size()
	}
	return st, nil
}

// scanEntry reads one entries row.
func scanEntry(rows *sql.Rows) (*types.CacheEntry, error) {
	var (
		entry        types.CacheEntry
		blob         []byte
		articlesJSON string
		createdRaw   string
	)
	if err := rows.Scan(
		&entry.ID, &entry.KeyText, &entry.QueryText, &entry.EmbedModel,
		&blob, &entry.Summary, &entry.Sentiment, &articlesJSON, &createdRaw,
	); err != nil {
		return nil, fmt.Errorf("scanning row: %w", err)
	}

	entry.Embedding = decodeVector(blob)

	if err := json.Unmarshal([]byte(articlesJSON), &entry.Articles); err != nil {
		return nil, fmt.Errorf("decoding articles: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	entry.CreatedAt = createdAt

	return &entry, nil
}
