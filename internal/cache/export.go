// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/digest-engine/pkg/types"
)

// exportDoc is the YAML document shape written by ExportYAML.
type exportDoc struct {
	Entries []types.CacheEntry `yaml:"entries"`
}

// ExportYAML writes all cache entries to w as YAML, newest first, for
// inspection and offline analysis. Embedding vectors are omitted.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key_text, query_text, embed_model, embedding, summary, sentiment, articles, created_at
		 FROM entries ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}
	defer rows.Close()

	doc := exportDoc{Entries: []types.CacheEntry{}}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
		}
		entry.Embedding = nil
		doc.Entries = append(doc.Entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return &types.CacheError{Kind: types.CacheStoreUnavailable, Err: err}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	_, err = w.Write(data)
	return err
}
