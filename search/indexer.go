// Package search maintains a Bleve full-text index over video titles, notes
// and descriptions, rebuilt from store snapshots whenever the state changes.
package search

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/isotube/isotube-server/store"
)

var ErrIndexNotInitialized = errors.New("search index not initialized")

// default number of search results to return.
const resultCount = 15

// Indexer rebuilds the index from the store when its generation changes.
// Rebuilding from scratch is cheap at the scale of a personal library and
// sidesteps incremental index invalidation entirely.
type Indexer struct {
	store *store.Store

	// Query holds the read lock across the search, so a rebuild can only
	// close a superseded index once no query is using it.
	mu        sync.RWMutex
	index     *Search
	indexedAt int64
}

func NewIndexer(s *store.Store) *Indexer {
	return &Indexer{
		store:     s,
		indexedAt: -1,
	}
}

// Init builds the index for the first time.
func (ix *Indexer) Init(ctx context.Context) error {
	return ix.rebuild(ctx)
}

// Background keeps the index in sync with the store. Blocks until ctx is done.
func (ix *Indexer) Background(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ix.rebuild(ctx); err != nil {
				log.Printf("search: rebuilding index: %s", err)
			}
		}
	}
}

func (ix *Indexer) rebuild(ctx context.Context) error {
	gen := ix.store.Generation()
	ix.mu.RLock()
	upToDate := gen == ix.indexedAt
	ix.mu.RUnlock()
	if upToDate {
		return nil
	}

	index, err := New()
	if err != nil {
		return err
	}

	state := ix.store.Snapshot()
	var docs []Document
	for _, p := range state.Playlists {
		for _, v := range p.Videos {
			// Matching is done in lower case.
			docs = append(docs, Document{
				Key:         p.ID + "/" + v.ID,
				ID:          v.ID,
				PlaylistID:  p.ID,
				Title:       strings.ToLower(v.Title),
				TitleExact:  strings.ToLower(v.Title),
				Notes:       strings.ToLower(v.Notes),
				Description: strings.ToLower(v.Description),
			})
		}
	}
	if err := index.IndexBatch(ctx, docs); err != nil {
		index.Close()
		return err
	}

	ix.mu.Lock()
	old := ix.index
	ix.index = index
	ix.indexedAt = gen
	ix.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Query searches the current index.
func (ix *Indexer) Query(ctx context.Context, term, playlistID string) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return nil, ErrIndexNotInitialized
	}
	return ix.index.Query(ctx, term, playlistID, resultCount)
}
