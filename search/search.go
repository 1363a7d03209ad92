package search

import (
	"context"
	"strings"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Search is the Bleve-based full-text index over the videos in all playlists.
type Search struct {
	index bleve.Index
}

// Document is what we store in Bleve per video. Video ids repeat across
// playlists, so the index key is playlistID/videoID.
type Document struct {
	// Composite index key.
	Key string `json:"key"`
	// Video id within its playlist.
	ID         string `json:"id"`
	PlaylistID string `json:"playlist_id"`
	Title      string `json:"title"`
	// TitleExact is a helper field to make exact title matches rank first.
	TitleExact  string `json:"title_exact"`
	Notes       string `json:"notes"`
	Description string `json:"description"`
}

// Hit is one search result.
type Hit struct {
	PlaylistID string `json:"playlistId"`
	VideoID    string `json:"videoId"`
}

// New creates a new in-memory index.
func New() (*Search, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Search{
		index: idx,
	}, nil
}

// buildIndexMapping builds the Bleve index field mapping configuration.
func buildIndexMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()

	// text mapping for title, notes, description
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = "en"
	// Only indexing, not storing: we retrieve ids, not text.
	textFieldMapping.Store = false
	textFieldMapping.Index = true

	// keyword mapping for exact matches like ids
	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.Index = true

	doc.AddFieldMappingsAt("id", keyword)
	doc.AddFieldMappingsAt("playlist_id", keyword)
	doc.AddFieldMappingsAt("title", textFieldMapping)
	doc.AddFieldMappingsAt("title_exact", keyword)
	doc.AddFieldMappingsAt("notes", textFieldMapping)
	doc.AddFieldMappingsAt("description", textFieldMapping)

	m.DefaultMapping = doc

	return m
}

// IndexBatch indexes a slice of documents in a single batch.
func (b *Search) IndexBatch(ctx context.Context, docs []Document) error {
	batch := b.index.NewBatch()
	for _, d := range docs {
		if err := batch.Index(d.Key, d); err != nil {
			return err
		}
		// commit in big batches to avoid huge memory usage
		if batch.Size() > 1000 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		return b.index.Batch(batch)
	}
	return nil
}

// Query runs a fuzzy search across title, notes and description.
//
// - searchTerm is the raw user input.
// - playlistID, when non-empty, restricts results to one playlist.
// - size is the maximum number of results to return.
func (b *Search) Query(ctx context.Context, searchTerm, playlistID string, size int) ([]Hit, error) {
	searchTerm = strings.ToLower(strings.TrimSpace(searchTerm))
	if searchTerm == "" {
		return nil, nil
	}

	// Weights for boosting certain query types and fields.
	const (
		boostTitleExact       = 50.0 // strongest: exact match on title_exact
		boostTitlePhrase      = 12.0 // very strong: exact phrase in title
		boostTitlePrefix      = 6.0  // strong: prefix on whole query against title
		boostTitleTokenPrefix = 5.0  // strong: prefix on first token against title
		boostTitleField       = 3.0  // fuzzy/prefix on title tokens
		boostOtherFields      = 1.0  // default for notes and description
	)

	boolQuery := bleve.NewBooleanQuery()

	if playlistID != "" {
		pq := bleve.NewTermQuery(playlistID)
		pq.SetField("playlist_id")
		boolQuery.AddMust(pq)
	}

	termExact := bleve.NewTermQuery(searchTerm)
	termExact.SetField("title_exact")
	termExact.SetBoost(boostTitleExact)
	boolQuery.AddShould(termExact)

	matchPhrase := bleve.NewMatchPhraseQuery(searchTerm)
	matchPhrase.SetField("title")
	matchPhrase.SetBoost(boostTitlePhrase)
	boolQuery.AddShould(matchPhrase)

	// Helps when users type the beginning of a title.
	prefixFull := bleve.NewPrefixQuery(searchTerm)
	prefixFull.SetField("title")
	prefixFull.SetBoost(boostTitlePrefix)
	boolQuery.AddShould(prefixFull)

	tokens := strings.Fields(searchTerm)
	if len(tokens) > 0 {
		prefixFirst := bleve.NewPrefixQuery(tokens[0])
		prefixFirst.SetField("title")
		prefixFirst.SetBoost(boostTitleTokenPrefix)
		boolQuery.AddShould(prefixFirst)
	}

	// Token-wise fuzzy + prefix queries across fields.
	for _, tok := range tokens {
		fuzz := 1
		if len(tok) >= 6 {
			fuzz = 2
		}

		fields := []string{"title", "notes", "description"}
		for _, f := range fields {
			fq := bleve.NewFuzzyQuery(tok)
			fq.SetField(f)
			fq.SetFuzziness(fuzz)
			if f == "title" {
				fq.SetBoost(boostTitleField)
			} else {
				fq.SetBoost(boostOtherFields)
			}
			boolQuery.AddShould(fq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f)
			if f == "title" {
				pq.SetBoost(boostTitleField)
			} else {
				pq.SetBoost(boostOtherFields)
			}
			boolQuery.AddShould(pq)
		}
	}

	boolQuery.SetMinShould(1)

	req := bleve.NewSearchRequestOptions(boolQuery, size, 0, false)
	req.Fields = []string{"id", "playlist_id"}
	req.SortBy([]string{"-_score"})

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, _ := h.Fields["id"].(string)
		playlistID, _ := h.Fields["playlist_id"].(string)
		if id == "" {
			continue
		}
		hits = append(hits, Hit{PlaylistID: playlistID, VideoID: id})
	}
	return hits, nil
}

// Close closes the underlying index.
func (b *Search) Close() error {
	return b.index.Close()
}
