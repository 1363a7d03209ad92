package api

import (
	"net/http"

	"github.com/isotube/isotube-server/search"
	"github.com/isotube/isotube-server/store"
)

// searchResult is one hit with the matched video attached.
type searchResult struct {
	PlaylistID   string      `json:"playlistId"`
	PlaylistName string      `json:"playlistName"`
	Video        store.Video `json:"video"`
}

// GET /api/search?q=...&playlistId=...
//
// searchHandler runs a full-text query over video titles, notes and
// descriptions. playlistId, when given, restricts matches to one playlist.
func (a *API) searchHandler(w http.ResponseWriter, r *http.Request) {
	queryparams := r.URL.Query()
	q := queryparams.Get("q")
	if q == "" {
		apierror(w, "q parameter required", http.StatusBadRequest)
		return
	}

	hits, err := a.search.Query(r.Context(), q, queryparams.Get("playlistId"))
	if err != nil {
		apierror(w, "search not available", http.StatusServiceUnavailable)
		return
	}

	serveJSON(a.makeSearchResults(hits), w)
}

// makeSearchResults resolves index hits against the current snapshot. Hits
// pointing at since-deleted videos are dropped; the index catches up on its
// own.
func (a *API) makeSearchResults(hits []search.Hit) []searchResult {
	state := a.store.Snapshot()
	playlists := make(map[string]*store.Playlist, len(state.Playlists))
	for i := range state.Playlists {
		playlists[state.Playlists[i].ID] = &state.Playlists[i]
	}

	results := make([]searchResult, 0, len(hits))
	for _, h := range hits {
		p := playlists[h.PlaylistID]
		if p == nil {
			continue
		}
		for i := range p.Videos {
			if p.Videos[i].ID == h.VideoID {
				results = append(results, searchResult{
					PlaylistID:   p.ID,
					PlaylistName: p.Name,
					Video:        p.Videos[i],
				})
				break
			}
		}
	}
	return results
}
