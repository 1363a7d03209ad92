// Package api exposes the store over JSON endpoints: playlist and video
// management, the player control surface, subscriptions, search, thumbnails
// and backup import/export.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/isotube/isotube-server/imagecache"
	"github.com/isotube/isotube-server/search"
	"github.com/isotube/isotube-server/store"
	"github.com/isotube/isotube-server/youtube"
)

// MetadataClient is the slice of the youtube client the handlers use.
type MetadataClient interface {
	LookupVideo(ctx context.Context, videoID string) (*youtube.Video, error)
	LookupPlaylist(ctx context.Context, playlistID string) (*youtube.Playlist, []youtube.Video, error)
	LookupChannel(ctx context.Context, ref youtube.Resolution) (*youtube.Channel, []youtube.Video, error)
}

// Searcher answers free-text queries over the indexed videos.
type Searcher interface {
	Query(ctx context.Context, term, playlistID string) ([]search.Hit, error)
}

type Options struct {
	Store    *store.Store
	Metadata MetadataClient
	Search   Searcher
	Images   *imagecache.Cache
}

type API struct {
	store    *store.Store
	metadata MetadataClient
	search   Searcher
	images   *imagecache.Cache
}

func New(o *Options) *API {
	return &API{
		store:    o.Store,
		metadata: o.Metadata,
		search:   o.Search,
		images:   o.Images,
	}
}

func (a *API) RegisterHandlers(s *mux.Router) {
	r := s.PathPrefix("/api").Subrouter()

	// gzip on everything except thumbnails, those are jpeg already.
	middleware := func(handler http.HandlerFunc) http.Handler {
		return handlers.CompressHandler(http.HandlerFunc(handler))
	}

	r.Handle("/state", middleware(a.stateHandler)).Methods("GET")
	r.Handle("/state/export", middleware(a.stateExportHandler)).Methods("GET")
	r.Handle("/state/import", middleware(a.stateImportHandler)).Methods("POST")
	r.Handle("/state/view", middleware(a.sidebarViewHandler)).Methods("POST")

	r.Handle("/resolve", middleware(a.resolveHandler)).Methods("GET")

	r.Handle("/playlists", middleware(a.playlistsHandler)).Methods("GET")
	r.Handle("/playlists", middleware(a.createPlaylistHandler)).Methods("POST")
	r.Handle("/playlists/import", middleware(a.importPlaylistHandler)).Methods("POST")
	r.Handle("/playlists/{playlist}", middleware(a.playlistHandler)).Methods("GET")
	r.Handle("/playlists/{playlist}", middleware(a.renamePlaylistHandler)).Methods("POST")
	r.Handle("/playlists/{playlist}", middleware(a.deletePlaylistHandler)).Methods("DELETE")
	r.Handle("/playlists/{playlist}/activate", middleware(a.activatePlaylistHandler)).Methods("POST")

	r.Handle("/playlists/{playlist}/videos", middleware(a.addVideoHandler)).Methods("POST")
	r.Handle("/playlists/{playlist}/videos/{video}", middleware(a.updateVideoHandler)).Methods("POST")
	r.Handle("/playlists/{playlist}/videos/{video}", middleware(a.deleteVideoHandler)).Methods("DELETE")
	r.Handle("/playlists/{playlist}/videos/{video}/move", middleware(a.moveVideoHandler)).Methods("POST")
	r.Handle("/playlists/{playlist}/videos/{video}/status", middleware(a.videoStatusHandler)).Methods("POST")
	r.Handle("/playlists/{playlist}/videos/{video}/rating", middleware(a.videoRatingHandler)).Methods("POST")
	r.Handle("/playlists/{playlist}/videos/{video}/notes", middleware(a.videoNotesHandler)).Methods("POST")
	r.Handle("/playlists/{playlist}/videos/{video}/thumbnail",
		http.HandlerFunc(a.videoThumbnailHandler)).Methods("GET")

	r.Handle("/player", middleware(a.playerHandler)).Methods("GET")
	r.Handle("/player/current", middleware(a.playerCurrentHandler)).Methods("POST")
	r.Handle("/player/next", middleware(a.playerNextHandler)).Methods("POST")
	r.Handle("/player/previous", middleware(a.playerPreviousHandler)).Methods("POST")
	r.Handle("/player/progress", middleware(a.playerProgressHandler)).Methods("POST")
	r.Handle("/player/ended", middleware(a.playerEndedHandler)).Methods("POST")

	r.Handle("/subscriptions", middleware(a.subscriptionsHandler)).Methods("GET")
	r.Handle("/subscriptions", middleware(a.createSubscriptionHandler)).Methods("POST")
	r.Handle("/subscriptions/{subscription}", middleware(a.deleteSubscriptionHandler)).Methods("DELETE")
	r.Handle("/subscriptions/{subscription}/activate", middleware(a.activateSubscriptionHandler)).Methods("POST")
	r.Handle("/subscriptions/{subscription}/refresh", middleware(a.refreshSubscriptionHandler)).Methods("POST")
	r.Handle("/subscriptions/{subscription}/thumbnail",
		http.HandlerFunc(a.subscriptionThumbnailHandler)).Methods("GET")

	r.Handle("/search", middleware(a.searchHandler)).Methods("GET")
}

// HTTPError is the structured error response body.
type HTTPError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
}

// apierror writes a structured error response.
func apierror(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPError{
		Status: status,
		Title:  msg,
	})
}

func serveJSON(obj any, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(obj)
}

// decodeJSON reads a request body into v; a false return means the error
// response has been written already.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apierror(w, "invalid JSON payload", http.StatusBadRequest)
		return false
	}
	return true
}

// storeVideo converts a fetched metadata record into a store video with the
// user-specific fields at their defaults.
func storeVideo(v youtube.Video) store.Video {
	return store.Video{
		ID:          v.ID,
		URL:         v.URL,
		Title:       v.Title,
		Thumbnail:   v.Thumbnail,
		Status:      store.StatusUnwatched,
		UploadDate:  v.UploadDate,
		Description: v.Description,
	}
}

func storeVideos(in []youtube.Video) []store.Video {
	out := make([]store.Video, 0, len(in))
	for _, v := range in {
		out = append(out, storeVideo(v))
	}
	return out
}
