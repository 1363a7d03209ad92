package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/isotube/isotube-server/store"
	"github.com/isotube/isotube-server/youtube"
)

// playlistResponse is one playlist plus its per-status counts.
type playlistResponse struct {
	store.Playlist
	Counts store.StatusCounts `json:"counts"`
	Active bool               `json:"active"`
}

func (a *API) makePlaylistResponse(p store.Playlist) playlistResponse {
	active := a.store.ActivePlaylist()
	return playlistResponse{
		Playlist: p,
		Counts:   a.store.PlaylistStatusCounts(p.ID),
		Active:   active != nil && active.ID == p.ID,
	}
}

// GET /api/playlists
//
// playlistsHandler returns all playlists. ?type=user limits the result to
// hand-curated playlists, excluding the subscription-managed ones.
func (a *API) playlistsHandler(w http.ResponseWriter, r *http.Request) {
	var playlists []store.Playlist
	if r.URL.Query().Get("type") == "user" {
		playlists = a.store.UserPlaylists()
	} else {
		playlists = a.store.Playlists()
	}

	response := make([]playlistResponse, 0, len(playlists))
	for _, p := range playlists {
		response = append(response, a.makePlaylistResponse(p))
	}
	serveJSON(response, w)
}

// POST /api/playlists
//
// createPlaylistHandler creates a new empty playlist.
func (a *API) createPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		apierror(w, "name is required", http.StatusBadRequest)
		return
	}

	id := a.store.CreatePlaylist(req.Name)
	w.WriteHeader(http.StatusCreated)
	serveJSON(a.makePlaylistResponse(*a.store.Playlist(id)), w)
}

// GET /api/playlists/{playlist}
//
// playlistHandler returns one playlist with its videos and counts.
func (a *API) playlistHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	p := a.store.Playlist(vars["playlist"])
	if p == nil {
		apierror(w, "playlist not found", http.StatusNotFound)
		return
	}
	serveJSON(a.makePlaylistResponse(*p), w)
}

// POST /api/playlists/{playlist}
//
// renamePlaylistHandler renames a playlist.
func (a *API) renamePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		apierror(w, "name is required", http.StatusBadRequest)
		return
	}
	if a.store.Playlist(vars["playlist"]) == nil {
		apierror(w, "playlist not found", http.StatusNotFound)
		return
	}

	a.store.RenamePlaylist(vars["playlist"], req.Name)
	serveJSON(a.makePlaylistResponse(*a.store.Playlist(vars["playlist"])), w)
}

// DELETE /api/playlists/{playlist}
//
// deletePlaylistHandler removes a playlist. Deleting the active playlist
// makes the first remaining one active. A subscription-managed playlist
// cannot be deleted on its own, it lives and dies with its subscription.
func (a *API) deletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	p := a.store.Playlist(vars["playlist"])
	if p == nil {
		apierror(w, "playlist not found", http.StatusNotFound)
		return
	}
	if p.LinkedSubscriptionID != "" {
		apierror(w, "playlist is managed by a subscription, delete the subscription instead",
			http.StatusConflict)
		return
	}
	a.store.DeletePlaylist(vars["playlist"])
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/playlists/{playlist}/activate
//
// activatePlaylistHandler makes a playlist the active one and clears the
// current video selection.
func (a *API) activatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if a.store.Playlist(vars["playlist"]) == nil {
		apierror(w, "playlist not found", http.StatusNotFound)
		return
	}
	a.store.SetActivePlaylist(vars["playlist"])
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/resolve?input=...
//
// resolveHandler classifies a pasted string without fetching anything, so the
// client can tell videos, playlists and channels apart before committing.
func (a *API) resolveHandler(w http.ResponseWriter, r *http.Request) {
	res := youtube.Resolve(r.URL.Query().Get("input"))
	serveJSON(res, w)
}

// POST /api/playlists/{playlist}/videos
//
// addVideoHandler adds content to a playlist from a pasted string. A video
// reference adds one video; a playlist reference fetches all its items and
// adds the ones not already present.
func (a *API) addVideoHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Input string `json:"input"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if a.store.Playlist(vars["playlist"]) == nil {
		apierror(w, "playlist not found", http.StatusNotFound)
		return
	}

	res := youtube.Resolve(req.Input)
	switch res.Kind {
	case youtube.KindVideo:
		v, err := a.metadata.LookupVideo(r.Context(), res.VideoID)
		if err != nil {
			metadataError(w, err)
			return
		}
		a.store.AddVideo(vars["playlist"], storeVideo(*v))
	case youtube.KindPlaylist:
		_, videos, err := a.metadata.LookupPlaylist(r.Context(), res.PlaylistID)
		if err != nil {
			metadataError(w, err)
			return
		}
		a.store.AddVideos(vars["playlist"], storeVideos(videos))
	default:
		apierror(w, "not a video or playlist reference", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	serveJSON(a.makePlaylistResponse(*a.store.Playlist(vars["playlist"])), w)
}

// POST /api/playlists/import
//
// importPlaylistHandler creates a new playlist from a playlist reference,
// named after the source playlist and holding all its videos. The new
// playlist becomes active.
func (a *API) importPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
		// Name overrides the source playlist's title.
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	res := youtube.Resolve(req.Input)
	if res.Kind != youtube.KindPlaylist {
		apierror(w, "not a playlist reference", http.StatusBadRequest)
		return
	}

	info, videos, err := a.metadata.LookupPlaylist(r.Context(), res.PlaylistID)
	if err != nil {
		metadataError(w, err)
		return
	}
	name := req.Name
	if name == "" {
		name = info.Title
	}

	id := a.store.CreatePlaylistWithVideos(name, storeVideos(videos))
	w.WriteHeader(http.StatusCreated)
	serveJSON(a.makePlaylistResponse(*a.store.Playlist(id)), w)
}

// POST /api/playlists/{playlist}/videos/{video}
//
// updateVideoHandler merges the provided fields onto a video; absent fields
// stay unchanged.
func (a *API) updateVideoHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var upd store.VideoUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	if a.videoOr404(w, vars["playlist"], vars["video"]) == nil {
		return
	}

	a.store.UpdateVideo(vars["playlist"], vars["video"], upd)
	if v := a.videoOr404(w, vars["playlist"], vars["video"]); v != nil {
		serveJSON(v, w)
	}
}

// DELETE /api/playlists/{playlist}/videos/{video}
//
// deleteVideoHandler removes a video from a playlist.
func (a *API) deleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if a.videoOr404(w, vars["playlist"], vars["video"]) == nil {
		return
	}
	a.store.DeleteVideo(vars["playlist"], vars["video"])
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/playlists/{playlist}/videos/{video}/move
//
// moveVideoHandler moves a video to the end of another playlist, keeping its
// notes, rating and watch state.
func (a *API) moveVideoHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		ToPlaylistID string `json:"toPlaylistId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if a.videoOr404(w, vars["playlist"], vars["video"]) == nil {
		return
	}
	if a.store.Playlist(req.ToPlaylistID) == nil {
		apierror(w, "target playlist not found", http.StatusNotFound)
		return
	}

	a.store.MoveVideo(vars["playlist"], req.ToPlaylistID, vars["video"])
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/playlists/{playlist}/videos/{video}/status
//
// videoStatusHandler sets the watch status explicitly.
func (a *API) videoStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Status store.VideoStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	switch req.Status {
	case store.StatusUnwatched, store.StatusInProgress, store.StatusCompleted:
	default:
		apierror(w, "unknown status", http.StatusBadRequest)
		return
	}
	if a.videoOr404(w, vars["playlist"], vars["video"]) == nil {
		return
	}

	a.store.SetVideoStatus(vars["playlist"], vars["video"], req.Status)
	if v := a.videoOr404(w, vars["playlist"], vars["video"]); v != nil {
		serveJSON(v, w)
	}
}

// POST /api/playlists/{playlist}/videos/{video}/rating
//
// videoRatingHandler stores a 0-5 star rating, 0 meaning unrated.
func (a *API) videoRatingHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Rating int `json:"rating"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if a.videoOr404(w, vars["playlist"], vars["video"]) == nil {
		return
	}

	a.store.SetVideoRating(vars["playlist"], vars["video"], req.Rating)
	if v := a.videoOr404(w, vars["playlist"], vars["video"]); v != nil {
		serveJSON(v, w)
	}
}

// POST /api/playlists/{playlist}/videos/{video}/notes
//
// videoNotesHandler replaces the free-form notes on a video.
func (a *API) videoNotesHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Notes string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if a.videoOr404(w, vars["playlist"], vars["video"]) == nil {
		return
	}

	a.store.SetVideoNotes(vars["playlist"], vars["video"], req.Notes)
	if v := a.videoOr404(w, vars["playlist"], vars["video"]); v != nil {
		serveJSON(v, w)
	}
}

// GET /api/playlists/{playlist}/videos/{video}/thumbnail
//
// videoThumbnailHandler serves a video's thumbnail through the image cache,
// resized per the w/h/q query parameters.
func (a *API) videoThumbnailHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	v := a.videoOr404(w, vars["playlist"], vars["video"])
	if v == nil {
		return
	}
	thumbnail := v.Thumbnail
	if thumbnail == "" {
		thumbnail = youtube.ThumbnailURL(v.ID)
	}
	a.images.Serve(w, r, thumbnail)
}

// videoOr404 returns the video, or nil after writing a 404 response.
func (a *API) videoOr404(w http.ResponseWriter, playlistID, videoID string) *store.Video {
	p := a.store.Playlist(playlistID)
	if p == nil {
		apierror(w, "playlist not found", http.StatusNotFound)
		return nil
	}
	for i := range p.Videos {
		if p.Videos[i].ID == videoID {
			return &p.Videos[i]
		}
	}
	apierror(w, "video not found", http.StatusNotFound)
	return nil
}

// metadataError maps a metadata client failure to a response status.
func metadataError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, youtube.ErrNotFound):
		apierror(w, "content not found", http.StatusNotFound)
	case errors.Is(err, youtube.ErrUnrecognized):
		apierror(w, "unrecognized reference", http.StatusBadRequest)
	default:
		apierror(w, "metadata fetch failed: "+err.Error(), http.StatusBadGateway)
	}
}
