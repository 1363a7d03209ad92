package api

import (
	"net/http"

	"github.com/isotube/isotube-server/store"
)

// playerResponse describes the playback surface: the active playlist, the
// selected video and its neighbors.
type playerResponse struct {
	Playlist *store.Playlist    `json:"playlist"`
	Video    *store.Video       `json:"video"`
	Next     *store.Video       `json:"next"`
	Previous *store.Video       `json:"previous"`
	Counts   store.StatusCounts `json:"counts"`
}

func (a *API) makePlayerResponse() playerResponse {
	return playerResponse{
		Playlist: a.store.ActivePlaylist(),
		Video:    a.store.CurrentVideo(),
		Next:     a.store.NextVideo(),
		Previous: a.store.PreviousVideo(),
		Counts:   a.store.ActiveStatusCounts(),
	}
}

// GET /api/player
//
// playerHandler returns the current playback surface.
func (a *API) playerHandler(w http.ResponseWriter, r *http.Request) {
	serveJSON(a.makePlayerResponse(), w)
}

// POST /api/player/current
//
// playerCurrentHandler selects the video to play. An empty videoId clears the
// selection.
func (a *API) playerCurrentHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"videoId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	a.store.SetCurrentVideo(req.VideoID)
	serveJSON(a.makePlayerResponse(), w)
}

// POST /api/player/next
//
// playerNextHandler advances the selection one position; no-op at the end of
// the playlist.
func (a *API) playerNextHandler(w http.ResponseWriter, r *http.Request) {
	a.store.PlayNext()
	serveJSON(a.makePlayerResponse(), w)
}

// POST /api/player/previous
//
// playerPreviousHandler moves the selection one position back; no-op at the
// start.
func (a *API) playerPreviousHandler(w http.ResponseWriter, r *http.Request) {
	a.store.PlayPrevious()
	serveJSON(a.makePlayerResponse(), w)
}

// POST /api/player/progress
//
// playerProgressHandler reports seconds watched of the current video. The
// first progress report moves an unwatched video to in_progress.
func (a *API) playerProgressHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds int `json:"seconds"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	p := a.store.ActivePlaylist()
	v := a.store.CurrentVideo()
	if p == nil || v == nil {
		apierror(w, "no video playing", http.StatusConflict)
		return
	}

	a.store.SetVideoProgress(p.ID, v.ID, req.Seconds)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/player/ended
//
// playerEndedHandler handles playback reaching the end: the video is marked
// completed and its resume position reset, so a replay starts from the top.
func (a *API) playerEndedHandler(w http.ResponseWriter, r *http.Request) {
	p := a.store.ActivePlaylist()
	v := a.store.CurrentVideo()
	if p == nil || v == nil {
		apierror(w, "no video playing", http.StatusConflict)
		return
	}

	a.store.SetVideoStatus(p.ID, v.ID, store.StatusCompleted)
	a.store.SetVideoProgress(p.ID, v.ID, 0)
	serveJSON(a.makePlayerResponse(), w)
}
