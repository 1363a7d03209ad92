package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/isotube/isotube-server/store"
)

// GET /api/state
//
// stateHandler returns the whole application state.
func (a *API) stateHandler(w http.ResponseWriter, r *http.Request) {
	serveJSON(a.store.Snapshot(), w)
}

// GET /api/state/export
//
// stateExportHandler serves the state as a downloadable backup file named
// after the current date.
func (a *API) stateExportHandler(w http.ResponseWriter, r *http.Request) {
	blob, err := json.MarshalIndent(a.store.ExportState(), "", "  ")
	if err != nil {
		apierror(w, "could not serialize state", http.StatusInternalServerError)
		return
	}

	filename := "isotube-backup-" + time.Now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(blob)
}

// POST /api/state/import
//
// stateImportHandler replaces the state with an uploaded backup document.
// The document must at least carry a playlists array; anything else is
// rejected before the store is touched.
func (a *API) stateImportHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apierror(w, "could not read request body", http.StatusBadRequest)
		return
	}

	var probe struct {
		Playlists json.RawMessage `json:"playlists"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		apierror(w, "invalid backup file: not a JSON object", http.StatusBadRequest)
		return
	}
	playlists := bytes.TrimSpace(probe.Playlists)
	if len(playlists) == 0 || playlists[0] != '[' {
		apierror(w, "invalid backup file: missing playlists array", http.StatusBadRequest)
		return
	}

	var doc store.AppState
	if err := json.Unmarshal(body, &doc); err != nil {
		apierror(w, "invalid backup file: "+err.Error(), http.StatusBadRequest)
		return
	}

	a.store.ImportState(&doc)
	serveJSON(a.store.Snapshot(), w)
}

// POST /api/state/view
//
// sidebarViewHandler switches between the playlists and subscriptions
// browsing modes.
func (a *API) sidebarViewHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View store.SidebarView `json:"view"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.View != store.ViewPlaylists && req.View != store.ViewSubscriptions {
		apierror(w, "unknown view", http.StatusBadRequest)
		return
	}

	a.store.SetSidebarView(req.View)
	w.WriteHeader(http.StatusNoContent)
}
