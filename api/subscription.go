package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/isotube/isotube-server/store"
	"github.com/isotube/isotube-server/youtube"
)

// subscriptionResponse is one subscription plus its linked playlist's counts.
type subscriptionResponse struct {
	store.Subscription
	Counts store.StatusCounts `json:"counts"`
	Active bool               `json:"active"`
}

func (a *API) makeSubscriptionResponse(sub store.Subscription) subscriptionResponse {
	active := a.store.ActiveSubscription()
	return subscriptionResponse{
		Subscription: sub,
		Counts:       a.store.PlaylistStatusCounts(sub.LinkedPlaylistID),
		Active:       active != nil && active.ID == sub.ID,
	}
}

// GET /api/subscriptions
//
// subscriptionsHandler returns all subscriptions.
func (a *API) subscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	subs := a.store.Subscriptions()
	response := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		response = append(response, a.makeSubscriptionResponse(sub))
	}
	serveJSON(response, w)
}

// POST /api/subscriptions
//
// createSubscriptionHandler subscribes to a channel from a pasted string.
// The channel is resolved, its metadata and recent uploads fetched, and a
// subscription plus its linked playlist created in one step.
func (a *API) createSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	res := youtube.Resolve(req.Input)
	if res.Kind != youtube.KindChannel {
		apierror(w, "not a channel reference", http.StatusBadRequest)
		return
	}

	channel, uploads, err := a.metadata.LookupChannel(r.Context(), res)
	if err != nil {
		metadataError(w, err)
		return
	}

	// Refuse a second subscription to the same channel.
	for _, sub := range a.store.Subscriptions() {
		if sub.ChannelID == channel.ID {
			apierror(w, "already subscribed to this channel", http.StatusConflict)
			return
		}
	}

	id := a.store.CreateSubscription(store.ChannelMetadata{
		ID:        channel.ID,
		Title:     channel.Title,
		Thumbnail: channel.Thumbnail,
	}, storeVideos(uploads))

	w.WriteHeader(http.StatusCreated)
	if sub := a.subscriptionByID(id); sub != nil {
		serveJSON(a.makeSubscriptionResponse(*sub), w)
	}
}

// DELETE /api/subscriptions/{subscription}
//
// deleteSubscriptionHandler removes a subscription and its linked playlist.
func (a *API) deleteSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if a.subscriptionByID(vars["subscription"]) == nil {
		apierror(w, "subscription not found", http.StatusNotFound)
		return
	}
	a.store.DeleteSubscription(vars["subscription"])
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/subscriptions/{subscription}/activate
//
// activateSubscriptionHandler selects a subscription, which also activates
// its linked playlist.
func (a *API) activateSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if a.subscriptionByID(vars["subscription"]) == nil {
		apierror(w, "subscription not found", http.StatusNotFound)
		return
	}
	a.store.SetActiveSubscription(vars["subscription"])
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/subscriptions/{subscription}/refresh
//
// refreshSubscriptionHandler fetches the channel's recent uploads on demand
// and merges the new ones into the linked playlist.
func (a *API) refreshSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	sub := a.subscriptionByID(vars["subscription"])
	if sub == nil {
		apierror(w, "subscription not found", http.StatusNotFound)
		return
	}

	_, uploads, err := a.metadata.LookupChannel(r.Context(), youtube.Resolution{ChannelID: sub.ChannelID})
	if err != nil {
		metadataError(w, err)
		return
	}
	a.store.RefreshSubscription(sub.ID, storeVideos(uploads))

	if refreshed := a.subscriptionByID(sub.ID); refreshed != nil {
		serveJSON(a.makeSubscriptionResponse(*refreshed), w)
	}
}

// GET /api/subscriptions/{subscription}/thumbnail
//
// subscriptionThumbnailHandler serves the channel avatar through the image
// cache.
func (a *API) subscriptionThumbnailHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	sub := a.subscriptionByID(vars["subscription"])
	if sub == nil || sub.Thumbnail == "" {
		apierror(w, "thumbnail not found", http.StatusNotFound)
		return
	}
	a.images.Serve(w, r, sub.Thumbnail)
}

func (a *API) subscriptionByID(id string) *store.Subscription {
	for _, sub := range a.store.Subscriptions() {
		if sub.ID == id {
			return &sub
		}
	}
	return nil
}
