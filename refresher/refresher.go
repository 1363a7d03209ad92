// Package refresher periodically pulls the recent uploads of every subscribed
// channel and merges novel ones into the subscription's linked playlist.
package refresher

import (
	"context"
	"log"
	"time"

	"github.com/isotube/isotube-server/store"
	"github.com/isotube/isotube-server/youtube"
)

// ChannelFetcher is the slice of the metadata client the refresher needs.
type ChannelFetcher interface {
	RecentUploads(ctx context.Context, channelID string) ([]youtube.Video, error)
}

type Options struct {
	Store  *store.Store
	Client ChannelFetcher
	// Interval between refresh sweeps, default 30 minutes.
	Interval time.Duration
}

type Refresher struct {
	store    *store.Store
	client   ChannelFetcher
	interval time.Duration
}

func New(o *Options) *Refresher {
	r := &Refresher{
		store:    o.Store,
		client:   o.Client,
		interval: o.Interval,
	}
	if r.interval == 0 {
		r.interval = 30 * time.Minute
	}
	return r
}

// Background refreshes all subscriptions every interval. Blocks until ctx is
// done. A failing channel fetch is logged and skipped; the store is never
// called with partial data.
func (r *Refresher) Background(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll runs one refresh sweep over all subscriptions.
func (r *Refresher) RefreshAll(ctx context.Context) {
	for _, sub := range r.store.Subscriptions() {
		if err := r.RefreshOne(ctx, sub.ID); err != nil {
			log.Printf("refresher: subscription %s (%s): %s", sub.ID, sub.Name, err)
		}
	}
}

// RefreshOne fetches a subscription's recent uploads and merges them into its
// linked playlist. Also used by the manual refresh endpoint.
func (r *Refresher) RefreshOne(ctx context.Context, subscriptionID string) error {
	var channelID string
	for _, sub := range r.store.Subscriptions() {
		if sub.ID == subscriptionID {
			channelID = sub.ChannelID
			break
		}
	}
	if channelID == "" {
		// Subscription deleted since we started the sweep.
		return nil
	}

	uploads, err := r.client.RecentUploads(ctx, channelID)
	if err != nil {
		return err
	}
	r.store.RefreshSubscription(subscriptionID, storeVideos(uploads))
	return nil
}

// storeVideos converts fetched metadata records into store videos with the
// user-specific fields at their defaults.
func storeVideos(in []youtube.Video) []store.Video {
	out := make([]store.Video, 0, len(in))
	for _, v := range in {
		out = append(out, store.Video{
			ID:          v.ID,
			URL:         v.URL,
			Title:       v.Title,
			Thumbnail:   v.Thumbnail,
			Status:      store.StatusUnwatched,
			UploadDate:  v.UploadDate,
			Description: v.Description,
		})
	}
	return out
}
