package refresher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isotube/isotube-server/store"
	"github.com/isotube/isotube-server/youtube"
)

// fakeFetcher serves canned uploads per channel id.
type fakeFetcher struct {
	uploads map[string][]youtube.Video
	err     error
	calls   []string
}

func (f *fakeFetcher) RecentUploads(ctx context.Context, channelID string) ([]youtube.Video, error) {
	f.calls = append(f.calls, channelID)
	if f.err != nil {
		return nil, f.err
	}
	return f.uploads[channelID], nil
}

func TestRefreshOneMergesUploads(t *testing.T) {
	s := store.New(&store.Options{})
	subID := s.CreateSubscription(store.ChannelMetadata{ID: "UC1", Title: "One"},
		[]store.Video{{ID: "aaaaaaaaaaa", Title: "old"}})

	fetcher := &fakeFetcher{uploads: map[string][]youtube.Video{
		"UC1": {
			{ID: "bbbbbbbbbbb", Title: "new", URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb"},
			{ID: "aaaaaaaaaaa", Title: "old"},
		},
	}}
	r := New(&Options{Store: s, Client: fetcher})

	require.NoError(t, r.RefreshOne(context.Background(), subID))

	p := s.SubscriptionPlaylist(subID)
	require.NotNil(t, p)
	require.Len(t, p.Videos, 2)
	assert.Equal(t, "bbbbbbbbbbb", p.Videos[0].ID)
	assert.Equal(t, store.StatusUnwatched, p.Videos[0].Status)
	assert.Equal(t, "aaaaaaaaaaa", p.Videos[1].ID)
}

func TestRefreshOneUnknownSubscription(t *testing.T) {
	s := store.New(&store.Options{})
	fetcher := &fakeFetcher{}
	r := New(&Options{Store: s, Client: fetcher})

	// A since-deleted subscription is skipped without calling the client.
	require.NoError(t, r.RefreshOne(context.Background(), "gone"))
	assert.Empty(t, fetcher.calls)
}

func TestRefreshOneFetchError(t *testing.T) {
	s := store.New(&store.Options{})
	subID := s.CreateSubscription(store.ChannelMetadata{ID: "UC1", Title: "One"},
		[]store.Video{{ID: "aaaaaaaaaaa"}})

	r := New(&Options{Store: s, Client: &fakeFetcher{err: errors.New("quota exceeded")}})

	assert.Error(t, r.RefreshOne(context.Background(), subID))
	// The playlist is untouched on failure.
	assert.Len(t, s.SubscriptionPlaylist(subID).Videos, 1)
}

func TestRefreshAllContinuesPastFailures(t *testing.T) {
	s := store.New(&store.Options{})
	s.CreateSubscription(store.ChannelMetadata{ID: "UC1", Title: "One"}, nil)
	s.CreateSubscription(store.ChannelMetadata{ID: "UC2", Title: "Two"}, nil)

	fetcher := &fakeFetcher{uploads: map[string][]youtube.Video{
		"UC2": {{ID: "bbbbbbbbbbb", Title: "new"}},
	}}
	r := New(&Options{Store: s, Client: fetcher})

	r.RefreshAll(context.Background())
	assert.Equal(t, []string{"UC1", "UC2"}, fetcher.calls)
}
