package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/isotube/isotube-server/imagecache"
	"github.com/isotube/isotube-server/search"
	"github.com/isotube/isotube-server/store"
	"github.com/isotube/isotube-server/youtube"
)

// fakeMetadata serves canned lookups without touching the network.
type fakeMetadata struct {
	videos    map[string]youtube.Video
	playlists map[string]fakePlaylist
	channels  map[string]fakeChannel
}

type fakePlaylist struct {
	info   youtube.Playlist
	videos []youtube.Video
}

type fakeChannel struct {
	info    youtube.Channel
	uploads []youtube.Video
}

func (f *fakeMetadata) LookupVideo(ctx context.Context, videoID string) (*youtube.Video, error) {
	if v, ok := f.videos[videoID]; ok {
		return &v, nil
	}
	return nil, youtube.ErrNotFound
}

func (f *fakeMetadata) LookupPlaylist(ctx context.Context, playlistID string) (*youtube.Playlist, []youtube.Video, error) {
	if p, ok := f.playlists[playlistID]; ok {
		return &p.info, p.videos, nil
	}
	return nil, nil, youtube.ErrNotFound
}

func (f *fakeMetadata) LookupChannel(ctx context.Context, ref youtube.Resolution) (*youtube.Channel, []youtube.Video, error) {
	key := ref.ChannelID
	if key == "" {
		key = ref.ChannelHandle
	}
	if c, ok := f.channels[key]; ok {
		return &c.info, c.uploads, nil
	}
	return nil, nil, youtube.ErrNotFound
}

// fakeSearcher returns the same hits for every query.
type fakeSearcher struct {
	hits []search.Hit
	err  error
}

func (f *fakeSearcher) Query(ctx context.Context, term, playlistID string) ([]search.Hit, error) {
	return f.hits, f.err
}

type testEnv struct {
	api      *API
	router   *mux.Router
	store    *store.Store
	metadata *fakeMetadata
	searcher *fakeSearcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ids := 0
	s := store.New(&store.Options{
		Now: func() time.Time { return time.UnixMilli(1700000000000) },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id%d", ids)
		},
	})
	metadata := &fakeMetadata{
		videos:    map[string]youtube.Video{},
		playlists: map[string]fakePlaylist{},
		channels:  map[string]fakeChannel{},
	}
	searcher := &fakeSearcher{}

	a := New(&Options{
		Store:    s,
		Metadata: metadata,
		Search:   searcher,
		Images:   imagecache.New(imagecache.Options{Cachedir: t.TempDir()}),
	})
	r := mux.NewRouter()
	a.RegisterHandlers(r)

	return &testEnv{
		api:      a,
		router:   r,
		store:    s,
		metadata: metadata,
		searcher: searcher,
	}
}

// do runs one request against the router, encoding body as JSON if non-nil.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(blob)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}
