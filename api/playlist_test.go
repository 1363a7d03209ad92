package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isotube/isotube-server/store"
	"github.com/isotube/isotube-server/youtube"
)

func TestCreatePlaylistHandler(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/api/playlists", map[string]string{"name": "watch later"})
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeBody[playlistResponse](t, w)
	assert.Equal(t, "watch later", created.Name)
	assert.True(t, created.Active)

	w = e.do(t, "POST", "/api/playlists", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaylistsHandler(t *testing.T) {
	e := newTestEnv(t)
	e.store.CreatePlaylist("mine")
	e.store.CreateSubscription(store.ChannelMetadata{ID: "UC1", Title: "Channel"}, nil)

	w := e.do(t, "GET", "/api/playlists", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]playlistResponse](t, w), 2)

	// type=user excludes subscription-managed playlists.
	w = e.do(t, "GET", "/api/playlists?type=user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody[[]playlistResponse](t, w)
	require.Len(t, user, 1)
	assert.Equal(t, "mine", user[0].Name)
}

func TestRenameAndDeletePlaylistHandlers(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("old name")

	w := e.do(t, "POST", "/api/playlists/"+id, map[string]string{"name": "new name"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new name", e.store.Playlist(id).Name)

	w = e.do(t, "POST", "/api/playlists/nope", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, "DELETE", "/api/playlists/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, e.store.Playlist(id))

	w = e.do(t, "DELETE", "/api/playlists/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteManagedPlaylistRejected(t *testing.T) {
	e := newTestEnv(t)
	subID := e.store.CreateSubscription(store.ChannelMetadata{
		ID:    "UCabcdefghij0123456789AB",
		Title: "Creator",
	}, nil)

	linked := e.store.SubscriptionPlaylist(subID)
	require.NotNil(t, linked)

	w := e.do(t, "DELETE", "/api/playlists/"+linked.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Playlist and owning subscription are both untouched.
	assert.NotNil(t, e.store.Playlist(linked.ID))
	assert.Len(t, e.store.Subscriptions(), 1)
}

func TestActivatePlaylistHandler(t *testing.T) {
	e := newTestEnv(t)
	first := e.store.CreatePlaylist("one")
	second := e.store.CreatePlaylist("two")
	_ = first

	w := e.do(t, "POST", "/api/playlists/"+second+"/activate", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, second, e.store.ActivePlaylist().ID)
}

func TestAddVideoByInput(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("mix")
	e.metadata.videos["dQw4w9WgXcQ"] = youtube.Video{
		ID:        "dQw4w9WgXcQ",
		URL:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Title:     "Never Gonna Give",
		Thumbnail: "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg",
	}

	w := e.do(t, "POST", "/api/playlists/"+id+"/videos",
		map[string]string{"input": "https://youtu.be/dQw4w9WgXcQ"})
	require.Equal(t, http.StatusCreated, w.Code)

	p := e.store.Playlist(id)
	require.Len(t, p.Videos, 1)
	assert.Equal(t, "Never Gonna Give", p.Videos[0].Title)
	assert.Equal(t, store.StatusUnwatched, p.Videos[0].Status)
}

func TestAddVideoUnknownID(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("mix")

	w := e.do(t, "POST", "/api/playlists/"+id+"/videos",
		map[string]string{"input": "https://youtu.be/aaaaaaaaaaa"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddVideoUnrecognizedInput(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("mix")

	w := e.do(t, "POST", "/api/playlists/"+id+"/videos",
		map[string]string{"input": "certainly not a video"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddPlaylistByInput(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("mix")
	e.store.AddVideo(id, store.Video{ID: "aaaaaaaaaaa", Title: "already here"})

	e.metadata.playlists["PLsource"] = fakePlaylist{
		info: youtube.Playlist{ID: "PLsource", Title: "Source Mix"},
		videos: []youtube.Video{
			{ID: "aaaaaaaaaaa", Title: "already here"},
			{ID: "bbbbbbbbbbb", Title: "fresh"},
		},
	}

	w := e.do(t, "POST", "/api/playlists/"+id+"/videos",
		map[string]string{"input": "https://www.youtube.com/playlist?list=PLsource"})
	require.Equal(t, http.StatusCreated, w.Code)

	p := e.store.Playlist(id)
	require.Len(t, p.Videos, 2)
	assert.Equal(t, "bbbbbbbbbbb", p.Videos[1].ID)
}

func TestImportPlaylistHandler(t *testing.T) {
	e := newTestEnv(t)
	e.metadata.playlists["PLsource"] = fakePlaylist{
		info: youtube.Playlist{ID: "PLsource", Title: "Source Mix"},
		videos: []youtube.Video{
			{ID: "aaaaaaaaaaa", Title: "one"},
			{ID: "bbbbbbbbbbb", Title: "two"},
		},
	}

	w := e.do(t, "POST", "/api/playlists/import",
		map[string]string{"input": "https://www.youtube.com/playlist?list=PLsource"})
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeBody[playlistResponse](t, w)
	// Named after the source playlist, becomes active.
	assert.Equal(t, "Source Mix", created.Name)
	assert.True(t, created.Active)
	assert.Len(t, created.Videos, 2)

	// A video URL is not importable as a playlist.
	w = e.do(t, "POST", "/api/playlists/import",
		map[string]string{"input": "https://youtu.be/dQw4w9WgXcQ"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateVideoHandler(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("mix")
	e.store.AddVideo(id, store.Video{ID: "aaaaaaaaaaa", Title: "before"})

	w := e.do(t, "POST", "/api/playlists/"+id+"/videos/aaaaaaaaaaa",
		map[string]any{"title": "after", "rating": 7})
	require.Equal(t, http.StatusOK, w.Code)

	v := decodeBody[store.Video](t, w)
	assert.Equal(t, "after", v.Title)
	assert.Equal(t, 5, v.Rating)

	w = e.do(t, "POST", "/api/playlists/"+id+"/videos/missing0000",
		map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteVideoHandler(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("mix")
	e.store.AddVideo(id, store.Video{ID: "aaaaaaaaaaa"})

	w := e.do(t, "DELETE", "/api/playlists/"+id+"/videos/aaaaaaaaaaa", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, e.store.Playlist(id).Videos)

	w = e.do(t, "DELETE", "/api/playlists/"+id+"/videos/aaaaaaaaaaa", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveVideoHandler(t *testing.T) {
	e := newTestEnv(t)
	from := e.store.CreatePlaylist("from")
	to := e.store.CreatePlaylist("to")
	e.store.AddVideo(from, store.Video{ID: "aaaaaaaaaaa", Notes: "keep"})

	w := e.do(t, "POST", "/api/playlists/"+from+"/videos/aaaaaaaaaaa/move",
		map[string]string{"toPlaylistId": to})
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Empty(t, e.store.Playlist(from).Videos)
	moved := e.store.Playlist(to).Videos
	require.Len(t, moved, 1)
	assert.Equal(t, "keep", moved[0].Notes)

	w = e.do(t, "POST", "/api/playlists/"+to+"/videos/aaaaaaaaaaa/move",
		map[string]string{"toPlaylistId": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVideoStatusHandler(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("mix")
	e.store.AddVideo(id, store.Video{ID: "aaaaaaaaaaa"})

	w := e.do(t, "POST", "/api/playlists/"+id+"/videos/aaaaaaaaaaa/status",
		map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.StatusCompleted, e.store.Playlist(id).Videos[0].Status)

	w = e.do(t, "POST", "/api/playlists/"+id+"/videos/aaaaaaaaaaa/status",
		map[string]string{"status": "watched-ish"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVideoRatingAndNotesHandlers(t *testing.T) {
	e := newTestEnv(t)
	id := e.store.CreatePlaylist("mix")
	e.store.AddVideo(id, store.Video{ID: "aaaaaaaaaaa"})

	w := e.do(t, "POST", "/api/playlists/"+id+"/videos/aaaaaaaaaaa/rating",
		map[string]int{"rating": 4})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, e.store.Playlist(id).Videos[0].Rating)

	w = e.do(t, "POST", "/api/playlists/"+id+"/videos/aaaaaaaaaaa/notes",
		map[string]string{"notes": "watch at 2x"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "watch at 2x", e.store.Playlist(id).Videos[0].Notes)
}

func TestResolveHandler(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "GET", "/api/resolve?input=https://youtu.be/dQw4w9WgXcQ", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeBody[youtube.Resolution](t, w)
	assert.Equal(t, youtube.KindVideo, res.Kind)
	assert.Equal(t, "dQw4w9WgXcQ", res.VideoID)
}
