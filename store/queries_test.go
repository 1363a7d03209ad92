package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentVideoDangling(t *testing.T) {
	s := newTestStore(nil)
	id := s.CreatePlaylist("one")
	s.AddVideo(id, video("aaaaaaaaaaa"))

	// A dangling selection yields nil instead of failing.
	s.SetCurrentVideo("gone0000000")
	assert.Nil(t, s.CurrentVideo())

	s.SetCurrentVideo("aaaaaaaaaaa")
	require.NotNil(t, s.CurrentVideo())
	assert.Equal(t, "aaaaaaaaaaa", s.CurrentVideo().ID)
}

func TestNextPreviousVideo(t *testing.T) {
	s := newTestStore(nil)
	id := s.CreatePlaylist("one")
	s.AddVideos(id, []Video{video("aaaaaaaaaaa"), video("bbbbbbbbbbb"), video("ccccccccccc")})

	assert.Nil(t, s.NextVideo())

	s.SetCurrentVideo("aaaaaaaaaaa")
	require.NotNil(t, s.NextVideo())
	assert.Equal(t, "bbbbbbbbbbb", s.NextVideo().ID)
	assert.Nil(t, s.PreviousVideo())

	s.SetCurrentVideo("ccccccccccc")
	assert.Nil(t, s.NextVideo())
	assert.Equal(t, "bbbbbbbbbbb", s.PreviousVideo().ID)
}

func TestStatusCounts(t *testing.T) {
	s := newTestStore(nil)
	id := s.CreatePlaylist("one")
	s.AddVideos(id, []Video{
		video("aaaaaaaaaaa"),
		video("bbbbbbbbbbb"),
		video("ccccccccccc"),
		video("ddddddddddd"),
	})
	s.SetVideoStatus(id, "aaaaaaaaaaa", StatusCompleted)
	s.SetVideoProgress(id, "bbbbbbbbbbb", 30)

	counts := s.PlaylistStatusCounts(id)
	assert.Equal(t, StatusCounts{Unwatched: 2, InProgress: 1, Completed: 1}, counts)
	assert.Equal(t, counts, s.ActiveStatusCounts())

	// Missing playlist counts as all zeroes.
	assert.Equal(t, StatusCounts{}, s.PlaylistStatusCounts("nope"))
}

func TestQueriesReturnCopies(t *testing.T) {
	s := newTestStore(nil)
	id := s.CreatePlaylist("one")
	s.AddVideo(id, video("aaaaaaaaaaa"))

	p := s.Playlist(id)
	p.Name = "mangled"
	p.Videos[0].Title = "mangled"

	assert.Equal(t, "one", s.Playlist(id).Name)
	assert.Equal(t, "video aaaaaaaaaaa", s.Playlist(id).Videos[0].Title)
}
