package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateNil(t *testing.T) {
	out := Migrate(nil)

	require.NotNil(t, out)
	assert.Equal(t, CurrentVersion, out.Version)
	assert.NotNil(t, out.Playlists)
	assert.Empty(t, out.Playlists)
	assert.NotNil(t, out.Subscriptions)
	assert.Equal(t, ViewPlaylists, out.SidebarView)
}

func TestMigrateFillsDefaults(t *testing.T) {
	out := Migrate(&AppState{
		Playlists: []Playlist{{
			ID:   "p1",
			Name: "one",
			Videos: []Video{
				{ID: "a"},
				{ID: "b", Status: StatusCompleted},
			},
		}},
	})

	assert.Equal(t, CurrentVersion, out.Version)
	assert.Equal(t, StatusUnwatched, out.Playlists[0].Videos[0].Status)
	assert.Equal(t, StatusCompleted, out.Playlists[0].Videos[1].Status)
	assert.Equal(t, ViewPlaylists, out.SidebarView)
}

func TestMigratePreservesFields(t *testing.T) {
	in := &AppState{
		Playlists: []Playlist{{ID: "p1", Name: "one"}},
		Subscriptions: []Subscription{{
			ID:               "s1",
			ChannelID:        "UC1",
			LinkedPlaylistID: "p1",
		}},
		ActivePlaylistID:     "p1",
		ActiveSubscriptionID: "s1",
		CurrentVideoID:       "v1",
		SidebarView:          ViewSubscriptions,
	}
	out := Migrate(in)

	assert.Equal(t, "p1", out.ActivePlaylistID)
	assert.Equal(t, "s1", out.ActiveSubscriptionID)
	assert.Equal(t, "v1", out.CurrentVideoID)
	assert.Equal(t, ViewSubscriptions, out.SidebarView)
	require.Len(t, out.Subscriptions, 1)
	assert.Equal(t, "UC1", out.Subscriptions[0].ChannelID)
}

func TestMigrateIdempotent(t *testing.T) {
	in := &AppState{
		Playlists: []Playlist{{
			ID:     "p1",
			Videos: []Video{{ID: "a"}},
		}},
	}
	once := Migrate(in)
	twice := Migrate(once)
	assert.Equal(t, once, twice)
}

func TestMigrateDeepCopies(t *testing.T) {
	in := &AppState{
		Playlists: []Playlist{{
			ID:     "p1",
			Name:   "one",
			Videos: []Video{{ID: "a", Status: StatusUnwatched}},
		}},
		Subscriptions: []Subscription{{ID: "s1"}},
	}
	out := Migrate(in)

	out.Playlists[0].Name = "mangled"
	out.Playlists[0].Videos[0].ID = "mangled"
	out.Subscriptions[0].ID = "mangled"

	assert.Equal(t, "one", in.Playlists[0].Name)
	assert.Equal(t, "a", in.Playlists[0].Videos[0].ID)
	assert.Equal(t, "s1", in.Subscriptions[0].ID)
}
