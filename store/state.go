// Package store owns the canonical application state: the user's playlists,
// videos and channel subscriptions. All mutations go through the Store, which
// works on copy-on-write snapshots and persists every new snapshot through a
// database.StateRepo.
package store

// VideoStatus is the watch status of a single video.
type VideoStatus string

const (
	StatusUnwatched  VideoStatus = "unwatched"
	StatusInProgress VideoStatus = "in_progress"
	StatusCompleted  VideoStatus = "completed"
)

// SidebarView selects which browsing mode the client shows.
type SidebarView string

const (
	ViewPlaylists     SidebarView = "playlists"
	ViewSubscriptions SidebarView = "subscriptions"
)

// Video is one external content item plus the user's own metadata for it.
// The id is the external content identifier; it is unique within a playlist
// but the same video may appear in multiple playlists with independent
// notes, rating and progress.
type Video struct {
	ID        string      `json:"id"`
	URL       string      `json:"url"`
	Title     string      `json:"title"`
	Thumbnail string      `json:"thumbnail"`
	Notes     string      `json:"notes"`
	Rating    int         `json:"rating"`
	Status    VideoStatus `json:"status"`
	// Seconds watched.
	Progress int `json:"progress"`
	// Unix milliseconds, default sort key.
	AddedAt     int64  `json:"addedAt"`
	UploadDate  string `json:"uploadDate,omitempty"`
	Description string `json:"description,omitempty"`
}

// Playlist is a named, ordered collection of videos. A playlist with a
// non-empty LinkedSubscriptionID is managed by that subscription and its
// video set is refreshed automatically instead of hand-curated.
type Playlist struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Videos               []Video `json:"videos"`
	CreatedAt            int64   `json:"createdAt"`
	LinkedSubscriptionID string  `json:"linkedSubscriptionId,omitempty"`
}

// Subscription is a tracked external channel owning exactly one linked
// playlist for its lifetime.
type Subscription struct {
	ID               string `json:"id"`
	ChannelID        string `json:"channelId"`
	Name             string `json:"name"`
	Thumbnail        string `json:"thumbnail"`
	LinkedPlaylistID string `json:"linkedPlaylistId"`
	LastRefreshed    int64  `json:"lastRefreshed,omitempty"`
	CreatedAt        int64  `json:"createdAt"`
}

// AppState is the whole persisted application state, one document per user
// profile. Field names match the original browser app's backup format so old
// exports import unchanged.
type AppState struct {
	// Schema version of this document. Version 0 documents (pre-versioning
	// exports) are still accepted, Migrate fills whatever is missing.
	Version              int            `json:"version,omitempty"`
	Playlists            []Playlist     `json:"playlists"`
	Subscriptions        []Subscription `json:"subscriptions"`
	ActivePlaylistID     string         `json:"activePlaylistId,omitempty"`
	ActiveSubscriptionID string         `json:"activeSubscriptionId,omitempty"`
	CurrentVideoID       string         `json:"currentVideoId,omitempty"`
	SidebarView          SidebarView    `json:"sidebarView,omitempty"`
}

// CurrentVersion is the schema version written with every persisted document.
const CurrentVersion = 1

// Migrate produces a complete, current-shape state from a possibly partial or
// older-shaped document. It also deep-copies every collection, so the result
// never aliases the input; the Store relies on this for its copy-on-write
// snapshots. Migrate is total and idempotent, a nil input yields the default
// empty state.
func Migrate(in *AppState) *AppState {
	out := &AppState{
		Version:     CurrentVersion,
		SidebarView: ViewPlaylists,
	}
	if in == nil {
		out.Playlists = []Playlist{}
		out.Subscriptions = []Subscription{}
		return out
	}

	out.Playlists = make([]Playlist, len(in.Playlists))
	for i, p := range in.Playlists {
		videos := make([]Video, len(p.Videos))
		copy(videos, p.Videos)
		for j := range videos {
			if videos[j].Status == "" {
				videos[j].Status = StatusUnwatched
			}
		}
		p.Videos = videos
		out.Playlists[i] = p
	}
	out.Subscriptions = make([]Subscription, len(in.Subscriptions))
	copy(out.Subscriptions, in.Subscriptions)

	out.ActivePlaylistID = in.ActivePlaylistID
	out.ActiveSubscriptionID = in.ActiveSubscriptionID
	out.CurrentVideoID = in.CurrentVideoID
	if in.SidebarView == ViewSubscriptions {
		out.SidebarView = ViewSubscriptions
	}
	return out
}

// playlistByID returns a pointer into the state's playlist slice, or nil.
func (s *AppState) playlistByID(id string) *Playlist {
	if id == "" {
		return nil
	}
	for i := range s.Playlists {
		if s.Playlists[i].ID == id {
			return &s.Playlists[i]
		}
	}
	return nil
}

// subscriptionByID returns a pointer into the state's subscription slice, or nil.
func (s *AppState) subscriptionByID(id string) *Subscription {
	if id == "" {
		return nil
	}
	for i := range s.Subscriptions {
		if s.Subscriptions[i].ID == id {
			return &s.Subscriptions[i]
		}
	}
	return nil
}

// videoByID returns a pointer into the playlist's video slice, or nil.
func (p *Playlist) videoByID(id string) *Video {
	if p == nil || id == "" {
		return nil
	}
	for i := range p.Videos {
		if p.Videos[i].ID == id {
			return &p.Videos[i]
		}
	}
	return nil
}

// videoIndex returns the position of a video in the playlist, or -1.
func (p *Playlist) videoIndex(id string) int {
	if p == nil {
		return -1
	}
	for i := range p.Videos {
		if p.Videos[i].ID == id {
			return i
		}
	}
	return -1
}
