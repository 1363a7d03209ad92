package store

import (
	"log"
	"sync"
	"time"

	"github.com/isotube/isotube-server/idhash"
)

// StateRepo is the persistence adapter consumed by the Store: one named
// document, loaded once at startup and written after every mutation. Save
// failures are logged by the Store and never surfaced to callers; the
// in-memory snapshot stays authoritative for the session.
type StateRepo interface {
	// Load returns the stored document, or (nil, nil) if none exists yet.
	Load(key string) (*AppState, error)
	Save(key string, state *AppState) error
}

type Options struct {
	Repo StateRepo
	// Key names the persisted document, default "isotube-state".
	Key string
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Store owns the canonical in-memory state. All operations are immediate and
// total over the current snapshot; mutations never fail on missing references,
// they no-op instead so stale client callbacks cannot crash the state layer.
type Store struct {
	mu         sync.Mutex
	state      *AppState
	generation int64

	repo  StateRepo
	key   string
	now   func() time.Time
	newID func() string
}

const defaultStateKey = "isotube-state"

// New creates a Store and loads the persisted document through Migrate, so
// the rest of the process never observes an incomplete state.
func New(o *Options) *Store {
	s := &Store{
		repo:  o.Repo,
		key:   o.Key,
		now:   o.Now,
		newID: o.NewID,
	}
	if s.key == "" {
		s.key = defaultStateKey
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = idhash.NewRandomID
	}

	var loaded *AppState
	if s.repo != nil {
		var err error
		loaded, err = s.repo.Load(s.key)
		if err != nil {
			log.Printf("store: loading state %q: %s", s.key, err)
		}
	}
	s.state = Migrate(loaded)
	return s
}

// nowMillis is the timestamp written into createdAt/addedAt/lastRefreshed.
func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// apply runs one mutation: migrate-copy the current snapshot, let fn edit the
// copy, swap it in, and persist. Holding the lock across persist keeps the
// saved documents in mutation order.
func (s *Store) apply(fn func(st *AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Migrate(s.state)
	fn(next)
	s.state = next
	s.generation++

	if s.repo == nil {
		return
	}
	if err := s.repo.Save(s.key, next); err != nil {
		log.Printf("store: persisting state %q: %s", s.key, err)
	}
}

// Generation increases by one on every mutation. The search indexer polls it
// to decide when to rebuild.
func (s *Store) Generation() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Snapshot returns a deep copy of the current state. Callers may keep or
// mutate it freely.
func (s *Store) Snapshot() *AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Migrate(s.state)
}

// CreatePlaylist appends a new empty playlist and returns its id. The first
// playlist created becomes the active one.
func (s *Store) CreatePlaylist(name string) string {
	id := s.newID()
	s.apply(func(st *AppState) {
		st.Playlists = append(st.Playlists, Playlist{
			ID:        id,
			Name:      name,
			Videos:    []Video{},
			CreatedAt: s.nowMillis(),
		})
		if st.ActivePlaylistID == "" {
			st.ActivePlaylistID = id
		}
	})
	return id
}

// RenamePlaylist sets the display name, no-op if the playlist is missing.
func (s *Store) RenamePlaylist(id, name string) {
	s.apply(func(st *AppState) {
		if p := st.playlistByID(id); p != nil {
			p.Name = name
		}
	})
}

// DeletePlaylist removes a playlist. If it was active, the first remaining
// playlist becomes active and the current video selection is cleared.
func (s *Store) DeletePlaylist(id string) {
	s.apply(func(st *AppState) {
		idx := -1
		for i := range st.Playlists {
			if st.Playlists[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return
		}
		st.Playlists = append(st.Playlists[:idx], st.Playlists[idx+1:]...)

		if st.ActivePlaylistID == id {
			st.ActivePlaylistID = ""
			if len(st.Playlists) > 0 {
				st.ActivePlaylistID = st.Playlists[0].ID
			}
			st.CurrentVideoID = ""
		}
	})
}

// SetActivePlaylist switches the active playlist. Switching always drops the
// current video selection, even when re-selecting the same playlist.
func (s *Store) SetActivePlaylist(id string) {
	s.apply(func(st *AppState) {
		st.ActivePlaylistID = id
		st.CurrentVideoID = ""
	})
}

// AddVideo appends one video with addedAt set to now. The single-add path
// trusts the caller and does no duplicate check.
func (s *Store) AddVideo(playlistID string, v Video) {
	s.apply(func(st *AppState) {
		p := st.playlistByID(playlistID)
		if p == nil {
			return
		}
		v.AddedAt = s.nowMillis()
		if v.Status == "" {
			v.Status = StatusUnwatched
		}
		p.Videos = append(p.Videos, v)
	})
}

// AddVideos appends videos whose ids are not already in the playlist.
// Each survivor gets addedAt = now + its index, so a later addedAt sort keeps
// the source order stable. Re-applying the same batch adds nothing.
func (s *Store) AddVideos(playlistID string, videos []Video) {
	s.apply(func(st *AppState) {
		p := st.playlistByID(playlistID)
		if p == nil {
			return
		}
		p.Videos = append(p.Videos, s.dedupe(p, videos)...)
	})
}

// dedupe drops videos already present in p and stamps the remainder with
// strictly increasing addedAt values.
func (s *Store) dedupe(p *Playlist, videos []Video) []Video {
	existing := make(map[string]bool, len(p.Videos))
	for i := range p.Videos {
		existing[p.Videos[i].ID] = true
	}
	base := s.nowMillis()
	out := make([]Video, 0, len(videos))
	for _, v := range videos {
		if existing[v.ID] {
			continue
		}
		existing[v.ID] = true
		v.AddedAt = base + int64(len(out))
		if v.Status == "" {
			v.Status = StatusUnwatched
		}
		out = append(out, v)
	}
	return out
}

// UpdateVideo shallow-merges the non-nil fields of upd onto the video.
// Unknown playlist or video ids are a silent no-op.
func (s *Store) UpdateVideo(playlistID, videoID string, upd VideoUpdate) {
	s.apply(func(st *AppState) {
		v := st.playlistByID(playlistID).videoByID(videoID)
		if v == nil {
			return
		}
		upd.applyTo(v)
	})
}

// VideoUpdate carries the fields UpdateVideo may change; nil means unchanged.
type VideoUpdate struct {
	Title    *string      `json:"title"`
	Notes    *string      `json:"notes"`
	Rating   *int         `json:"rating"`
	Status   *VideoStatus `json:"status"`
	Progress *int         `json:"progress"`
}

func (u VideoUpdate) applyTo(v *Video) {
	if u.Title != nil {
		v.Title = *u.Title
	}
	if u.Notes != nil {
		v.Notes = *u.Notes
	}
	if u.Rating != nil {
		v.Rating = clampRating(*u.Rating)
	}
	if u.Status != nil {
		v.Status = *u.Status
	}
	if u.Progress != nil {
		v.Progress = max(0, *u.Progress)
	}
}

func clampRating(r int) int {
	return max(0, min(5, r))
}

// DeleteVideo removes a video if present; clears the current selection when
// the deleted video was the one playing. Idempotent.
func (s *Store) DeleteVideo(playlistID, videoID string) {
	s.apply(func(st *AppState) {
		if p := st.playlistByID(playlistID); p != nil {
			if i := p.videoIndex(videoID); i != -1 {
				p.Videos = append(p.Videos[:i], p.Videos[i+1:]...)
			}
		}
		if st.CurrentVideoID == videoID {
			st.CurrentVideoID = ""
		}
	})
}

// MoveVideo removes the video from one playlist and appends it to the end of
// another, keeping its user metadata. No-op if either playlist or the video
// is missing.
func (s *Store) MoveVideo(fromID, toID, videoID string) {
	s.apply(func(st *AppState) {
		from := st.playlistByID(fromID)
		to := st.playlistByID(toID)
		if from == nil || to == nil {
			return
		}
		i := from.videoIndex(videoID)
		if i == -1 {
			return
		}
		v := from.Videos[i]
		from.Videos = append(from.Videos[:i], from.Videos[i+1:]...)
		to.Videos = append(to.Videos, v)
	})
}

// CreatePlaylistWithVideos creates a playlist pre-populated with the given
// videos, makes it active, and returns its id. Used by the playlist import
// flow.
func (s *Store) CreatePlaylistWithVideos(name string, videos []Video) string {
	id := s.newID()
	s.apply(func(st *AppState) {
		p := Playlist{
			ID:        id,
			Name:      name,
			Videos:    []Video{},
			CreatedAt: s.nowMillis(),
		}
		p.Videos = s.dedupe(&p, videos)
		st.Playlists = append(st.Playlists, p)
		st.ActivePlaylistID = id
	})
	return id
}

// SetVideoStatus sets the watch status explicitly. An explicit status always
// wins over the derivation done by SetVideoProgress.
func (s *Store) SetVideoStatus(playlistID, videoID string, status VideoStatus) {
	st := status
	s.UpdateVideo(playlistID, videoID, VideoUpdate{Status: &st})
}

// SetVideoProgress records seconds watched. Progress > 0 promotes an
// unwatched video to in_progress; it never downgrades completed, and a
// progress reset to 0 (the playback-ended path) leaves the status untouched.
func (s *Store) SetVideoProgress(playlistID, videoID string, seconds int) {
	s.apply(func(st *AppState) {
		v := st.playlistByID(playlistID).videoByID(videoID)
		if v == nil {
			return
		}
		v.Progress = max(0, seconds)
		if seconds > 0 && v.Status == StatusUnwatched {
			v.Status = StatusInProgress
		}
	})
}

// SetVideoRating stores the rating clamped to [0,5]; 0 means unrated.
func (s *Store) SetVideoRating(playlistID, videoID string, rating int) {
	r := rating
	s.UpdateVideo(playlistID, videoID, VideoUpdate{Rating: &r})
}

// SetVideoNotes replaces the free-form notes.
func (s *Store) SetVideoNotes(playlistID, videoID, notes string) {
	n := notes
	s.UpdateVideo(playlistID, videoID, VideoUpdate{Notes: &n})
}

// SetCurrentVideo selects the video loaded into the playback surface. No
// existence check: queries tolerate a dangling id by returning nil.
func (s *Store) SetCurrentVideo(videoID string) {
	s.apply(func(st *AppState) {
		st.CurrentVideoID = videoID
	})
}

// PlayNext advances the selection one position in playlist order; no-op at
// the end of the list or without an active selection.
func (s *Store) PlayNext() {
	s.playStep(1)
}

// PlayPrevious moves the selection one position back; no-op at the start.
func (s *Store) PlayPrevious() {
	s.playStep(-1)
}

func (s *Store) playStep(delta int) {
	s.apply(func(st *AppState) {
		p := st.playlistByID(st.ActivePlaylistID)
		if p == nil || st.CurrentVideoID == "" {
			return
		}
		i := p.videoIndex(st.CurrentVideoID)
		if i == -1 {
			return
		}
		next := i + delta
		if next < 0 || next >= len(p.Videos) {
			return
		}
		st.CurrentVideoID = p.Videos[next].ID
	})
}

// ChannelMetadata describes a channel as resolved by the metadata client.
type ChannelMetadata struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// CreateSubscription atomically creates a subscription and its linked
// playlist, pre-populated with the channel's initial videos. Both become
// active and the sidebar switches to the subscriptions view.
func (s *Store) CreateSubscription(channel ChannelMetadata, initialVideos []Video) string {
	subID := s.newID()
	playlistID := s.newID()
	s.apply(func(st *AppState) {
		now := s.nowMillis()
		p := Playlist{
			ID:                   playlistID,
			Name:                 channel.Title,
			Videos:               []Video{},
			CreatedAt:            now,
			LinkedSubscriptionID: subID,
		}
		p.Videos = s.dedupe(&p, initialVideos)

		st.Playlists = append(st.Playlists, p)
		st.Subscriptions = append(st.Subscriptions, Subscription{
			ID:               subID,
			ChannelID:        channel.ID,
			Name:             channel.Title,
			Thumbnail:        channel.Thumbnail,
			LinkedPlaylistID: playlistID,
			LastRefreshed:    now,
			CreatedAt:        now,
		})
		st.ActiveSubscriptionID = subID
		st.ActivePlaylistID = playlistID
		st.SidebarView = ViewSubscriptions
	})
	return subID
}

// DeleteSubscription removes the subscription and its linked playlist as an
// atomic pair. If it was active, the first remaining subscription (and its
// playlist) takes over, or the selection goes empty.
func (s *Store) DeleteSubscription(id string) {
	s.apply(func(st *AppState) {
		sub := st.subscriptionByID(id)
		if sub == nil {
			return
		}
		linkedPlaylistID := sub.LinkedPlaylistID

		for i := range st.Playlists {
			if st.Playlists[i].ID == linkedPlaylistID {
				st.Playlists = append(st.Playlists[:i], st.Playlists[i+1:]...)
				break
			}
		}
		for i := range st.Subscriptions {
			if st.Subscriptions[i].ID == id {
				st.Subscriptions = append(st.Subscriptions[:i], st.Subscriptions[i+1:]...)
				break
			}
		}

		if st.ActiveSubscriptionID == id {
			st.ActiveSubscriptionID = ""
			st.ActivePlaylistID = ""
			if len(st.Subscriptions) > 0 {
				st.ActiveSubscriptionID = st.Subscriptions[0].ID
				st.ActivePlaylistID = st.Subscriptions[0].LinkedPlaylistID
			}
		}
		// The linked playlist of a non-active subscription can still be the
		// active playlist when the user browsed into it directly.
		if st.ActivePlaylistID == linkedPlaylistID {
			st.ActivePlaylistID = ""
			if len(st.Playlists) > 0 {
				st.ActivePlaylistID = st.Playlists[0].ID
			}
		}
		st.CurrentVideoID = ""
	})
}

// SetActiveSubscription selects a subscription and correspondingly activates
// its linked playlist; the current video selection is cleared.
func (s *Store) SetActiveSubscription(id string) {
	s.apply(func(st *AppState) {
		st.ActiveSubscriptionID = id
		if id != "" {
			if sub := st.subscriptionByID(id); sub != nil {
				st.ActivePlaylistID = sub.LinkedPlaylistID
			} else {
				st.ActivePlaylistID = ""
			}
		}
		st.CurrentVideoID = ""
	})
}

// RefreshSubscription merges a channel's recent uploads into the linked
// playlist: videos already present are skipped, the rest are prepended so new
// content surfaces at the top. Updates lastRefreshed.
func (s *Store) RefreshSubscription(id string, newVideos []Video) {
	s.apply(func(st *AppState) {
		sub := st.subscriptionByID(id)
		if sub == nil {
			return
		}
		p := st.playlistByID(sub.LinkedPlaylistID)
		if p == nil {
			return
		}
		fresh := s.dedupe(p, newVideos)
		p.Videos = append(fresh, p.Videos...)
		sub.LastRefreshed = s.nowMillis()
	})
}

// SetSidebarView switches between the playlists and subscriptions views.
func (s *Store) SetSidebarView(view SidebarView) {
	s.apply(func(st *AppState) {
		if view == ViewSubscriptions {
			st.SidebarView = ViewSubscriptions
		} else {
			st.SidebarView = ViewPlaylists
		}
	})
}

// ImportState wholesale-replaces the state with the given document, migrated
// to the current shape. Validation of the document (beyond migration's
// fill-in-defaults) is the caller's job.
func (s *Store) ImportState(newState *AppState) {
	s.apply(func(st *AppState) {
		*st = *Migrate(newState)
	})
}

// ExportState returns a deep-copied snapshot for serialization.
func (s *Store) ExportState() *AppState {
	return s.Snapshot()
}
