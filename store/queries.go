package store

// Read-only derived queries. Each one recomputes from the current snapshot;
// nothing is cached. Returned structs are copies, safe to hand to callers.

// ActivePlaylist returns the playlist referenced by activePlaylistId, or nil.
func (s *Store) ActivePlaylist() *Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPlaylist(s.state.playlistByID(s.state.ActivePlaylistID))
}

// CurrentVideo returns the selected video within the active playlist, or nil.
// A dangling currentVideoId simply yields nil.
func (s *Store) CurrentVideo() *Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.playlistByID(s.state.ActivePlaylistID)
	if v := p.videoByID(s.state.CurrentVideoID); v != nil {
		c := *v
		return &c
	}
	return nil
}

// Playlists returns all playlists in display order.
func (s *Store) Playlists() []Playlist {
	return s.Snapshot().Playlists
}

// UserPlaylists returns the hand-curated playlists, excluding the ones
// managed by a subscription.
func (s *Store) UserPlaylists() []Playlist {
	all := s.Snapshot().Playlists
	out := make([]Playlist, 0, len(all))
	for _, p := range all {
		if p.LinkedSubscriptionID == "" {
			out = append(out, p)
		}
	}
	return out
}

// Playlist returns one playlist by id, or nil.
func (s *Store) Playlist(id string) *Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPlaylist(s.state.playlistByID(id))
}

// Subscriptions returns all subscriptions in creation order.
func (s *Store) Subscriptions() []Subscription {
	return s.Snapshot().Subscriptions
}

// ActiveSubscription returns the selected subscription, or nil.
func (s *Store) ActiveSubscription() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub := s.state.subscriptionByID(s.state.ActiveSubscriptionID); sub != nil {
		c := *sub
		return &c
	}
	return nil
}

// SubscriptionPlaylist returns the playlist managed by a subscription, or nil.
func (s *Store) SubscriptionPlaylist(subscriptionID string) *Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.state.subscriptionByID(subscriptionID)
	if sub == nil {
		return nil
	}
	return copyPlaylist(s.state.playlistByID(sub.LinkedPlaylistID))
}

// NextVideo returns the video after the current one in playlist order, or nil
// at the end of the list. No wraparound.
func (s *Store) NextVideo() *Video {
	return s.neighborVideo(1)
}

// PreviousVideo returns the video before the current one, or nil at the start.
func (s *Store) PreviousVideo() *Video {
	return s.neighborVideo(-1)
}

func (s *Store) neighborVideo(delta int) *Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.playlistByID(s.state.ActivePlaylistID)
	if p == nil || s.state.CurrentVideoID == "" {
		return nil
	}
	i := p.videoIndex(s.state.CurrentVideoID)
	if i == -1 {
		return nil
	}
	n := i + delta
	if n < 0 || n >= len(p.Videos) {
		return nil
	}
	c := p.Videos[n]
	return &c
}

// StatusCounts holds per-watch-status video counts for one playlist.
type StatusCounts struct {
	Unwatched  int `json:"unwatched"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// PlaylistStatusCounts counts videos per status in the given playlist.
// A missing playlist yields all zeroes.
func (s *Store) PlaylistStatusCounts(playlistID string) StatusCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c StatusCounts
	p := s.state.playlistByID(playlistID)
	if p == nil {
		return c
	}
	for i := range p.Videos {
		switch p.Videos[i].Status {
		case StatusInProgress:
			c.InProgress++
		case StatusCompleted:
			c.Completed++
		default:
			c.Unwatched++
		}
	}
	return c
}

// ActiveStatusCounts counts videos per status in the active playlist.
func (s *Store) ActiveStatusCounts() StatusCounts {
	s.mu.Lock()
	id := s.state.ActivePlaylistID
	s.mu.Unlock()
	return s.PlaylistStatusCounts(id)
}

// SidebarView returns the current browsing mode.
func (s *Store) SidebarView() SidebarView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SidebarView
}

func copyPlaylist(p *Playlist) *Playlist {
	if p == nil {
		return nil
	}
	c := *p
	c.Videos = make([]Video, len(p.Videos))
	copy(c.Videos, p.Videos)
	return &c
}
