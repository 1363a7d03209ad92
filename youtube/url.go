package youtube

import (
	"regexp"
	"strings"
)

// Kind classifies what a pasted string refers to.
type Kind string

const (
	KindVideo        Kind = "video"
	KindPlaylist     Kind = "playlist"
	KindChannel      Kind = "channel"
	KindUnrecognized Kind = "unrecognized"
)

// Resolution is the outcome of parsing a pasted string. Exactly one of the
// id fields is set, matching Kind.
type Resolution struct {
	Kind       Kind
	VideoID    string
	PlaylistID string
	// ChannelID is a UC... id; ChannelHandle an @handle or legacy custom
	// name, to be resolved via the channels endpoint.
	ChannelID     string
	ChannelHandle string
}

var (
	videoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	// watch?v=ID, youtu.be/ID, embed/ID, /v/ID, shorts/ID
	videoURLRe = regexp.MustCompile(
		`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)
	playlistURLRe  = regexp.MustCompile(`[?&]list=([a-zA-Z0-9_-]+)`)
	channelURLRe   = regexp.MustCompile(`youtube\.com/channel/(UC[a-zA-Z0-9_-]+)`)
	handleURLRe    = regexp.MustCompile(`youtube\.com/(@[a-zA-Z0-9_.-]+)`)
	customNameRe   = regexp.MustCompile(`youtube\.com/(?:c|user)/([a-zA-Z0-9_.-]+)`)
	bareChannelRe  = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)
	barePlaylistRe = regexp.MustCompile(`^PL[a-zA-Z0-9_-]+$`)
)

// Resolve parses a pasted string into a video, playlist or channel reference.
// A URL carrying both a video id and a list= parameter resolves to the
// playlist: pasting a "watch within playlist" link means importing the list.
func Resolve(input string) Resolution {
	input = strings.TrimSpace(input)
	if input == "" {
		return Resolution{Kind: KindUnrecognized}
	}

	if m := playlistURLRe.FindStringSubmatch(input); m != nil {
		return Resolution{Kind: KindPlaylist, PlaylistID: m[1]}
	}
	if m := videoURLRe.FindStringSubmatch(input); m != nil {
		return Resolution{Kind: KindVideo, VideoID: m[1]}
	}
	if m := channelURLRe.FindStringSubmatch(input); m != nil {
		return Resolution{Kind: KindChannel, ChannelID: m[1]}
	}
	if m := handleURLRe.FindStringSubmatch(input); m != nil {
		return Resolution{Kind: KindChannel, ChannelHandle: m[1]}
	}
	if m := customNameRe.FindStringSubmatch(input); m != nil {
		return Resolution{Kind: KindChannel, ChannelHandle: m[1]}
	}

	// Bare identifiers.
	if bareChannelRe.MatchString(input) {
		return Resolution{Kind: KindChannel, ChannelID: input}
	}
	if barePlaylistRe.MatchString(input) {
		return Resolution{Kind: KindPlaylist, PlaylistID: input}
	}
	if videoIDRe.MatchString(input) {
		return Resolution{Kind: KindVideo, VideoID: input}
	}
	if strings.HasPrefix(input, "@") {
		return Resolution{Kind: KindChannel, ChannelHandle: input}
	}

	return Resolution{Kind: KindUnrecognized}
}

// IsValidVideoID reports whether id looks like a video id.
func IsValidVideoID(id string) bool {
	return videoIDRe.MatchString(id)
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ThumbnailURL returns the standard medium-quality thumbnail for a video id.
func ThumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/mqdefault.jpg"
}
