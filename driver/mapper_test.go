package driver

import (
	"reflect"
	"testing"

	"github.com/JackJPowell/uc-intg-plex/config"
	plexapi "github.com/JackJPowell/uc-intg-plex/plex/api"
	"github.com/JackJPowell/uc-intg-plex/ucapi"
)

func tokenURL(path string) string {
	if path == "" {
		return ""
	}
	return "http://pms:32400" + path + "?X-Plex-Token=t0ken"
}

func TestMapSessionEpisode(t *testing.T) {
	session := &plexapi.SessionMetadata{
		Type:             "episode",
		Title:            "Ozymandias",
		ParentTitle:      "Season 5",
		GrandparentTitle: "Breaking Bad",
		Index:            14,
		ParentIndex:      5,
		Thumb:            "/library/metadata/300/thumb",
		ParentThumb:      "/library/metadata/200/thumb",
		GrandparentThumb: "/library/metadata/100/thumb",
		Art:              "/library/metadata/100/art",
		Duration:         2849000,
		ViewOffset:       1200000,
		Player:           plexapi.Player{State: plexapi.StatePlaying},
	}

	attrs := MapSession(session, ArtworkSelection{TV: config.TVArtworkSeries}, tokenURL)

	want := map[string]any{
		ucapi.AttrState:         ucapi.StatePlaying,
		ucapi.AttrMediaTitle:    "Ozymandias",
		ucapi.AttrMediaType:     ucapi.MediaTypeTVShow,
		ucapi.AttrMediaPosition: int64(1200),
		ucapi.AttrMediaDuration: int64(2849),
		ucapi.AttrMediaArtist:   "S05E14",
		ucapi.AttrMediaAlbum:    "",
		ucapi.AttrMediaImageURL: "http://pms:32400/library/metadata/100/thumb?X-Plex-Token=t0ken",
	}
	if !reflect.DeepEqual(attrs, want) {
		t.Errorf("MapSession() = %#v, want %#v", attrs, want)
	}
}

func TestMapSessionTrack(t *testing.T) {
	session := &plexapi.SessionMetadata{
		Type:             "track",
		Title:            "Paranoid Android",
		ParentTitle:      "OK Computer",
		GrandparentTitle: "Radiohead",
		Thumb:            "/library/metadata/400/thumb",
		Duration:         387000,
		ViewOffset:       42000,
		Player:           plexapi.Player{State: plexapi.StatePaused},
	}

	attrs := MapSession(session, ArtworkSelection{}, tokenURL)

	if attrs[ucapi.AttrState] != ucapi.StatePaused {
		t.Errorf("state = %v, want PAUSED", attrs[ucapi.AttrState])
	}
	if attrs[ucapi.AttrMediaType] != ucapi.MediaTypeMusic {
		t.Errorf("media_type = %v, want MUSIC", attrs[ucapi.AttrMediaType])
	}
	if attrs[ucapi.AttrMediaArtist] != "Radiohead" {
		t.Errorf("artist = %v, want Radiohead", attrs[ucapi.AttrMediaArtist])
	}
	if attrs[ucapi.AttrMediaAlbum] != "OK Computer" {
		t.Errorf("album = %v, want OK Computer", attrs[ucapi.AttrMediaAlbum])
	}
}

func TestMapPlayState(t *testing.T) {
	tests := []struct {
		plex string
		want string
	}{
		{plexapi.StatePlaying, ucapi.StatePlaying},
		{plexapi.StatePaused, ucapi.StatePaused},
		{plexapi.StateBuffering, ucapi.StateBuffering},
		{plexapi.StateStopped, ucapi.StateOff},
		{"", ucapi.StateOn},
	}
	for _, test := range tests {
		if got := mapPlayState(test.plex); got != test.want {
			t.Errorf("mapPlayState(%q) = %s, want %s", test.plex, got, test.want)
		}
	}
}

func TestMapMediaTypes(t *testing.T) {
	tests := []struct {
		plex string
		want string
	}{
		{"movie", ucapi.MediaTypeMovie},
		{"episode", ucapi.MediaTypeTVShow},
		{"track", ucapi.MediaTypeMusic},
		{"clip", ucapi.MediaTypeVideo},
		{"somethingelse", ""},
	}
	for _, test := range tests {
		if got := plexMediaTypes[test.plex]; got != test.want {
			t.Errorf("media type for %q = %s, want %s", test.plex, got, test.want)
		}
	}
}

func TestArtworkSelection(t *testing.T) {
	episode := &plexapi.SessionMetadata{
		Type:             "episode",
		Thumb:            "/episode/thumb",
		ParentThumb:      "/season/thumb",
		GrandparentThumb: "/series/thumb",
		Art:              "/series/art",
	}
	movie := &plexapi.SessionMetadata{
		Type:  "movie",
		Thumb: "/movie/thumb",
		Art:   "/movie/art",
	}

	tests := []struct {
		name    string
		session *plexapi.SessionMetadata
		art     ArtworkSelection
		want    string
	}{
		{"series poster", episode, ArtworkSelection{TV: config.TVArtworkSeries}, "/series/thumb"},
		{"season poster", episode, ArtworkSelection{TV: config.TVArtworkSeason}, "/season/thumb"},
		{"episode thumb", episode, ArtworkSelection{TV: config.TVArtworkEpisode}, "/episode/thumb"},
		{"episode art", episode, ArtworkSelection{TV: config.TVArtworkArt}, "/series/art"},
		{"episode default", episode, ArtworkSelection{}, "/series/thumb"},
		{"movie poster", movie, ArtworkSelection{Movie: config.MovieArtworkPoster}, "/movie/thumb"},
		{"movie art", movie, ArtworkSelection{Movie: config.MovieArtworkArt}, "/movie/art"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := artworkPath(test.session, test.art); got != test.want {
				t.Errorf("artworkPath() = %s, want %s", got, test.want)
			}
		})
	}
}

func TestArtworkFallback(t *testing.T) {
	// season selection with no season thumb falls back to the series poster
	episode := &plexapi.SessionMetadata{
		Type:             "episode",
		GrandparentThumb: "/series/thumb",
	}
	if got := artworkPath(episode, ArtworkSelection{TV: config.TVArtworkSeason}); got != "/series/thumb" {
		t.Errorf("artworkPath() = %s, want /series/thumb", got)
	}
}

func TestMapNoSession(t *testing.T) {
	attrs := MapNoSession()
	if attrs[ucapi.AttrState] != ucapi.StateOff {
		t.Errorf("state = %v, want OFF", attrs[ucapi.AttrState])
	}
	if attrs[ucapi.AttrMediaTitle] != "" {
		t.Errorf("title = %v, want empty", attrs[ucapi.AttrMediaTitle])
	}
	if attrs[ucapi.AttrMediaPosition] != int64(0) {
		t.Errorf("position = %v, want 0", attrs[ucapi.AttrMediaPosition])
	}
}
