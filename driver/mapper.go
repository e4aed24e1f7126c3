package driver

import (
	"fmt"

	"github.com/JackJPowell/uc-intg-plex/config"
	plexapi "github.com/JackJPowell/uc-intg-plex/plex/api"
	"github.com/JackJPowell/uc-intg-plex/ucapi"
)

// plexMediaTypes maps Plex metadata types to media-player media types.
var plexMediaTypes = map[string]string{
	"music":      ucapi.MediaTypeMusic,
	"artist":     ucapi.MediaTypeMusic,
	"album":      ucapi.MediaTypeMusic,
	"song":       ucapi.MediaTypeMusic,
	"track":      ucapi.MediaTypeMusic,
	"audio":      ucapi.MediaTypeMusic,
	"set":        ucapi.MediaTypeMusic,
	"video":      ucapi.MediaTypeVideo,
	"musicvideo": ucapi.MediaTypeVideo,
	"clip":       ucapi.MediaTypeVideo,
	"movie":      ucapi.MediaTypeMovie,
	"tvshow":     ucapi.MediaTypeTVShow,
	"season":     ucapi.MediaTypeTVShow,
	"episode":    ucapi.MediaTypeTVShow,
	"channel":    ucapi.MediaTypeTVShow,
}

// ArtworkSelection chooses which Plex artwork path is exposed as the
// media image, configured per device during setup.
type ArtworkSelection struct {
	TV    string
	Movie string
}

// MapSession translates a Plex session snapshot into media-player entity
// attributes. resourceURL turns a server resource path into a fetchable URL;
// missing session fields map to zero-valued attributes.
func MapSession(s *plexapi.SessionMetadata, art ArtworkSelection, resourceURL func(path string) string) map[string]any {
	attrs := map[string]any{
		ucapi.AttrState:         mapPlayState(s.Player.State),
		ucapi.AttrMediaTitle:    s.Title,
		ucapi.AttrMediaType:     plexMediaTypes[s.Type],
		ucapi.AttrMediaPosition: s.ViewOffset / 1000,
		ucapi.AttrMediaDuration: s.Duration / 1000,
		ucapi.AttrMediaArtist:   "",
		ucapi.AttrMediaAlbum:    "",
	}

	switch s.Type {
	case "episode":
		attrs[ucapi.AttrMediaArtist] = fmt.Sprintf("S%02dE%02d", s.ParentIndex, s.Index)
	case "track":
		attrs[ucapi.AttrMediaArtist] = s.GrandparentTitle
		attrs[ucapi.AttrMediaAlbum] = s.ParentTitle
	}

	attrs[ucapi.AttrMediaImageURL] = resourceURL(artworkPath(s, art))
	return attrs
}

// MapNoSession returns the attribute set of an idle player: off, with all
// media attributes cleared.
func MapNoSession() map[string]any {
	return map[string]any{
		ucapi.AttrState:         ucapi.StateOff,
		ucapi.AttrMediaTitle:    "",
		ucapi.AttrMediaArtist:   "",
		ucapi.AttrMediaAlbum:    "",
		ucapi.AttrMediaImageURL: "",
		ucapi.AttrMediaType:     "",
		ucapi.AttrMediaPosition: int64(0),
		ucapi.AttrMediaDuration: int64(0),
		ucapi.AttrSource:        "",
	}
}

func mapPlayState(state string) string {
	switch state {
	case plexapi.StatePlaying:
		return ucapi.StatePlaying
	case plexapi.StatePaused:
		return ucapi.StatePaused
	case plexapi.StateBuffering:
		return ucapi.StateBuffering
	case plexapi.StateStopped:
		return ucapi.StateOff
	}
	return ucapi.StateOn
}

// artworkPath picks the artwork resource path according to the configured
// selection, falling back to the series poster for episodes and the item
// poster for everything else.
func artworkPath(s *plexapi.SessionMetadata, art ArtworkSelection) string {
	if s.Type == "episode" {
		var path string
		switch art.TV {
		case config.TVArtworkSeason:
			path = s.ParentThumb
		case config.TVArtworkEpisode:
			path = s.Thumb
		case config.TVArtworkArt:
			path = s.Art
		default:
			path = s.GrandparentThumb
		}
		if path == "" {
			path = s.GrandparentThumb
		}
		return path
	}

	var path string
	switch art.Movie {
	case config.MovieArtworkArt:
		path = s.Art
	default:
		path = s.Thumb
	}
	if path == "" {
		path = s.Thumb
	}
	return path
}
