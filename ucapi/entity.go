package ucapi

import "maps"

type EntityType string

const EntityTypeMediaPlayer EntityType = "media_player"

// DeviceState is the connection state of the integration as shown on the
// remote.
type DeviceState string

const (
	DeviceConnecting   DeviceState = "CONNECTING"
	DeviceConnected    DeviceState = "CONNECTED"
	DeviceDisconnected DeviceState = "DISCONNECTED"
	DeviceError        DeviceState = "ERROR"
)

// LocalizedText is a language-code keyed text map. The "en" key is the
// fallback used by the remote.
type LocalizedText map[string]string

func Text(en string) LocalizedText {
	return LocalizedText{"en": en}
}

// Entity is an available or configured entity exposed to the remote.
// Attributes are the last pushed values; the integration keeps them so
// late subscribers get a full state snapshot.
type Entity struct {
	ID          string         `json:"entity_id"`
	Type        EntityType     `json:"entity_type"`
	DeviceID    string         `json:"device_id,omitempty"`
	Name        LocalizedText  `json:"name"`
	Features    []string       `json:"features,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	DeviceClass string         `json:"device_class,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
}

// clone copies the entity for serialization outside the registry lock.
// Attributes is the only field mutated after registration.
func (e *Entity) clone() *Entity {
	c := *e
	c.Attributes = maps.Clone(e.Attributes)
	return &c
}

// Media-player entity states.
const (
	StateUnknown     = "UNKNOWN"
	StateUnavailable = "UNAVAILABLE"
	StateOff         = "OFF"
	StateOn          = "ON"
	StateStandby     = "STANDBY"
	StatePlaying     = "PLAYING"
	StatePaused      = "PAUSED"
	StateBuffering   = "BUFFERING"
)

// Media-player attribute keys.
const (
	AttrState                  = "state"
	AttrVolume                 = "volume"
	AttrMuted                  = "muted"
	AttrMediaPosition          = "media_position"
	AttrMediaPositionUpdatedAt = "media_position_updated_at"
	AttrMediaDuration          = "media_duration"
	AttrMediaTitle             = "media_title"
	AttrMediaArtist            = "media_artist"
	AttrMediaAlbum             = "media_album"
	AttrMediaImageURL          = "media_image_url"
	AttrMediaType              = "media_type"
	AttrSource                 = "source"
)

// Media-player media types.
const (
	MediaTypeMusic  = "MUSIC"
	MediaTypeRadio  = "RADIO"
	MediaTypeMovie  = "MOVIE"
	MediaTypeTVShow = "TVSHOW"
	MediaTypeVideo  = "VIDEO"
)

// Media-player features.
const (
	FeatureOnOff         = "on_off"
	FeatureVolume        = "volume"
	FeatureMute          = "mute"
	FeaturePlayPause     = "play_pause"
	FeatureStop          = "stop"
	FeatureNext          = "next"
	FeaturePrevious      = "previous"
	FeatureFastForward   = "fast_forward"
	FeatureRewind        = "rewind"
	FeatureSeek          = "seek"
	FeatureMediaDuration = "media_duration"
	FeatureMediaPosition = "media_position"
	FeatureMediaTitle    = "media_title"
	FeatureMediaArtist   = "media_artist"
	FeatureMediaAlbum    = "media_album"
	FeatureMediaImageURL = "media_image_url"
	FeatureMediaType     = "media_type"
	FeatureDPad          = "dpad"
	FeatureHome          = "home"
	FeatureMenu          = "menu"
	FeatureContextMenu   = "context_menu"
	FeatureGuide         = "guide"
	FeatureInfo          = "info"
)

// Media-player device classes.
const (
	DeviceClassReceiver     = "receiver"
	DeviceClassSetTopBox    = "set_top_box"
	DeviceClassSpeaker      = "speaker"
	DeviceClassStreamingBox = "streaming_box"
	DeviceClassTV           = "tv"
)
