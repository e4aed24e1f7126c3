package api

type SessionList struct {
	Sessions `json:"MediaContainer"`
}

type Sessions struct {
	Size     int               `json:"size"`
	Metadata []SessionMetadata `json:"Metadata"`
}

// SessionMetadata is one entry of /status/sessions: the media item being
// played together with the playing session and the controlling player.
type SessionMetadata struct {
	Key              string `json:"key"`
	Type             string `json:"type"`
	Title            string `json:"title"`
	ParentTitle      string `json:"parentTitle"`
	GrandparentTitle string `json:"grandparentTitle"`
	Index            int    `json:"index"`
	ParentIndex      int    `json:"parentIndex"`
	Thumb            string `json:"thumb"`
	ParentThumb      string `json:"parentThumb"`
	GrandparentThumb string `json:"grandparentThumb"`
	Art              string `json:"art"`
	Duration         int64  `json:"duration"`
	ViewOffset       int64  `json:"viewOffset"`

	Session `json:"Session"`
	Player  `json:"Player"`
}

type Session struct {
	ID        string `json:"id"`
	Bandwidth int    `json:"bandwidth"`
	Location  string `json:"location"`
}

type Player struct {
	Device            string `json:"device"`
	MachineIdentifier string `json:"machineIdentifier"`
	Platform          string `json:"platform"`
	Product           string `json:"product"`
	Profile           string `json:"profile"`
	State             string `json:"state"`
	PlayerTitle       string `json:"title"`
	Address           string `json:"address"`
	Local             bool   `json:"local"`
	Relayed           bool   `json:"relayed"`
	Secure            bool   `json:"secure"`
}

// Player states reported by the Plex server.
const (
	StatePlaying   = "playing"
	StatePaused    = "paused"
	StateBuffering = "buffering"
	StateStopped   = "stopped"
)
