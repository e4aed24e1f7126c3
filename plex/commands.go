package plex

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JackJPowell/uc-intg-plex/plex/api"
)

// ErrNotImplemented is returned for command identifiers the translator does
// not know.
var ErrNotImplemented = errors.New("command not implemented")

type CallKind string

const (
	CallPlayback   CallKind = "playback"
	CallNavigation CallKind = "navigation"
)

// Call is a single player-control request: the controller endpoint kind, the
// action on it and optional query parameters.
type Call struct {
	Kind   CallKind
	Action string
	Params url.Values
}

func playback(action string) *Call {
	return &Call{Kind: CallPlayback, Action: action}
}

func navigation(action string) *Call {
	return &Call{Kind: CallNavigation, Action: action}
}

// Translate maps a remote-side command identifier to a player-control call.
// playState is the last known playback state of the target client, needed to
// resolve the play/pause toggle. A nil call with nil error means the command
// is accepted without a player call.
func Translate(cmdID string, params map[string]any, playState string) (*Call, error) {
	switch cmdID {
	case "play_pause", "cursor_enter":
		if playState == api.StatePlaying {
			return playback("pause"), nil
		}
		return playback("play"), nil
	case "play":
		return playback("play"), nil
	case "pause":
		return playback("pause"), nil
	case "stop":
		return playback("stop"), nil
	case "next":
		return playback("skipNext"), nil
	case "previous":
		return playback("skipPrevious"), nil
	case "fast_forward":
		return playback("stepForward"), nil
	case "rewind":
		return playback("stepBack"), nil
	case "seek":
		offset := paramFloat(params, "media_position")
		call := playback("seekTo")
		call.Params = url.Values{"offset": []string{strconv.FormatInt(int64(offset * 1000), 10)}}
		return call, nil
	case "volume":
		call := playback("setParameters")
		call.Params = url.Values{"volume": []string{strconv.Itoa(paramInt(params, "volume"))}}
		return call, nil
	case "mute", "mute_toggle":
		call := playback("setParameters")
		call.Params = url.Values{"volume": []string{"0"}}
		return call, nil
	case "cursor_up":
		return navigation("moveUp"), nil
	case "cursor_down":
		return navigation("moveDown"), nil
	case "cursor_left":
		return navigation("moveLeft"), nil
	case "cursor_right":
		return navigation("moveRight"), nil
	case "home":
		return navigation("home"), nil
	case "back", "menu":
		return navigation("back"), nil
	case "context_menu":
		return navigation("contextMenu"), nil
	case "channel_up", "channel_down",
		"function_red", "function_green", "function_yellow", "function_blue":
		// accepted but have no player equivalent
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, cmdID)
}

func paramFloat(params map[string]any, key string) float64 {
	if params == nil {
		return 0
	}
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func paramInt(params map[string]any, key string) int {
	return int(paramFloat(params, key))
}
