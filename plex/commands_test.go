package plex

import (
	"errors"
	"testing"

	"github.com/JackJPowell/uc-intg-plex/plex/api"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		cmdID     string
		params    map[string]any
		playState string
		want      *Call
	}{
		{cmdID: "play_pause", playState: api.StatePlaying, want: &Call{Kind: CallPlayback, Action: "pause"}},
		{cmdID: "play_pause", playState: api.StatePaused, want: &Call{Kind: CallPlayback, Action: "play"}},
		{cmdID: "play_pause", playState: "", want: &Call{Kind: CallPlayback, Action: "play"}},
		{cmdID: "cursor_enter", playState: api.StatePlaying, want: &Call{Kind: CallPlayback, Action: "pause"}},
		{cmdID: "play", want: &Call{Kind: CallPlayback, Action: "play"}},
		{cmdID: "pause", want: &Call{Kind: CallPlayback, Action: "pause"}},
		{cmdID: "stop", want: &Call{Kind: CallPlayback, Action: "stop"}},
		{cmdID: "next", want: &Call{Kind: CallPlayback, Action: "skipNext"}},
		{cmdID: "previous", want: &Call{Kind: CallPlayback, Action: "skipPrevious"}},
		{cmdID: "fast_forward", want: &Call{Kind: CallPlayback, Action: "stepForward"}},
		{cmdID: "rewind", want: &Call{Kind: CallPlayback, Action: "stepBack"}},
		{cmdID: "cursor_up", want: &Call{Kind: CallNavigation, Action: "moveUp"}},
		{cmdID: "cursor_down", want: &Call{Kind: CallNavigation, Action: "moveDown"}},
		{cmdID: "cursor_left", want: &Call{Kind: CallNavigation, Action: "moveLeft"}},
		{cmdID: "cursor_right", want: &Call{Kind: CallNavigation, Action: "moveRight"}},
		{cmdID: "home", want: &Call{Kind: CallNavigation, Action: "home"}},
		{cmdID: "back", want: &Call{Kind: CallNavigation, Action: "back"}},
		{cmdID: "menu", want: &Call{Kind: CallNavigation, Action: "back"}},
		{cmdID: "context_menu", want: &Call{Kind: CallNavigation, Action: "contextMenu"}},
		{cmdID: "channel_up", want: nil},
		{cmdID: "function_red", want: nil},
	}

	for _, test := range tests {
		t.Run(test.cmdID+"/"+test.playState, func(t *testing.T) {
			call, err := Translate(test.cmdID, test.params, test.playState)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if test.want == nil {
				if call != nil {
					t.Fatalf("expected no call, got %+v", call)
				}
				return
			}
			if call == nil {
				t.Fatalf("expected call %+v, got nil", test.want)
			}
			if call.Kind != test.want.Kind || call.Action != test.want.Action {
				t.Errorf("got %s/%s, want %s/%s", call.Kind, call.Action, test.want.Kind, test.want.Action)
			}
		})
	}
}

func TestTranslateSeek(t *testing.T) {
	call, err := Translate("seek", map[string]any{"media_position": float64(125)}, api.StatePlaying)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if call.Kind != CallPlayback || call.Action != "seekTo" {
		t.Fatalf("got %s/%s, want playback/seekTo", call.Kind, call.Action)
	}
	if got := call.Params.Get("offset"); got != "125000" {
		t.Errorf("seek offset = %s, want 125000 (milliseconds)", got)
	}
}

func TestTranslateVolume(t *testing.T) {
	call, err := Translate("volume", map[string]any{"volume": float64(40)}, "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := call.Params.Get("volume"); got != "40" {
		t.Errorf("volume = %s, want 40", got)
	}

	call, err = Translate("mute", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := call.Params.Get("volume"); got != "0" {
		t.Errorf("mute volume = %s, want 0", got)
	}
}

func TestTranslateUnknownCommand(t *testing.T) {
	_, err := Translate("teleport", nil, "")
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}
