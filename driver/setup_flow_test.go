package driver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/JackJPowell/uc-intg-plex/config"
	"github.com/JackJPowell/uc-intg-plex/plex"
	"github.com/JackJPowell/uc-intg-plex/ucapi"
)

const setupSessionsJSON = `{
	"MediaContainer": {
		"size": 4,
		"Metadata": [
			{
				"type": "movie",
				"title": "Heat",
				"Player": {"machineIdentifier": "eligible", "title": "Living Room", "product": "Plex for Apple TV", "state": "playing", "local": true}
			},
			{
				"type": "movie",
				"title": "Ronin",
				"Player": {"machineIdentifier": "remote", "title": "Phone", "state": "playing", "local": false}
			},
			{
				"type": "movie",
				"title": "Thief",
				"Player": {"machineIdentifier": "paused", "title": "Bedroom", "state": "paused", "local": true}
			},
			{
				"type": "movie",
				"title": "Collateral",
				"Player": {"machineIdentifier": "paired", "title": "Kitchen", "state": "playing", "local": true}
			}
		]
	}
}`

func newSetupPMS(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/media/providers":
			w.Write([]byte(`{"MediaContainer": {"machineIdentifier": "srv", "friendlyName": "Test Server"}}`))
		case "/status/sessions":
			w.Write([]byte(setupSessionsJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	entry := log.NewEntry(logger)

	cfg := &config.Config{ConfigDir: t.TempDir(), PollInterval: 10}
	integration := ucapi.New(ucapi.DriverMetadata{DriverID: "uc-intg-plex", Name: ucapi.Text("Plex")}, 0, entry)
	return New(cfg, integration, entry)
}

func TestSetupInitialShowsConnectionPage(t *testing.T) {
	d := newTestDriver(t)

	action := d.HandleSetup(ucapi.SetupRequest{Initial: true})

	page, ok := action.(ucapi.RequestUserInput)
	if !ok {
		t.Fatalf("expected a user input page, got %T", action)
	}
	if d.State() != StatePairing {
		t.Errorf("state = %s, want pairing", d.State())
	}

	ids := map[string]bool{}
	for _, setting := range page.Settings {
		ids[setting.ID] = true
	}
	for _, want := range []string{"address", "port", "token", "tv_selection", "movie_selection"} {
		if !ids[want] {
			t.Errorf("connection page is missing the %s field", want)
		}
	}
}

func TestSetupReconfigureShowsConfigurationMode(t *testing.T) {
	d := newTestDriver(t)
	d.Devices().Add(config.Device{ID: "player-1", Name: "Living Room"})

	action := d.HandleSetup(ucapi.SetupRequest{Initial: true, Reconfigure: true})

	page, ok := action.(ucapi.RequestUserInput)
	if !ok {
		t.Fatalf("expected a user input page, got %T", action)
	}
	if len(page.Settings) != 2 {
		t.Fatalf("expected device and action dropdowns, got %d settings", len(page.Settings))
	}
	dropdown := page.Settings[0].Field.Dropdown
	if dropdown == nil || len(dropdown.Items) != 1 || dropdown.Items[0].ID != "player-1" {
		t.Errorf("device dropdown does not list the paired device: %+v", dropdown)
	}
}

func TestSetupAbortResetsFlow(t *testing.T) {
	d := newTestDriver(t)
	d.HandleSetup(ucapi.SetupRequest{Initial: true})

	if action := d.HandleSetup(ucapi.SetupRequest{Aborted: true}); action != nil {
		t.Errorf("abort should yield no action, got %T", action)
	}
	if d.State() != StateUnconfigured {
		t.Errorf("state = %s, want unconfigured", d.State())
	}
}

func TestPlayablePlayersFilter(t *testing.T) {
	ts := newSetupPMS(t)
	d := newTestDriver(t)
	d.Devices().Add(config.Device{ID: "paired", Name: "Kitchen"})

	server, err := plex.NewServer(context.Background(), config.PlexServerConfig{BaseURL: ts.URL, Token: "t0ken"})
	if err != nil {
		t.Fatalf("NewServer: %s", err)
	}
	d.flow.server = server

	players, err := d.playablePlayers(context.Background())
	if err != nil {
		t.Fatalf("playablePlayers: %s", err)
	}

	// only the actively playing, local, not yet paired client qualifies
	if len(players) != 1 {
		t.Fatalf("expected exactly one eligible player, got %d", len(players))
	}
	if players[0].MachineIdentifier != "eligible" {
		t.Errorf("eligible player = %s, want eligible", players[0].MachineIdentifier)
	}
}

func TestPlayerSelectionPairsDevice(t *testing.T) {
	ts := newSetupPMS(t)
	d := newTestDriver(t)

	server, err := plex.NewServer(context.Background(), config.PlexServerConfig{BaseURL: ts.URL, Token: "t0ken"})
	if err != nil {
		t.Fatalf("NewServer: %s", err)
	}
	d.flow.server = server
	d.flow.step = setupPlayerSelect
	d.flow.draft = config.Device{Address: ts.URL, Token: "t0ken", ServerName: "Test Server"}

	action := d.handlePlayerSelection(map[string]string{"player": "eligible"})

	if _, ok := action.(ucapi.SetupComplete); !ok {
		t.Fatalf("expected setup completion, got %T", action)
	}
	device := d.Devices().Get("eligible")
	if device == nil {
		t.Fatal("expected the selected player to be paired")
	}
	if device.Name != "Living Room (Plex for Apple TV)" {
		t.Errorf("Name = %s, want Living Room (Plex for Apple TV)", device.Name)
	}
	if device.TVArtwork != config.TVArtworkSeries || device.MovieArtwork != config.MovieArtworkPoster {
		t.Errorf("artwork defaults not applied: %+v", device)
	}
	if d.State() != StateConfigured {
		t.Errorf("state = %s, want configured", d.State())
	}
}

func TestPlayerSelectionNoSession(t *testing.T) {
	d := newTestDriver(t)
	d.flow.step = setupPlayerSelect

	action := d.handlePlayerSelection(map[string]string{"player": noSessionChoice})

	setupErr, ok := action.(ucapi.SetupError)
	if !ok {
		t.Fatalf("expected a setup error, got %T", action)
	}
	if setupErr.Code != ucapi.SetupErrorNotFound {
		t.Errorf("error code = %s, want NOT_FOUND", setupErr.Code)
	}
}

func TestSetupRemoveDevice(t *testing.T) {
	d := newTestDriver(t)
	d.Devices().Add(config.Device{ID: "player-1", Name: "Living Room"})
	d.Devices().Add(config.Device{ID: "player-2", Name: "Bedroom"})
	d.flow.step = setupConfigMode

	action := d.handleConfigMode(map[string]string{"action": "remove", "choice": "player-1"})

	if _, ok := action.(ucapi.SetupComplete); !ok {
		t.Fatalf("expected setup completion, got %T", action)
	}
	if d.Devices().Contains("player-1") {
		t.Error("player-1 should have been removed")
	}
	if !d.Devices().Contains("player-2") {
		t.Error("player-2 should still be paired")
	}
	if d.State() != StateConfigured {
		t.Errorf("state = %s, want configured", d.State())
	}
}

func TestSetupReset(t *testing.T) {
	d := newTestDriver(t)
	d.Devices().Add(config.Device{ID: "player-1", Name: "Living Room"})
	d.flow.step = setupConfigMode

	action := d.handleConfigMode(map[string]string{"action": "reset"})

	if _, ok := action.(ucapi.SetupComplete); !ok {
		t.Fatalf("expected setup completion, got %T", action)
	}
	if len(d.Devices().All()) != 0 {
		t.Error("expected all devices to be removed")
	}
	if d.State() != StateUnconfigured {
		t.Errorf("state = %s, want unconfigured", d.State())
	}
}

func TestPlayerSelectionPageFallback(t *testing.T) {
	page := playerSelectionPage(nil)

	var dropdown *ucapi.DropdownField
	for _, setting := range page.Settings {
		if setting.ID == "player" {
			dropdown = setting.Field.Dropdown
		}
	}
	if dropdown == nil {
		t.Fatal("player selection page has no player dropdown")
	}
	if len(dropdown.Items) != 1 || dropdown.Items[0].ID != noSessionChoice {
		t.Errorf("expected the no-session placeholder, got %+v", dropdown.Items)
	}
}
