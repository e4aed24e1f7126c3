package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/JackJPowell/uc-intg-plex/config"
	"github.com/JackJPowell/uc-intg-plex/plex"
	plexapi "github.com/JackJPowell/uc-intg-plex/plex/api"
	"github.com/JackJPowell/uc-intg-plex/ucapi"
)

const setupTimeout = 15 * time.Second

// The sentinel dropdown entry offered when no playable client was found.
const noSessionChoice = "no-session"

type setupStep int

const (
	setupInit setupStep = iota
	setupConfigMode
	setupConnection
	setupPinWait
	setupPlayerSelect
)

// setupFlow tracks the multi-page setup conversation with the remote.
type setupFlow struct {
	step   setupStep
	draft  config.Device
	server *plex.Server
	pin    *plex.PinRequest
}

// HandleSetup advances the setup flow. Pairing requires the target client to
// be actively playing so it shows up in the session listing.
func (d *Driver) HandleSetup(req ucapi.SetupRequest) ucapi.SetupAction {
	d.setupMu.Lock()
	defer d.setupMu.Unlock()

	if req.Aborted {
		d.Logger.Info("Setup aborted by remote")
		d.flow = setupFlow{}
		if len(d.devices.All()) == 0 {
			d.setState(StateUnconfigured)
		} else {
			d.setState(StateConfigured)
		}
		return nil
	}

	if req.Initial {
		d.setState(StatePairing)
		d.flow = setupFlow{}

		devices := d.devices.All()
		if req.Reconfigure && len(devices) > 0 {
			d.flow.step = setupConfigMode
			return configurationModePage(devices)
		}
		d.flow.step = setupConnection
		return connectionPage()
	}

	values := req.Values()
	switch d.flow.step {
	case setupConfigMode:
		return d.handleConfigMode(values)
	case setupConnection:
		return d.handleConnection(values)
	case setupPinWait:
		return d.handlePin()
	case setupPlayerSelect:
		return d.handlePlayerSelection(values)
	}

	d.Logger.Errorf("Unexpected setup response in step %d", d.flow.step)
	return ucapi.SetupError{Code: ucapi.SetupErrorOther}
}

func (d *Driver) handleConfigMode(values map[string]string) ucapi.SetupAction {
	switch values["action"] {
	case "add":
		d.flow.step = setupConnection
		return connectionPage()
	case "remove":
		choice := values["choice"]
		if !d.devices.Remove(choice) {
			d.Logger.Warnf("Could not remove device from configuration: %s", choice)
			return ucapi.SetupError{Code: ucapi.SetupErrorOther}
		}
		if err := d.devices.Store(); err != nil {
			d.Logger.WithError(err).Error("Could not store device configuration")
		}
		d.finishSetup()
		return ucapi.SetupComplete{}
	case "reset":
		d.devices.Clear()
		d.finishSetup()
		return ucapi.SetupComplete{}
	}

	d.Logger.Errorf("Invalid configuration action: %s", values["action"])
	return ucapi.SetupError{Code: ucapi.SetupErrorOther}
}

func (d *Driver) handleConnection(values map[string]string) ucapi.SetupAction {
	d.flow.draft = config.Device{
		Address:      values["address"],
		Port:         values["port"],
		Token:        values["token"],
		TVArtwork:    values["tv_selection"],
		MovieArtwork: values["movie_selection"],
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	if d.flow.draft.Token == "" {
		pin, err := plex.GetPinRequest(ctx)
		if err != nil {
			d.Logger.WithError(err).Error("Could not request a plex.tv pin")
			return ucapi.SetupError{Code: ucapi.SetupErrorConnectionRefused}
		}
		d.flow.pin = pin
		d.flow.step = setupPinWait
		return pinPage(pin.Code)
	}

	return d.connectAndListPlayers(ctx)
}

// handlePin checks whether the previously issued plex.tv pin has been linked.
// An unlinked pin re-prompts instead of failing.
func (d *Driver) handlePin() ucapi.SetupAction {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	token, err := plex.GetTokenFromPinRequest(ctx, d.flow.pin)
	if err == plex.ErrPinNotAuthorised {
		return pinPage(d.flow.pin.Code)
	}
	if err != nil {
		d.Logger.WithError(err).Error("Pin authorization failed")
		return ucapi.SetupError{Code: ucapi.SetupErrorAuthorization}
	}

	d.flow.draft.Token = token
	return d.connectAndListPlayers(ctx)
}

// connectAndListPlayers verifies the server connection and moves the flow to
// the player selection page.
func (d *Driver) connectAndListPlayers(ctx context.Context) ucapi.SetupAction {
	if d.flow.draft.Address == "" {
		servers, err := plex.DiscoverServers(ctx, d.flow.draft.Token)
		if err != nil || len(servers) == 0 {
			d.Logger.WithError(err).Error("No Plex server found for account")
			return ucapi.SetupError{Code: ucapi.SetupErrorNotFound}
		}
		server := servers[0]
		d.flow.server = server
		d.flow.draft.Address = server.BaseURL
		d.flow.draft.Port = ""
		d.flow.draft.Token = server.Token()
		d.flow.draft.ServerName = server.Name
	} else {
		server, err := plex.NewServer(ctx, d.flow.draft.ServerConfig())
		if err != nil {
			d.Logger.WithError(err).Errorf("Cannot connect to %s", d.flow.draft.BaseURL())
			return ucapi.SetupError{Code: ucapi.SetupErrorConnectionRefused}
		}
		d.flow.server = server
		d.flow.draft.ServerName = server.Name
	}

	players, err := d.playablePlayers(ctx)
	if err != nil {
		d.Logger.WithError(err).Error("Could not list sessions during setup")
		return ucapi.SetupError{Code: ucapi.SetupErrorConnectionRefused}
	}

	d.flow.step = setupPlayerSelect
	return playerSelectionPage(players)
}

// playablePlayers lists the players eligible for pairing: local, currently
// playing and not yet configured.
func (d *Driver) playablePlayers(ctx context.Context) ([]plexapi.Player, error) {
	sessions, err := d.flow.server.GetSessionStatus(ctx)
	if err != nil {
		return nil, err
	}

	var players []plexapi.Player
	for _, metadata := range sessions.Metadata {
		player := metadata.Player
		if player.State != plexapi.StatePlaying || !player.Local {
			continue
		}
		if d.devices.Contains(player.MachineIdentifier) {
			continue
		}
		players = append(players, player)
	}
	return players, nil
}

func (d *Driver) handlePlayerSelection(values map[string]string) ucapi.SetupAction {
	choice := values["player"]
	if choice == "" || choice == noSessionChoice {
		d.Logger.Info("Setup failed: no actively playing client selected")
		return ucapi.SetupError{Code: ucapi.SetupErrorNotFound}
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	name := "Plex"
	sessions, err := d.flow.server.GetSessionStatus(ctx)
	if err == nil {
		for _, metadata := range sessions.Metadata {
			if metadata.Player.MachineIdentifier == choice {
				name = playerLabel(metadata.Player)
				break
			}
		}
	}

	device := d.flow.draft
	device.ID = choice
	device.Name = name
	if device.TVArtwork == "" {
		device.TVArtwork = config.TVArtworkSeries
	}
	if device.MovieArtwork == "" {
		device.MovieArtwork = config.MovieArtworkPoster
	}

	d.devices.Add(device)
	if err := d.devices.Store(); err != nil {
		d.Logger.WithError(err).Error("Could not store device configuration")
	}

	d.flow = setupFlow{}
	d.finishSetup()
	d.Logger.Infof("Setup successfully completed for %s", device.ID)
	return ucapi.SetupComplete{}
}

func (d *Driver) finishSetup() {
	if len(d.devices.All()) == 0 {
		d.setState(StateUnconfigured)
	} else {
		d.setState(StateConfigured)
	}
}

func playerLabel(p plexapi.Player) string {
	if p.Product != "" {
		return fmt.Sprintf("%s (%s)", p.PlayerTitle, p.Product)
	}
	return p.PlayerTitle
}

func connectionPage() ucapi.RequestUserInput {
	return ucapi.RequestUserInput{
		Title: ucapi.Text("Connection Details"),
		Settings: []ucapi.Setting{
			{
				ID:    "info",
				Label: ucapi.Text("Plex Server"),
				Field: ucapi.Field{Label: &ucapi.LabelField{
					Value: ucapi.Text("Enter your Plex server address and auth token. Leave the token empty to link via plex.tv, leave the address empty to discover the server from your account."),
				}},
			},
			{
				ID:    "address",
				Label: ucapi.LocalizedText{"en": "Host Address", "de": "IP-Adresse", "fr": "Adresse IP"},
				Field: ucapi.Field{Text: &ucapi.TextField{}},
			},
			{
				ID:    "port",
				Label: ucapi.LocalizedText{"en": "HTTP port", "fr": "Port HTTP"},
				Field: ucapi.Field{Text: &ucapi.TextField{Value: "32400"}},
			},
			{
				ID:    "token",
				Label: ucapi.Text("Auth Token"),
				Field: ucapi.Field{Text: &ucapi.TextField{}},
			},
			{
				ID:    "tv_selection",
				Label: ucapi.Text("TV Show Artwork"),
				Field: ucapi.Field{Dropdown: &ucapi.DropdownField{
					Value: config.TVArtworkSeries,
					Items: []ucapi.DropdownItem{
						{ID: config.TVArtworkSeries, Label: ucapi.Text("Series poster")},
						{ID: config.TVArtworkSeason, Label: ucapi.Text("Season poster")},
						{ID: config.TVArtworkEpisode, Label: ucapi.Text("Episode thumbnail")},
						{ID: config.TVArtworkArt, Label: ucapi.Text("Background art")},
					},
				}},
			},
			{
				ID:    "movie_selection",
				Label: ucapi.Text("Movie Artwork"),
				Field: ucapi.Field{Dropdown: &ucapi.DropdownField{
					Value: config.MovieArtworkPoster,
					Items: []ucapi.DropdownItem{
						{ID: config.MovieArtworkPoster, Label: ucapi.Text("Poster")},
						{ID: config.MovieArtworkArt, Label: ucapi.Text("Background art")},
					},
				}},
			},
		},
	}
}

func configurationModePage(devices []config.Device) ucapi.RequestUserInput {
	items := make([]ucapi.DropdownItem, 0, len(devices))
	for _, device := range devices {
		items = append(items, ucapi.DropdownItem{ID: device.ID, Label: ucapi.Text(device.Name)})
	}

	actions := []ucapi.DropdownItem{
		{ID: "add", Label: ucapi.Text("Add a new client")},
		{ID: "remove", Label: ucapi.Text("Delete selected client")},
		{ID: "reset", Label: ucapi.LocalizedText{
			"en": "Reset configuration and reconfigure",
			"de": "Konfiguration zurücksetzen und neu konfigurieren",
			"fr": "Réinitialiser la configuration et reconfigurer",
		}},
	}

	return ucapi.RequestUserInput{
		Title: ucapi.LocalizedText{"en": "Configuration mode", "de": "Konfigurations-Modus"},
		Settings: []ucapi.Setting{
			{
				ID:    "choice",
				Label: ucapi.LocalizedText{"en": "Configured devices", "de": "Konfigurierte Geräte", "fr": "Appareils configurés"},
				Field: ucapi.Field{Dropdown: &ucapi.DropdownField{Value: items[0].ID, Items: items}},
			},
			{
				ID:    "action",
				Label: ucapi.LocalizedText{"en": "Action", "de": "Aktion", "fr": "Action"},
				Field: ucapi.Field{Dropdown: &ucapi.DropdownField{Value: actions[0].ID, Items: actions}},
			},
		},
	}
}

func pinPage(code string) ucapi.RequestUserInput {
	return ucapi.RequestUserInput{
		Title: ucapi.Text("Link with plex.tv"),
		Settings: []ucapi.Setting{
			{
				ID:    "pin",
				Label: ucapi.Text("Link Code"),
				Field: ucapi.Field{Label: &ucapi.LabelField{
					Value: ucapi.Text(fmt.Sprintf("Open https://plex.tv/link and enter the code %s, then continue.", code)),
				}},
			},
		},
	}
}

func playerSelectionPage(players []plexapi.Player) ucapi.RequestUserInput {
	items := make([]ucapi.DropdownItem, 0, len(players))
	for _, player := range players {
		items = append(items, ucapi.DropdownItem{
			ID:    player.MachineIdentifier,
			Label: ucapi.Text(playerLabel(player)),
		})
	}
	if len(items) == 0 {
		items = append(items, ucapi.DropdownItem{ID: noSessionChoice, Label: ucapi.Text("No Active Sessions")})
	}

	return ucapi.RequestUserInput{
		Title: ucapi.Text("Unregistered Players"),
		Settings: []ucapi.Setting{
			{
				ID:    "info",
				Label: ucapi.Text("Client Selection"),
				Field: ucapi.Field{Label: &ucapi.LabelField{
					Value: ucapi.Text("Please select the Plex client you would like to control. If it's not in the list, make sure the machine is on and the client is playing."),
				}},
			},
			{
				ID:    "player",
				Label: ucapi.Text("Unregistered Players"),
				Field: ucapi.Field{Dropdown: &ucapi.DropdownField{Value: items[0].ID, Items: items}},
			},
		},
	}
}
