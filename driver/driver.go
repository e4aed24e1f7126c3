package driver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/JackJPowell/uc-intg-plex/collector"
	"github.com/JackJPowell/uc-intg-plex/config"
	"github.com/JackJPowell/uc-intg-plex/plex"
	plexapi "github.com/JackJPowell/uc-intg-plex/plex/api"
	"github.com/JackJPowell/uc-intg-plex/ucapi"
)

// State is the lifecycle state of the integration driver.
type State string

const (
	StateUnconfigured State = "unconfigured"
	StatePairing      State = "pairing"
	StateConfigured   State = "configured"
	StateRunning      State = "running"
)

const commandTimeout = 10 * time.Second

// Driver wires the Plex pollers and command translation to the integration
// API: it owns the paired clients, their entities and the setup flow.
type Driver struct {
	Logger *log.Entry

	cfg     *config.Config
	api     *ucapi.Integration
	devices *config.Devices

	mu      sync.Mutex
	ctx     context.Context
	state   State
	clients map[string]*client

	setupMu sync.Mutex
	flow    setupFlow

	pollCycles   atomic.Uint64
	pollFailures atomic.Uint64
	cmdMu        sync.Mutex
	commands     map[string]uint64
}

// client is one paired Plex player: its configuration, the lazily
// established server connection and the last polled session.
type client struct {
	device config.Device
	logger *log.Entry

	mu         sync.Mutex
	server     *plex.Server
	session    *plexapi.SessionMetadata
	subscribed bool
	cancel     context.CancelFunc
}

func New(cfg *config.Config, integration *ucapi.Integration, logger *log.Entry) *Driver {
	d := &Driver{
		Logger:   logger,
		cfg:      cfg,
		api:      integration,
		ctx:      context.Background(),
		state:    StateUnconfigured,
		clients:  map[string]*client{},
		commands: map[string]uint64{},
	}
	d.devices = config.NewDevices(cfg.ConfigDir, logger.WithField("component", "config"), d.onDeviceAdded, d.onDeviceRemoved)

	integration.CommandHandler = d.HandleCommand
	integration.SetupHandler = d.HandleSetup
	integration.SubscribeHandler = d.HandleSubscribe
	integration.UnsubscribeHandler = d.HandleUnsubscribe
	integration.ConnectHandler = d.handleRemoteConnect
	integration.EnterStandbyHandler = d.handleEnterStandby
	integration.ExitStandbyHandler = d.handleExitStandby

	return d
}

// Devices exposes the paired-device store.
func (d *Driver) Devices() *config.Devices {
	return d.devices
}

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Run registers entities for all previously paired devices. Polling starts
// when the remote subscribes to an entity.
func (d *Driver) Run(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	devices := d.devices.All()
	for _, device := range devices {
		d.addClient(device)
	}
	if len(devices) > 0 {
		d.setState(StateConfigured)
	}
}

func (d *Driver) addClient(device config.Device) {
	c := &client{
		device: device,
		logger: d.Logger.WithField("device", device.ID),
	}

	d.mu.Lock()
	if old, ok := d.clients[device.ID]; ok {
		stopClient(old)
	}
	d.clients[device.ID] = c
	d.mu.Unlock()

	d.api.AddEntity(mediaPlayerEntity(device))
	d.Logger.Infof("Registered media player entity for %s (%s)", device.Name, device.ID)
}

func (d *Driver) client(id string) *client {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clients[id]
}

func (d *Driver) onDeviceAdded(device config.Device) {
	d.addClient(device)
	d.setState(StateConfigured)
}

func (d *Driver) onDeviceRemoved(device *config.Device) {
	if device == nil {
		d.mu.Lock()
		for _, c := range d.clients {
			stopClient(c)
		}
		d.clients = map[string]*client{}
		d.mu.Unlock()

		d.api.ClearEntities()
		d.setState(StateUnconfigured)
		d.Logger.Info("Configuration cleared, all entities removed")
		return
	}

	d.mu.Lock()
	if c, ok := d.clients[device.ID]; ok {
		stopClient(c)
		delete(d.clients, device.ID)
	}
	remaining := len(d.clients)
	d.mu.Unlock()

	d.api.RemoveEntity(device.ID)
	if remaining == 0 {
		d.setState(StateUnconfigured)
	}
	d.Logger.Infof("Removed device %s", device.ID)
}

// HandleSubscribe starts the poll loop for each subscribed entity.
func (d *Driver) HandleSubscribe(entityIDs []string) {
	for _, id := range entityIDs {
		c := d.client(id)
		if c == nil {
			d.Logger.Warnf("Subscribe for unknown entity %s", id)
			continue
		}
		c.mu.Lock()
		c.subscribed = true
		c.mu.Unlock()
		d.startPolling(c)
	}
	d.setState(StateRunning)
	d.api.SetDeviceState(ucapi.DeviceConnected)
}

// HandleUnsubscribe stops polling for the given entities.
func (d *Driver) HandleUnsubscribe(entityIDs []string) {
	for _, id := range entityIDs {
		if c := d.client(id); c != nil {
			c.mu.Lock()
			c.subscribed = false
			c.mu.Unlock()
			stopClient(c)
		}
	}
}

func (d *Driver) handleRemoteConnect() {
	d.api.SetDeviceState(ucapi.DeviceConnected)
}

// handleEnterStandby pauses all poll loops; subscriptions are kept so
// polling resumes on standby exit.
func (d *Driver) handleEnterStandby() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.clients {
		stopClient(c)
	}
}

func (d *Driver) handleExitStandby() {
	d.mu.Lock()
	clients := make([]*client, 0, len(d.clients))
	for _, c := range d.clients {
		clients = append(clients, c)
	}
	d.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		subscribed := c.subscribed
		c.mu.Unlock()
		if subscribed {
			d.startPolling(c)
		}
	}
}

func (d *Driver) startPolling(c *client) {
	d.mu.Lock()
	baseCtx := d.ctx
	d.mu.Unlock()

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(baseCtx)
	c.cancel = cancel
	c.mu.Unlock()

	poller := plex.NewPoller(c, c.device.ID, time.Duration(d.cfg.PollInterval)*time.Second, c.logger)
	poller.OnUpdate = func(session *plexapi.SessionMetadata) {
		d.onSessionUpdate(c, session)
	}
	poller.OnResult = func(err error) {
		d.pollCycles.Add(1)
		if err != nil {
			d.pollFailures.Add(1)
		}
	}

	go poller.Run(ctx)
	c.logger.Debug("Polling started")
}

func stopClient(c *client) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// onSessionUpdate maps the polled session to entity attributes and pushes
// them. The cached session is overwritten without further coordination,
// the latest poll wins.
func (d *Driver) onSessionUpdate(c *client, session *plexapi.SessionMetadata) {
	c.mu.Lock()
	c.session = session
	server := c.server
	c.mu.Unlock()

	var attrs map[string]any
	if session == nil {
		attrs = MapNoSession()
	} else {
		resourceURL := func(string) string { return "" }
		if server != nil {
			resourceURL = server.ResourceURL
		}
		art := ArtworkSelection{TV: c.device.TVArtwork, Movie: c.device.MovieArtwork}
		attrs = MapSession(session, art, resourceURL)
		attrs[ucapi.AttrMediaPositionUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	}

	d.api.UpdateAttributes(c.device.ID, attrs)
}

// HandleCommand translates and issues a single entity command. Failures of
// the Plex call are reported to the caller, there is no retry.
func (d *Driver) HandleCommand(entityID string, cmdID string, params map[string]any) int {
	d.countCommand(cmdID)

	c := d.client(entityID)
	if c == nil {
		d.Logger.Warnf("Command %s for unknown entity %s", cmdID, entityID)
		return ucapi.StatusNotFound
	}

	c.mu.Lock()
	playState := ""
	if c.session != nil {
		playState = c.session.Player.State
	}
	c.mu.Unlock()

	call, err := plex.Translate(cmdID, params, playState)
	if err != nil {
		if errors.Is(err, plex.ErrNotImplemented) {
			return ucapi.StatusNotImplemented
		}
		return ucapi.StatusBadRequest
	}
	if call == nil {
		return ucapi.StatusOK
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	server, err := c.ensureServer(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Plex server unreachable, command dropped")
		return ucapi.StatusServiceUnavailable
	}
	if err := server.SendCommand(ctx, c.device.ID, call); err != nil {
		c.logger.WithError(err).Warnf("Command %s failed", cmdID)
		return ucapi.StatusServiceUnavailable
	}

	d.reflectCommand(c.device.ID, cmdID, params)
	return ucapi.StatusOK
}

// reflectCommand pushes attribute changes implied by a delivered command.
// Plex sessions do not report client volume, so mute and volume state are
// tracked from the commands themselves.
func (d *Driver) reflectCommand(entityID string, cmdID string, params map[string]any) {
	switch cmdID {
	case "mute", "mute_toggle":
		d.api.UpdateAttributes(entityID, map[string]any{ucapi.AttrMuted: true})
	case "volume":
		attrs := map[string]any{ucapi.AttrMuted: false}
		if v, ok := params["volume"].(float64); ok {
			attrs[ucapi.AttrVolume] = int(v)
		}
		d.api.UpdateAttributes(entityID, attrs)
	}
}

func (d *Driver) countCommand(cmdID string) {
	d.cmdMu.Lock()
	d.commands[cmdID]++
	d.cmdMu.Unlock()
}

// Stats implements collector.StatsSource.
func (d *Driver) Stats() collector.Stats {
	d.mu.Lock()
	state := d.state
	active := 0
	for _, c := range d.clients {
		c.mu.Lock()
		if c.session != nil {
			active++
		}
		c.mu.Unlock()
	}
	d.mu.Unlock()

	d.cmdMu.Lock()
	commands := make(map[string]uint64, len(d.commands))
	for k, v := range d.commands {
		commands[k] = v
	}
	d.cmdMu.Unlock()

	return collector.Stats{
		State:          string(state),
		ActiveSessions: active,
		PollCycles:     d.pollCycles.Load(),
		PollFailures:   d.pollFailures.Load(),
		Commands:       commands,
	}
}

// ActiveSession implements plex.SessionSource with lazy server connection:
// the first successful poll establishes the connection.
func (c *client) ActiveSession(ctx context.Context, clientID string) (*plexapi.SessionMetadata, error) {
	server, err := c.ensureServer(ctx)
	if err != nil {
		return nil, err
	}
	return server.ActiveSession(ctx, clientID)
}

func (c *client) ensureServer(ctx context.Context) (*plex.Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server != nil {
		return c.server, nil
	}
	server, err := plex.NewServer(ctx, c.device.ServerConfig())
	if err != nil {
		return nil, err
	}
	c.server = server
	return server, nil
}

// mediaPlayerEntity builds the media-player entity for a paired device with
// the feature set the driver supports.
func mediaPlayerEntity(device config.Device) *ucapi.Entity {
	return &ucapi.Entity{
		ID:   device.ID,
		Type: ucapi.EntityTypeMediaPlayer,
		Name: ucapi.Text(device.Name),
		Features: []string{
			ucapi.FeatureVolume,
			ucapi.FeatureMute,
			ucapi.FeaturePlayPause,
			ucapi.FeatureStop,
			ucapi.FeatureNext,
			ucapi.FeaturePrevious,
			ucapi.FeatureFastForward,
			ucapi.FeatureRewind,
			ucapi.FeatureSeek,
			ucapi.FeatureMediaTitle,
			ucapi.FeatureMediaImageURL,
			ucapi.FeatureMediaType,
			ucapi.FeatureMediaDuration,
			ucapi.FeatureMediaPosition,
			ucapi.FeatureMediaArtist,
			ucapi.FeatureMediaAlbum,
			ucapi.FeatureDPad,
			ucapi.FeatureHome,
			ucapi.FeatureMenu,
			ucapi.FeatureContextMenu,
			ucapi.FeatureGuide,
			ucapi.FeatureInfo,
		},
		Attributes: map[string]any{
			ucapi.AttrState:         ucapi.StateUnknown,
			ucapi.AttrVolume:        0,
			ucapi.AttrMuted:         false,
			ucapi.AttrMediaPosition: 0,
			ucapi.AttrMediaDuration: 0,
			ucapi.AttrMediaTitle:    "",
			ucapi.AttrMediaArtist:   "",
			ucapi.AttrMediaAlbum:    "",
			ucapi.AttrMediaImageURL: "",
		},
		DeviceClass: ucapi.DeviceClassTV,
	}
}
