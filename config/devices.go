package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const devicesFilename = "devices.json"

// Artwork selection values stored per device. They control which Plex
// artwork path is mapped to the media-player image attribute.
const (
	TVArtworkSeries  = "tv-poster-series"
	TVArtworkSeason  = "tv-poster-season"
	TVArtworkEpisode = "tv-poster-episode"
	TVArtworkArt     = "tv-poster-art"

	MovieArtworkPoster = "movie-poster"
	MovieArtworkArt    = "movie-art"
)

// Device is a paired Plex player together with the server it plays from.
// The identifier is the Plex machine identifier of the player and doubles
// as the entity identifier on the remote.
type Device struct {
	ID             string `json:"identifier"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	Port           string `json:"port"`
	Token          string `json:"auth_token"`
	ServerName     string `json:"server_name"`
	TVArtwork      string `json:"tv_selection"`
	MovieArtwork   string `json:"movie_selection"`
	InsecureServer bool   `json:"insecure,omitempty"`
}

// ServerConfig returns the Plex server connection settings for this device.
func (d Device) ServerConfig() PlexServerConfig {
	return PlexServerConfig{
		BaseURL:  d.BaseURL(),
		Token:    d.Token,
		Insecure: d.InsecureServer,
	}
}

func (d Device) BaseURL() string {
	address := d.Address
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	if d.Port == "" {
		return address
	}
	return fmt.Sprintf("%s:%s", address, d.Port)
}

// Devices manages the paired Plex players and persists them as JSON in the
// config directory. The add/remove handlers are invoked on configuration
// changes so the driver can create or destroy the matching entities.
type Devices struct {
	Logger *log.Entry

	path          string
	addHandler    func(Device)
	removeHandler func(*Device)

	mu   sync.Mutex
	list []Device
}

// NewDevices creates a device store for the given config directory and loads
// any previously persisted configuration.
func NewDevices(dir string, logger *log.Entry, addHandler func(Device), removeHandler func(*Device)) *Devices {
	d := &Devices{
		Logger:        logger,
		path:          filepath.Join(dir, devicesFilename),
		addHandler:    addHandler,
		removeHandler: removeHandler,
	}
	if err := d.load(); err != nil {
		logger.WithError(err).Warn("Could not load device configuration")
	}
	return d
}

// All returns a copy of all configured devices.
func (d *Devices) All() []Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Device(nil), d.list...)
}

// Get returns a copy of the device with the given identifier, or nil.
func (d *Devices) Get(id string) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, item := range d.list {
		if item.ID == id {
			device := item
			return &device
		}
	}
	return nil
}

func (d *Devices) Contains(id string) bool {
	return d.Get(id) != nil
}

// Add registers a new paired device, replacing any existing entry with the
// same identifier, and notifies the add handler.
func (d *Devices) Add(device Device) {
	d.mu.Lock()
	for i, item := range d.list {
		if item.ID == device.ID {
			d.Logger.Debugf("Replacing existing device %s", device.ID)
			d.list = append(d.list[:i], d.list[i+1:]...)
			break
		}
	}
	d.list = append(d.list, device)
	d.mu.Unlock()

	if d.addHandler != nil {
		d.addHandler(device)
	}
}

// Update replaces the stored configuration of an already paired device and
// persists the change. It reports whether the device was found.
func (d *Devices) Update(device Device) bool {
	d.mu.Lock()
	found := false
	for i, item := range d.list {
		if item.ID == device.ID {
			d.list[i] = device
			found = true
			break
		}
	}
	d.mu.Unlock()

	if !found {
		return false
	}
	if err := d.Store(); err != nil {
		d.Logger.WithError(err).Error("Could not store device configuration")
	}
	return true
}

// Remove deletes a paired device and notifies the remove handler. It reports
// whether the device was found.
func (d *Devices) Remove(id string) bool {
	d.mu.Lock()
	var removed *Device
	for i, item := range d.list {
		if item.ID == id {
			device := item
			removed = &device
			d.list = append(d.list[:i], d.list[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	if removed == nil {
		return false
	}
	if d.removeHandler != nil {
		d.removeHandler(removed)
	}
	return true
}

// Clear removes the whole configuration including the persisted file.
// The remove handler is called once with nil to signal a full reset.
func (d *Devices) Clear() {
	d.mu.Lock()
	d.list = nil
	d.mu.Unlock()

	if err := os.Remove(d.path); err != nil && !os.IsNotExist(err) {
		d.Logger.WithError(err).Error("Could not remove device configuration file")
	}
	if d.removeHandler != nil {
		d.removeHandler(nil)
	}
}

// Store persists the current configuration to the config directory.
func (d *Devices) Store() error {
	d.mu.Lock()
	b, err := json.Marshal(d.list)
	d.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(d.path, b, 0o600)
}

func (d *Devices) load() error {
	b, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var list []Device
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("parse device configuration: %w", err)
	}

	d.mu.Lock()
	d.list = list
	d.mu.Unlock()
	return nil
}
