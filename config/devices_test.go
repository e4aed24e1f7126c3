package config

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return log.NewEntry(logger)
}

func testDevice(id string) Device {
	return Device{
		ID:           id,
		Name:         "Living Room (Plex for Apple TV)",
		Address:      "192.168.1.10",
		Port:         "32400",
		Token:        "t0ken",
		ServerName:   "Test Server",
		TVArtwork:    TVArtworkSeries,
		MovieArtwork: MovieArtworkPoster,
	}
}

func TestDevicesRoundTrip(t *testing.T) {
	dir := t.TempDir()

	devices := NewDevices(dir, testLogger(), nil, nil)
	devices.Add(testDevice("player-1"))
	devices.Add(testDevice("player-2"))
	if err := devices.Store(); err != nil {
		t.Fatalf("Store: %s", err)
	}

	// a fresh store sees the persisted devices
	reloaded := NewDevices(dir, testLogger(), nil, nil)
	if got := len(reloaded.All()); got != 2 {
		t.Fatalf("expected 2 devices after reload, got %d", got)
	}
	device := reloaded.Get("player-1")
	if device == nil {
		t.Fatal("expected player-1 after reload")
	}
	if device.Token != "t0ken" || device.TVArtwork != TVArtworkSeries {
		t.Errorf("device lost fields on round trip: %+v", device)
	}
}

func TestDevicesAddReplacesExisting(t *testing.T) {
	devices := NewDevices(t.TempDir(), testLogger(), nil, nil)

	devices.Add(testDevice("player-1"))
	updated := testDevice("player-1")
	updated.Name = "Bedroom"
	devices.Add(updated)

	if got := len(devices.All()); got != 1 {
		t.Fatalf("expected 1 device, got %d", got)
	}
	if got := devices.Get("player-1").Name; got != "Bedroom" {
		t.Errorf("Name = %s, want Bedroom", got)
	}
}

func TestDevicesHandlers(t *testing.T) {
	var added []string
	var removed []string

	devices := NewDevices(t.TempDir(), testLogger(),
		func(d Device) { added = append(added, d.ID) },
		func(d *Device) {
			if d == nil {
				removed = append(removed, "*")
				return
			}
			removed = append(removed, d.ID)
		})

	devices.Add(testDevice("player-1"))
	devices.Add(testDevice("player-2"))
	devices.Remove("player-1")
	devices.Clear()

	if len(added) != 2 || added[0] != "player-1" || added[1] != "player-2" {
		t.Errorf("add handler calls = %v", added)
	}
	if len(removed) != 2 || removed[0] != "player-1" || removed[1] != "*" {
		t.Errorf("remove handler calls = %v", removed)
	}
}

func TestDevicesRemoveUnknown(t *testing.T) {
	devices := NewDevices(t.TempDir(), testLogger(), nil, nil)
	if devices.Remove("nope") {
		t.Error("Remove of unknown device should report false")
	}
}

func TestDevicesClearDeletesFile(t *testing.T) {
	dir := t.TempDir()
	devices := NewDevices(dir, testLogger(), nil, nil)
	devices.Add(testDevice("player-1"))
	if err := devices.Store(); err != nil {
		t.Fatalf("Store: %s", err)
	}

	devices.Clear()

	if _, err := os.Stat(filepath.Join(dir, devicesFilename)); !os.IsNotExist(err) {
		t.Errorf("expected devices file to be removed, stat err = %v", err)
	}
}

func TestDeviceBaseURL(t *testing.T) {
	tests := []struct {
		address string
		port    string
		want    string
	}{
		{"192.168.1.10", "32400", "http://192.168.1.10:32400"},
		{"192.168.1.10", "", "http://192.168.1.10"},
		{"https://pms.example.com", "", "https://pms.example.com"},
		{"http://pms.local", "32400", "http://pms.local:32400"},
	}
	for _, test := range tests {
		device := Device{Address: test.address, Port: test.port}
		if got := device.BaseURL(); got != test.want {
			t.Errorf("BaseURL(%q, %q) = %s, want %s", test.address, test.port, got, test.want)
		}
	}
}
