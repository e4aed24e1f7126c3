package ucapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// DriverMetadata describes the driver to the remote. It is loaded from
// driver.json and also advertised over mDNS.
type DriverMetadata struct {
	DriverID    string        `json:"driver_id"`
	Name        LocalizedText `json:"name"`
	Version     string        `json:"version"`
	MinCoreAPI  string        `json:"min_core_api,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	Description LocalizedText `json:"description,omitempty"`
	Developer   *Developer    `json:"developer,omitempty"`
	HomePage    string        `json:"home_page,omitempty"`
	ReleaseDate string        `json:"release_date,omitempty"`
}

type Developer struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Email string `json:"email,omitempty"`
}

// LoadDriverMetadata reads driver metadata from a driver.json file.
func LoadDriverMetadata(path string) (*DriverMetadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta := DriverMetadata{}
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("parse driver metadata: %w", err)
	}
	if meta.DriverID == "" {
		return nil, errors.New("driver metadata is missing driver_id")
	}
	return &meta, nil
}

// Integration is a websocket server implementing the integration API for a
// single driver: entity registry, event push and the setup flow. Handlers are
// optional; unset handlers answer with a service-unavailable status.
type Integration struct {
	Logger   *log.Entry
	Metadata DriverMetadata

	listenPort int
	mux        *http.ServeMux
	upgrader   websocket.Upgrader

	mu          sync.Mutex
	sessions    map[*remoteSession]struct{}
	entities    map[string]*Entity
	subscribed  map[string]struct{}
	deviceState DeviceState

	// CommandHandler handles an entity command and returns a status code.
	// It is invoked from the websocket read loop's dispatch goroutine and
	// may run concurrently with attribute updates.
	CommandHandler func(entityID string, cmdID string, params map[string]any) int
	// SetupHandler advances the driver setup flow.
	SetupHandler func(req SetupRequest) SetupAction

	SubscribeHandler    func(entityIDs []string)
	UnsubscribeHandler  func(entityIDs []string)
	ConnectHandler      func()
	DisconnectHandler   func()
	EnterStandbyHandler func()
	ExitStandbyHandler  func()
}

func New(meta DriverMetadata, port int, logger *log.Entry) *Integration {
	i := &Integration{
		Logger:      logger,
		Metadata:    meta,
		listenPort:  port,
		mux:         http.NewServeMux(),
		sessions:    map[*remoteSession]struct{}{},
		entities:    map[string]*Entity{},
		subscribed:  map[string]struct{}{},
		deviceState: DeviceDisconnected,
		upgrader: websocket.Upgrader{
			// the remote connects from its own network address
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	i.mux.HandleFunc("/ws", i.handleWebsocket)
	return i
}

// Handle registers an additional HTTP handler on the integration listener,
// e.g. a metrics endpoint.
func (i *Integration) Handle(pattern string, handler http.Handler) {
	i.mux.Handle(pattern, handler)
}

// Handler returns the HTTP handler serving the integration endpoints.
func (i *Integration) Handler() http.Handler {
	return i.mux
}

// ListenAndServe serves the integration API and advertises it over mDNS
// until the context is cancelled.
func (i *Integration) ListenAndServe(ctx context.Context) error {
	mdns, err := i.advertise()
	if err != nil {
		i.Logger.WithError(err).Warn("Could not advertise integration over mDNS")
	} else {
		defer mdns.Shutdown()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", i.listenPort),
		Handler: i.mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			i.Logger.WithError(err).Error("Integration server shutdown failed")
		}
	}()

	i.Logger.Infof("Integration API listening on port %d", i.listenPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// AddEntity registers an available entity, replacing any previous entity
// with the same identifier.
func (i *Integration) AddEntity(e *Entity) {
	i.mu.Lock()
	i.entities[e.ID] = e
	i.mu.Unlock()
}

// RemoveEntity deregisters an entity and drops its subscription.
func (i *Integration) RemoveEntity(id string) {
	i.mu.Lock()
	delete(i.entities, id)
	delete(i.subscribed, id)
	i.mu.Unlock()
}

// ClearEntities removes all entities, used on configuration reset.
func (i *Integration) ClearEntities() {
	i.mu.Lock()
	i.entities = map[string]*Entity{}
	i.subscribed = map[string]struct{}{}
	i.mu.Unlock()
}

// UpdateAttributes merges attrs into the entity's stored attributes and
// pushes an entity_change event if the entity is subscribed. It reports
// whether the entity exists.
func (i *Integration) UpdateAttributes(entityID string, attrs map[string]any) bool {
	i.mu.Lock()
	entity, ok := i.entities[entityID]
	if !ok {
		i.mu.Unlock()
		return false
	}
	if entity.Attributes == nil {
		entity.Attributes = map[string]any{}
	}
	for k, v := range attrs {
		entity.Attributes[k] = v
	}
	entityType := entity.Type
	_, isSubscribed := i.subscribed[entityID]
	i.mu.Unlock()

	if isSubscribed {
		i.broadcast(eventMessage{
			Kind: kindEvent,
			Msg:  "entity_change",
			Cat:  categoryEntity,
			MsgData: entityChangeData{
				EntityType: entityType,
				EntityID:   entityID,
				Attributes: attrs,
			},
		})
	}
	return true
}

// SetDeviceState sets the integration device state and pushes it to all
// connected remotes.
func (i *Integration) SetDeviceState(state DeviceState) {
	i.mu.Lock()
	changed := i.deviceState != state
	i.deviceState = state
	i.mu.Unlock()

	if changed {
		i.broadcast(eventMessage{
			Kind:    kindEvent,
			Msg:     "device_state",
			Cat:     categoryDevice,
			MsgData: deviceStateData{State: state},
		})
	}
}

func (i *Integration) DeviceState() DeviceState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.deviceState
}

// EntityAttributes returns a copy of an entity's current attributes, nil if
// the entity is not registered.
func (i *Integration) EntityAttributes(id string) map[string]any {
	i.mu.Lock()
	defer i.mu.Unlock()
	if e, ok := i.entities[id]; ok {
		return maps.Clone(e.Attributes)
	}
	return nil
}

type remoteSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *remoteSession) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (i *Integration) broadcast(event eventMessage) {
	i.mu.Lock()
	sessions := make([]*remoteSession, 0, len(i.sessions))
	for s := range i.sessions {
		sessions = append(sessions, s)
	}
	i.mu.Unlock()

	for _, s := range sessions {
		if err := s.send(event); err != nil {
			i.Logger.WithError(err).Debug("Could not push event to remote")
		}
	}
}

func (i *Integration) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.Logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	session := &remoteSession{conn: conn}
	i.mu.Lock()
	i.sessions[session] = struct{}{}
	i.mu.Unlock()

	i.Logger.WithField("remote", r.RemoteAddr).Info("Remote connected")

	// authentication handshake expected by the remote on connect
	if err := session.send(responseMessage{
		Kind:  kindResponse,
		ReqID: 0,
		Msg:   "authentication",
		Code:  StatusOK,
	}); err != nil {
		i.Logger.WithError(err).Warn("Could not send authentication response")
	}

	if i.ConnectHandler != nil {
		i.ConnectHandler()
	}

	i.readLoop(session)

	i.mu.Lock()
	delete(i.sessions, session)
	i.mu.Unlock()
	conn.Close()

	i.Logger.WithField("remote", r.RemoteAddr).Info("Remote disconnected")
	if i.DisconnectHandler != nil {
		i.DisconnectHandler()
	}
}

func (i *Integration) readLoop(session *remoteSession) {
	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				i.Logger.WithError(err).Debug("Websocket read failed")
			}
			return
		}

		msg := message{}
		if err := json.Unmarshal(data, &msg); err != nil {
			i.Logger.WithError(err).Warn("Could not parse websocket message")
			continue
		}

		switch msg.Kind {
		case kindRequest:
			i.handleRequest(session, &msg)
		case kindEvent:
			i.handleRemoteEvent(&msg)
		}
	}
}

func (i *Integration) handleRemoteEvent(msg *message) {
	switch msg.Msg {
	case "connect":
		if i.ConnectHandler != nil {
			i.ConnectHandler()
		}
	case "disconnect":
		if i.DisconnectHandler != nil {
			i.DisconnectHandler()
		}
	case "enter_standby":
		if i.EnterStandbyHandler != nil {
			i.EnterStandbyHandler()
		}
	case "exit_standby":
		if i.ExitStandbyHandler != nil {
			i.ExitStandbyHandler()
		}
	case "abort_driver_setup":
		if i.SetupHandler != nil {
			i.SetupHandler(SetupRequest{Aborted: true})
		}
	default:
		i.Logger.Debugf("Unhandled remote event: %s", msg.Msg)
	}
}

func (i *Integration) handleRequest(session *remoteSession, msg *message) {
	respond := func(name string, code int, data any) {
		err := session.send(responseMessage{
			Kind:    kindResponse,
			ReqID:   msg.ID,
			Msg:     name,
			Code:    code,
			MsgData: data,
		})
		if err != nil {
			i.Logger.WithError(err).Debug("Could not send response")
		}
	}

	switch msg.Msg {
	case "get_driver_version":
		data := driverVersionData{Name: i.Metadata.Name["en"]}
		data.Version.Driver = i.Metadata.Version
		respond("driver_version", StatusOK, data)

	case "get_driver_metadata":
		respond("driver_metadata", StatusOK, i.Metadata)

	case "get_device_state":
		respond("device_state", StatusOK, deviceStateData{State: i.DeviceState()})

	case "get_available_entities":
		// copy while holding the lock: the response is marshalled after
		// the lock is released and must not share the live attribute maps
		// with concurrent attribute updates
		i.mu.Lock()
		available := make([]*Entity, 0, len(i.entities))
		for _, e := range i.entities {
			available = append(available, e.clone())
		}
		i.mu.Unlock()
		respond("available_entities", StatusOK, availableEntitiesData{AvailableEntities: available})

	case "get_entity_states":
		i.mu.Lock()
		states := make([]entityStateData, 0, len(i.subscribed))
		for id := range i.subscribed {
			if e, ok := i.entities[id]; ok {
				states = append(states, entityStateData{
					EntityType: e.Type,
					EntityID:   e.ID,
					Attributes: maps.Clone(e.Attributes),
				})
			}
		}
		i.mu.Unlock()
		respond("entity_states", StatusOK, states)

	case "subscribe_events":
		data := subscribeEventsData{}
		if err := json.Unmarshal(msg.MsgData, &data); err != nil {
			respond("result", StatusBadRequest, nil)
			return
		}
		i.mu.Lock()
		for _, id := range data.EntityIDs {
			i.subscribed[id] = struct{}{}
		}
		i.mu.Unlock()
		if i.SubscribeHandler != nil {
			i.SubscribeHandler(data.EntityIDs)
		}
		respond("result", StatusOK, nil)

	case "unsubscribe_events":
		data := subscribeEventsData{}
		if err := json.Unmarshal(msg.MsgData, &data); err != nil {
			respond("result", StatusBadRequest, nil)
			return
		}
		i.mu.Lock()
		for _, id := range data.EntityIDs {
			delete(i.subscribed, id)
		}
		i.mu.Unlock()
		if i.UnsubscribeHandler != nil {
			i.UnsubscribeHandler(data.EntityIDs)
		}
		respond("result", StatusOK, nil)

	case "entity_command":
		data := entityCommandData{}
		if err := json.Unmarshal(msg.MsgData, &data); err != nil {
			respond("result", StatusBadRequest, nil)
			return
		}
		if i.CommandHandler == nil {
			respond("result", StatusServiceUnavailable, nil)
			return
		}
		// command execution may block on the Plex client; don't stall
		// the read loop
		go func() {
			code := i.CommandHandler(data.EntityID, stripEntityType(data.CmdID), data.Params)
			respond("result", code, nil)
		}()

	case "setup_driver":
		data := setupDriverData{}
		if err := json.Unmarshal(msg.MsgData, &data); err != nil {
			respond("result", StatusBadRequest, nil)
			return
		}
		respond("result", StatusOK, nil)
		go i.runSetup(SetupRequest{
			Initial:     true,
			Reconfigure: data.Reconfigure,
			SetupData:   data.SetupData,
		})

	case "set_driver_user_data":
		data := setDriverUserData{}
		if err := json.Unmarshal(msg.MsgData, &data); err != nil {
			respond("result", StatusBadRequest, nil)
			return
		}
		respond("result", StatusOK, nil)
		go i.runSetup(SetupRequest{
			InputValues: data.InputValues,
			Confirm:     data.Confirm,
		})

	default:
		i.Logger.Debugf("Unhandled request: %s", msg.Msg)
		respond("result", StatusNotImplemented, nil)
	}
}

// runSetup invokes the setup handler and translates its action into
// driver_setup_change events.
func (i *Integration) runSetup(req SetupRequest) {
	if i.SetupHandler == nil {
		i.sendSetupChange(driverSetupChangeData{
			EventType: setupEventStop,
			State:     setupStateError,
			Error:     SetupErrorOther,
		})
		return
	}

	action := i.SetupHandler(req)
	switch a := action.(type) {
	case RequestUserInput:
		i.sendSetupChange(driverSetupChangeData{
			EventType: setupEventSetup,
			State:     setupStateWaitUserAction,
			RequireUserAction: &requireUserAction{
				Input: &settingsPage{Title: a.Title, Settings: a.Settings},
			},
		})
	case SetupComplete:
		i.sendSetupChange(driverSetupChangeData{
			EventType: setupEventStop,
			State:     setupStateOK,
		})
	case SetupError:
		code := a.Code
		if code == "" {
			code = SetupErrorOther
		}
		i.sendSetupChange(driverSetupChangeData{
			EventType: setupEventStop,
			State:     setupStateError,
			Error:     code,
		})
	case nil:
		// aborted flow, nothing to send
	}
}

func (i *Integration) sendSetupChange(data driverSetupChangeData) {
	i.broadcast(eventMessage{
		Kind:    kindEvent,
		Msg:     "driver_setup_change",
		Cat:     categoryDevice,
		MsgData: data,
	})
}

// stripEntityType removes an entity-type prefix from a command identifier,
// e.g. "media_player.play_pause" -> "play_pause".
func stripEntityType(cmdID string) string {
	if idx := strings.IndexByte(cmdID, '.'); idx >= 0 {
		return cmdID[idx+1:]
	}
	return cmdID
}
