package ucapi

import "encoding/json"

// Websocket frame kinds of the integration API.
const (
	kindRequest  = "req"
	kindResponse = "resp"
	kindEvent    = "event"
)

// Status codes used in command and request responses.
const (
	StatusOK                 = 200
	StatusBadRequest         = 400
	StatusNotFound           = 404
	StatusTimeout            = 408
	StatusConflict           = 409
	StatusServerError        = 500
	StatusNotImplemented     = 501
	StatusServiceUnavailable = 503
)

// Event categories.
const (
	categoryDevice = "DEVICE"
	categoryEntity = "ENTITY"
)

type message struct {
	Kind    string          `json:"kind"`
	ID      int             `json:"id,omitempty"`
	Msg     string          `json:"msg"`
	Cat     string          `json:"cat,omitempty"`
	MsgData json.RawMessage `json:"msg_data,omitempty"`
}

type responseMessage struct {
	Kind    string `json:"kind"`
	ReqID   int    `json:"req_id"`
	Msg     string `json:"msg"`
	Code    int    `json:"code"`
	MsgData any    `json:"msg_data,omitempty"`
}

type eventMessage struct {
	Kind    string `json:"kind"`
	Msg     string `json:"msg"`
	Cat     string `json:"cat,omitempty"`
	MsgData any    `json:"msg_data,omitempty"`
}

type subscribeEventsData struct {
	DeviceID  string   `json:"device_id,omitempty"`
	EntityIDs []string `json:"entity_ids"`
}

type entityCommandData struct {
	DeviceID string         `json:"device_id,omitempty"`
	EntityID string         `json:"entity_id"`
	CmdID    string         `json:"cmd_id"`
	Params   map[string]any `json:"params,omitempty"`
}

type setupDriverData struct {
	Reconfigure bool              `json:"reconfigure"`
	SetupData   map[string]string `json:"setup_data"`
}

type setDriverUserData struct {
	InputValues map[string]string `json:"input_values"`
	Confirm     bool              `json:"confirm"`
}

type deviceStateData struct {
	DeviceID string      `json:"device_id,omitempty"`
	State    DeviceState `json:"state"`
}

type entityChangeData struct {
	EntityType EntityType     `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Attributes map[string]any `json:"attributes"`
}

type entityStateData struct {
	DeviceID   string         `json:"device_id,omitempty"`
	EntityType EntityType     `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Attributes map[string]any `json:"attributes"`
}

type availableEntitiesData struct {
	AvailableEntities []*Entity `json:"available_entities"`
}

type driverVersionData struct {
	Name    string `json:"name"`
	Version struct {
		API    string `json:"api,omitempty"`
		Driver string `json:"driver"`
	} `json:"version"`
}

type driverSetupChangeData struct {
	EventType         string             `json:"event_type"`
	State             string             `json:"state"`
	Error             string             `json:"error,omitempty"`
	RequireUserAction *requireUserAction `json:"require_user_action,omitempty"`
}

type requireUserAction struct {
	Input *settingsPage `json:"input,omitempty"`
}

type settingsPage struct {
	Title    LocalizedText `json:"title"`
	Settings []Setting     `json:"settings"`
}

// Setup flow states sent in driver_setup_change events.
const (
	setupEventSetup = "SETUP"
	setupEventStop  = "STOP"

	setupStateSetup          = "SETUP"
	setupStateWaitUserAction = "WAIT_USER_ACTION"
	setupStateOK             = "OK"
	setupStateError          = "ERROR"
)
