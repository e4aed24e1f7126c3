package ucapi

// SetupRequest is passed to the driver's setup handler for every setup-flow
// message sent by the remote.
type SetupRequest struct {
	// Initial is true for the first setup_driver request and false for
	// subsequent set_driver_user_data responses.
	Initial     bool
	Reconfigure bool
	// SetupData carries the values of the initial setup page, InputValues
	// the values of a requested user-input page.
	SetupData   map[string]string
	InputValues map[string]string
	Confirm     bool
	// Aborted is set when the remote cancelled the setup flow.
	Aborted bool
}

// Values returns whichever value map the request carries.
func (r SetupRequest) Values() map[string]string {
	if r.InputValues != nil {
		return r.InputValues
	}
	return r.SetupData
}

// SetupAction is the driver's answer to a setup request: ask for more input,
// finish, or fail.
type SetupAction interface {
	setupAction()
}

// RequestUserInput asks the remote to render a settings page and return the
// entered values.
type RequestUserInput struct {
	Title    LocalizedText
	Settings []Setting
}

type SetupComplete struct{}

type SetupError struct {
	Code string
}

func (RequestUserInput) setupAction() {}
func (SetupComplete) setupAction()    {}
func (SetupError) setupAction()       {}

// Setup error codes understood by the remote.
const (
	SetupErrorOther             = "OTHER"
	SetupErrorConnectionRefused = "CONNECTION_REFUSED"
	SetupErrorNotFound          = "NOT_FOUND"
	SetupErrorAuthorization     = "AUTHORIZATION_ERROR"
	SetupErrorTimeout           = "TIMEOUT"
)

// Setting is one input field on a setup page.
type Setting struct {
	ID    string        `json:"id"`
	Label LocalizedText `json:"label"`
	Field Field         `json:"field"`
}

// Field holds exactly one of the supported field types.
type Field struct {
	Text     *TextField     `json:"text,omitempty"`
	Dropdown *DropdownField `json:"dropdown,omitempty"`
	Label    *LabelField    `json:"label,omitempty"`
	Checkbox *CheckboxField `json:"checkbox,omitempty"`
}

type TextField struct {
	Value string `json:"value"`
}

type LabelField struct {
	Value LocalizedText `json:"value"`
}

type DropdownField struct {
	Value string         `json:"value"`
	Items []DropdownItem `json:"items"`
}

type DropdownItem struct {
	ID    string        `json:"id"`
	Label LocalizedText `json:"label"`
}

type CheckboxField struct {
	Value bool `json:"value"`
}
