package api

type ServerInfoResponse struct {
	ServerInfo `json:"MediaContainer"`
}

type ServerInfo struct {
	ID       string `json:"machineIdentifier"`
	Name     string `json:"friendlyName"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// DeviceList is the XML resource listing returned by plex.tv.
type DeviceList struct {
	Devices []Device `xml:"Device"`
}

type Device struct {
	Name        string       `xml:"name,attr"`
	Product     string       `xml:"product,attr"`
	ClientID    string       `xml:"clientIdentifier,attr"`
	AccessToken string       `xml:"accessToken,attr"`
	Roles       string       `xml:"provides,attr"`
	Owned       bool         `xml:"owned,attr"`
	Connections []Connection `xml:"Connection"`
}

type Connection struct {
	URI   string `xml:"uri,attr"`
	Local bool   `xml:"local,attr"`
}
