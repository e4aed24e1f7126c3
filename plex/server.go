package plex

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/JackJPowell/uc-intg-plex/config"
	"github.com/JackJPowell/uc-intg-plex/plex/api"
	"github.com/JackJPowell/uc-intg-plex/version"
)

type Server struct {
	ID         string
	Name       string
	Version    string
	Platform   string
	BaseURL    string
	token      string
	httpClient *http.Client
	headers    map[string]string

	mu         sync.Mutex
	commandIDs map[string]int
}

const TestURI = "%s/identity"
const ServerInfoURI = "%s/media/providers"
const StatusURI = "%s/status/sessions"
const PlaybackURI = "%s/player/playback/%s"
const NavigationURI = "%s/player/navigation/%s"

var DefaultHeaders = map[string]string{
	"User-Agent":               fmt.Sprintf("uc-intg-plex/%s", version.Version),
	"Accept":                   "application/json",
	"X-Plex-Platform":          runtime.GOOS,
	"X-Plex-Version":           version.Version,
	"X-Plex-Client-Identifier": fmt.Sprintf("uc-intg-plex-v%s", version.Version),
	"X-Plex-Device-Name":       "Remote Two Plex Integration",
	"X-Plex-Product":           "Remote Two Plex Integration",
	"X-Plex-Device":            runtime.GOOS,
}

func NewServer(ctx context.Context, c config.PlexServerConfig) (*Server, error) {
	headers := maps.Clone(DefaultHeaders)
	headers["X-Plex-Token"] = c.Token

	server := &Server{
		BaseURL:    c.BaseURL,
		token:      c.Token,
		headers:    headers,
		commandIDs: map[string]int{},
		httpClient: &http.Client{
			Timeout: time.Second * 10,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: c.Insecure},
			},
		},
	}

	serverInfo, err := server.getServerInfo(ctx)
	if err != nil {
		return nil, err
	}

	server.ID = serverInfo.ID
	server.Name = serverInfo.Name
	server.Version = serverInfo.Version
	server.Platform = serverInfo.Platform

	return server, nil
}

func (s *Server) getServerInfo(ctx context.Context) (*api.ServerInfoResponse, error) {
	serverInfoResponse := api.ServerInfoResponse{}

	body, err := s.get(ctx, fmt.Sprintf(ServerInfoURI, s.BaseURL))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(body, &serverInfoResponse)
	if err != nil {
		return nil, err
	}

	return &serverInfoResponse, nil
}

func (s *Server) GetSessionStatus(ctx context.Context) (*api.SessionList, error) {
	sessionList := api.SessionList{}

	body, err := s.get(ctx, fmt.Sprintf(StatusURI, s.BaseURL))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(body, &sessionList)
	if err != nil {
		return nil, err
	}

	return &sessionList, nil
}

// ActiveSession returns the session currently played by the given client, or
// nil if the client has no active session. Only local players are considered,
// remote players cannot be controlled through the server.
func (s *Server) ActiveSession(ctx context.Context, clientID string) (*api.SessionMetadata, error) {
	sessions, err := s.GetSessionStatus(ctx)
	if err != nil {
		return nil, err
	}

	for i := range sessions.Metadata {
		metadata := &sessions.Metadata[i]
		if metadata.Player.MachineIdentifier == clientID && metadata.Player.Local {
			return metadata, nil
		}
	}
	return nil, nil
}

// SendCommand issues a single player-control call, proxied through the server
// to the client identified by clientID. It performs exactly one HTTP request
// and does not retry.
func (s *Server) SendCommand(ctx context.Context, clientID string, call *Call) error {
	var endpoint string
	switch call.Kind {
	case CallPlayback:
		endpoint = fmt.Sprintf(PlaybackURI, s.BaseURL, call.Action)
	case CallNavigation:
		endpoint = fmt.Sprintf(NavigationURI, s.BaseURL, call.Action)
	default:
		return fmt.Errorf("unknown call kind %q", call.Kind)
	}

	params := url.Values{}
	maps.Copy(params, call.Params)
	params.Set("commandID", strconv.Itoa(s.nextCommandID(clientID)))

	headers := maps.Clone(s.headers)
	headers["X-Plex-Target-Client-Identifier"] = clientID

	_, _, err := sendRequest(ctx, s.httpClient, http.MethodGet, endpoint+"?"+params.Encode(), headers)
	return err
}

// Token returns the auth token this server connection uses.
func (s *Server) Token() string {
	return s.token
}

// ResourceURL builds a tokenized URL for a server resource path such as a
// poster thumb. An empty path yields an empty URL.
func (s *Server) ResourceURL(path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s%s?X-Plex-Token=%s", s.BaseURL, path, url.QueryEscape(s.token))
}

// nextCommandID returns a monotonically increasing command sequence number
// per target client, as expected by the player-control endpoints.
func (s *Server) nextCommandID(clientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commandIDs[clientID]++
	return s.commandIDs[clientID]
}

func (s *Server) get(ctx context.Context, url string) ([]byte, error) {
	_, body, err := sendRequest(ctx, s.httpClient, http.MethodGet, url, s.headers)
	return body, err
}
