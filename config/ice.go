package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

// ICEServer is one STUN/TURN entry handed to meeting clients.
type ICEServer struct {
	URLs       []string `yaml:"urls" json:"urls"`
	Username   string   `yaml:"username" json:"username,omitempty"`
	Credential string   `yaml:"credential" json:"credential,omitempty"`
}

type ICE struct {
	Servers []ICEServer `yaml:"servers" ignored:"true"`
	// ServersJSON replaces Servers when set (MEETINGS_ICE_SERVERS_JSON).
	ServersJSON string `yaml:"-" split_words:"true"`

	parsed []webrtc.ICEServer
}

// WebRTC returns the validated server list.
func (i ICE) WebRTC() []webrtc.ICEServer {
	return i.parsed
}

func (i *ICE) resolve() error {
	if raw := strings.TrimSpace(i.ServersJSON); raw != "" {
		var servers []ICEServer
		if err := json.Unmarshal([]byte(raw), &servers); err != nil {
			return fmt.Errorf("servers json: %w", err)
		}
		i.Servers = servers
	}

	out := make([]webrtc.ICEServer, 0, len(i.Servers))
	for n, s := range i.Servers {
		srv := webrtc.ICEServer{
			URLs:     trimAll(s.URLs),
			Username: strings.TrimSpace(s.Username),
		}
		if c := strings.TrimSpace(s.Credential); c != "" {
			srv.Credential = c
		}
		if err := validateICEServer(srv); err != nil {
			return fmt.Errorf("servers[%d]: %w", n, err)
		}
		out = append(out, srv)
	}
	i.parsed = out
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func validateICEServer(s webrtc.ICEServer) error {
	if len(s.URLs) == 0 {
		return errors.New("missing urls")
	}

	turn := false
	for _, u := range s.URLs {
		switch {
		case strings.HasPrefix(u, "stun:"), strings.HasPrefix(u, "stuns:"):
		case strings.HasPrefix(u, "turn:"), strings.HasPrefix(u, "turns:"):
			turn = true
		default:
			return fmt.Errorf("unsupported url scheme: %q", u)
		}
	}

	if turn {
		if s.Username == "" {
			return errors.New("turn urls require username")
		}
		if c, ok := s.Credential.(string); !ok || c == "" {
			return errors.New("turn urls require credential")
		}
	}
	return nil
}
