package daemon

import "github.com/albertocavalcante/compflags/pkg/settings"

// Methods served by the daemon.
const (
	MethodPing        = "ping"
	MethodShutdown    = "shutdown"
	MethodSettingsGet = "settings/get"
	MethodRootFind    = "root/find"
	MethodStatusGet   = "status/get"
)

// PingResult answers ping.
type PingResult struct {
	Pong      bool   `json:"pong"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	StartTime string `json:"start_time"`
}

// ShutdownResult answers shutdown. The daemon exits shortly after sending it.
type ShutdownResult struct {
	Message string `json:"message"`
}

// SettingsGetParams asks for the record of Filename. An empty Language is
// detected from the file extension.
type SettingsGetParams struct {
	Filename string `json:"filename"`
	Language string `json:"language,omitempty"`
}

// SettingsGetResult is the resolved record plus its fingerprint.
type SettingsGetResult struct {
	Language    string          `json:"language"`
	Record      settings.Record `json:"record"`
	Fingerprint string          `json:"fingerprint"`
}

// RootFindParams asks for the nearest root of kind Marker above Filename.
type RootFindParams struct {
	Filename string `json:"filename"`
	Marker   string `json:"marker"`
}

// RootFindResult leaves Root empty when no root was found.
type RootFindResult struct {
	Found bool   `json:"found"`
	Root  string `json:"root,omitempty"`
}

// StatusGetResult reports process statistics. ClientCount includes the
// asking connection.
type StatusGetResult struct {
	PID         int    `json:"pid"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Requests    int64  `json:"requests"`
	ClientCount int    `json:"client_count"`
}
