package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/albertocavalcante/compflags/cmd/compflags/internal/detect"
	"github.com/albertocavalcante/compflags/internal/log"
	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/albertocavalcante/compflags/pkg/walk"
)

// Handler handles RPC method calls.
type Handler struct {
	server     *Server
	dispatcher *settings.Dispatcher
	requests   atomic.Int64
}

// NewHandler creates a new RPC handler resolving through dispatcher.
func NewHandler(dispatcher *settings.Dispatcher) *Handler {
	if dispatcher == nil {
		dispatcher = settings.New(nil)
	}
	return &Handler{dispatcher: dispatcher}
}

// Requests returns the number of requests handled so far.
func (h *Handler) Requests() int64 {
	return h.requests.Load()
}

// HandleRequest dispatches a request to the appropriate handler.
// It returns nil for notifications.
func (h *Handler) HandleRequest(ctx context.Context, req *Request) *Response {
	logger := log.Component("daemon")
	logger.Debugw("handling request", "method", req.Method, "id", req.ID)
	h.requests.Add(1)

	if req.ID == nil {
		// Notifications get no response
		return nil
	}

	switch req.Method {
	case MethodPing:
		return h.handlePing(req)
	case MethodShutdown:
		return h.handleShutdown(req)
	case MethodSettingsGet:
		return h.handleSettingsGet(ctx, req)
	case MethodRootFind:
		return h.handleRootFind(req)
	case MethodStatusGet:
		return h.handleStatusGet(req)
	default:
		return Fail(req.ID, CodeMethodNotFound, "method not found", req.Method)
	}
}

// handlePing handles the ping request.
func (h *Handler) handlePing(req *Request) *Response {
	result := PingResult{Pong: true}
	if h.server != nil {
		result.Version = h.server.version
		result.Uptime = h.server.Uptime().String()
		result.StartTime = h.server.started.Format(time.RFC3339)
	}
	return Reply(req, result)
}

// handleShutdown handles the shutdown request.
func (h *Handler) handleShutdown(req *Request) *Response {
	resp := Reply(req, ShutdownResult{Message: "daemon shutting down"})

	// Schedule shutdown after response is sent
	if h.server != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			h.server.RequestShutdown()
		}()
	}
	return resp
}

// handleSettingsGet resolves the settings record for one file.
func (h *Handler) handleSettingsGet(ctx context.Context, req *Request) *Response {
	var params SettingsGetParams
	if err := unmarshalParams(req, &params); err != nil {
		return Fail(req.ID, CodeInvalidParams, "invalid params", err.Error())
	}
	if params.Filename == "" {
		return Fail(req.ID, CodeInvalidParams, "invalid params", "filename is required")
	}

	lang := params.Language
	if lang == "" {
		lang, _ = detect.Language(params.Filename)
	}

	rec := h.dispatcher.Settings(ctx, settings.Request{Filename: params.Filename, Language: lang})
	log.Trace("settings resolved",
		"file", params.Filename, "language", lang, "fingerprint", rec.Fingerprint())
	return Reply(req, SettingsGetResult{
		Language:    lang,
		Record:      rec,
		Fingerprint: rec.Fingerprint(),
	})
}

// handleRootFind walks up to the nearest project root of the given kind.
func (h *Handler) handleRootFind(req *Request) *Response {
	var params RootFindParams
	if err := unmarshalParams(req, &params); err != nil {
		return Fail(req.ID, CodeInvalidParams, "invalid params", err.Error())
	}
	if params.Filename == "" {
		return Fail(req.ID, CodeInvalidParams, "invalid params", "filename is required")
	}
	if params.Marker == "" {
		params.Marker = settings.MarkerManifest
	}

	root, err := settings.FindRoot(h.dispatcher.Config(), params.Filename, params.Marker)
	switch {
	case errors.Is(err, settings.ErrUnknownMarker):
		return Fail(req.ID, CodeInvalidParams, "invalid params", err.Error())
	case errors.Is(err, walk.ErrNotFound):
		return Reply(req, RootFindResult{Found: false})
	case err != nil:
		return Fail(req.ID, CodeInternalError, "root lookup failed", err.Error())
	}
	return Reply(req, RootFindResult{Found: true, Root: root})
}

// handleStatusGet reports process statistics.
func (h *Handler) handleStatusGet(req *Request) *Response {
	if h.server != nil {
		return Reply(req, h.server.status())
	}
	return Reply(req, StatusGetResult{PID: os.Getpid(), Requests: h.Requests()})
}

func unmarshalParams(req *Request, v any) error {
	if len(req.Params) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params, v)
}
