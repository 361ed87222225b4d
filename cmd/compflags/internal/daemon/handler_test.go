package daemon

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(t *testing.T, method string, params any) *Request {
	t.Helper()
	req, err := Call(1, method, params)
	require.NoError(t, err)
	return req
}

func decodeResult(t *testing.T, resp *Response, v any) {
	t.Helper()
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "unexpected error response")
	require.NoError(t, json.Unmarshal(resp.Result, v))
}

func TestHandlerPing(t *testing.T) {
	h := NewHandler(nil)
	var result PingResult
	decodeResult(t, h.HandleRequest(context.Background(), request(t, MethodPing, nil)), &result)
	assert.True(t, result.Pong)
	assert.EqualValues(t, 1, h.Requests())
}

func TestHandlerNotificationHasNoResponse(t *testing.T) {
	h := NewHandler(nil)
	resp := h.HandleRequest(context.Background(), &Request{JSONRPC: protocolVersion, Method: MethodPing})
	assert.Nil(t, resp)
}

func TestHandlerMethodNotFound(t *testing.T) {
	h := NewHandler(nil)
	resp := h.HandleRequest(context.Background(), request(t, "watch/start", nil))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestHandlerSettingsGet(t *testing.T) {
	home, dispatcher := workspace(t)
	h := NewHandler(dispatcher)
	file := filepath.Join(home, "proj", "src", "widget.cc")

	var result SettingsGetResult
	resp := h.HandleRequest(context.Background(), request(t, MethodSettingsGet, SettingsGetParams{Filename: file}))
	decodeResult(t, resp, &result)

	assert.Equal(t, settings.LanguageCFamily, result.Language)
	assert.Equal(t, settings.KindCFamily, result.Record.Kind)
	assert.Equal(t, file, result.Record.OverrideFilename)
	assert.Contains(t, result.Record.Flags, "-I"+filepath.Join(home, "proj", "include"))
	assert.Equal(t, result.Record.Fingerprint(), result.Fingerprint)
}

func TestHandlerSettingsGetUnknownLanguage(t *testing.T) {
	home, dispatcher := workspace(t)
	h := NewHandler(dispatcher)

	var result SettingsGetResult
	resp := h.HandleRequest(context.Background(), request(t, MethodSettingsGet,
		SettingsGetParams{Filename: filepath.Join(home, "proj", "README.md")}))
	decodeResult(t, resp, &result)

	assert.Empty(t, result.Language)
	assert.True(t, result.Record.IsEmpty())
}

func TestHandlerSettingsGetInvalidParams(t *testing.T) {
	h := NewHandler(nil)

	resp := h.HandleRequest(context.Background(), request(t, MethodSettingsGet, SettingsGetParams{}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)

	resp = h.HandleRequest(context.Background(), &Request{
		JSONRPC: protocolVersion,
		ID:      new(int64),
		Method:  MethodSettingsGet,
		Params:  json.RawMessage(`[1, 2]`),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestHandlerRootFind(t *testing.T) {
	home, dispatcher := workspace(t)
	h := NewHandler(dispatcher)
	file := filepath.Join(home, "proj", "src", "widget.cc")

	tests := []struct {
		name   string
		marker string
		found  bool
		root   string
	}{
		{"default marker is manifest", "", true, filepath.Join(home, "proj")},
		{"project marker", settings.MarkerProject, true, filepath.Join(home, "proj")},
		{"missing env script", settings.MarkerEnv, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result RootFindResult
			resp := h.HandleRequest(context.Background(), request(t, MethodRootFind,
				RootFindParams{Filename: file, Marker: tt.marker}))
			decodeResult(t, resp, &result)
			assert.Equal(t, tt.found, result.Found)
			assert.Equal(t, tt.root, result.Root)
		})
	}
}

func TestHandlerRootFindUnknownMarker(t *testing.T) {
	home, dispatcher := workspace(t)
	h := NewHandler(dispatcher)

	resp := h.HandleRequest(context.Background(), request(t, MethodRootFind,
		RootFindParams{Filename: filepath.Join(home, "proj", "x.cc"), Marker: "bogus"}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestHandlerStatusGet(t *testing.T) {
	h := NewHandler(nil)
	h.HandleRequest(context.Background(), request(t, MethodPing, nil))

	var result StatusGetResult
	decodeResult(t, h.HandleRequest(context.Background(), request(t, MethodStatusGet, nil)), &result)
	assert.Positive(t, result.PID)
	assert.EqualValues(t, 2, result.Requests)
}
