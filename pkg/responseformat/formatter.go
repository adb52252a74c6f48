// Package responseformat writes HTTP responses as JSON or MessagePack.
package responseformat

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgPack = "application/x-msgpack"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// wantsMsgPack reports whether MessagePack was requested with format=msgpack
func wantsMsgPack(req *http.Request) bool {
	return req.URL.Query().Get("format") == "msgpack"
}

// WriteResponse writes data with status 200 and any extra headers.
// JSON is the default format. MessagePack is used when format=msgpack is specified
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) error {
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	return f.WriteStatus(w, req, http.StatusOK, data)
}

// WriteStatus writes data with the given status code.
func (f *Formatter) WriteStatus(w http.ResponseWriter, req *http.Request, code int, data any) error {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if wantsMsgPack(req) {
		w.Header().Set("Content-Type", contentTypeMsgPack)
		w.WriteHeader(code)
		return encodeMsgPack(w, data)
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes {"error": msg} with the given status code.
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, code int, msg string) error {
	return f.WriteStatus(w, req, code, map[string]string{"error": msg})
}

// WriteRawJSON writes pre-encoded JSON data with optional wrapper
func (f *Formatter) WriteRawJSON(w http.ResponseWriter, req *http.Request, jsonBytes []byte, wrapper *JSONWrapper) error {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if wantsMsgPack(req) {
		// Need to decode JSON then encode as MessagePack
		var data any
		if err := json.Unmarshal(jsonBytes, &data); err != nil {
			return err
		}
		if wrapper != nil {
			data = map[string]any{
				"lastUpdated": wrapper.LastUpdated,
				"data":        data,
			}
		}
		w.Header().Set("Content-Type", contentTypeMsgPack)
		return encodeMsgPack(w, data)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	if wrapper == nil {
		_, err := w.Write(jsonBytes)
		return err
	}
	lastUpdated, err := json.Marshal(wrapper.LastUpdated)
	if err != nil {
		return err
	}
	for _, part := range [][]byte{[]byte(`{"lastUpdated":`), lastUpdated, []byte(`,"data":`), jsonBytes, []byte("}")} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}

func encodeMsgPack(w http.ResponseWriter, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}

// JSONWrapper is used for wrapping raw JSON data with metadata
type JSONWrapper struct {
	LastUpdated string
}
