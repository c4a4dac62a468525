// Package protocol is kbsearch's message boundary: newline-delimited JSON
// messages exchanged with a UI over stdio or a socket.
//
//	{"type":"search","payload":{"term":"foo","repositoryPath":"/notes"}}
//	{"type":"searchResults","payload":{"term":"foo","results":[...]}}
//	{"type":"openResult","payload":{"filePath":"/notes/a.md","lineNumber":3,...}}
//	{"type":"error","payload":{"message":"unknown message type \"x\""}}
//
// Every request is handled independently. Overlapping searches are not
// superseded; a client that types quickly should debounce before sending.
package protocol

import (
	"context"
	"encoding/json"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// Message types.
const (
	TypeSearch        = "search"
	TypeSearchResults = "searchResults"
	TypeOpenResult    = "openResult"
	TypeError         = "error"
)

// Message is one line on the wire.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the payload of an error message.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Searcher runs searches. *search.Engine implements it.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (search.Response, error)
}

// Opener opens a result for the user, e.g. in an editor.
type Opener interface {
	Open(ctx context.Context, result search.MatchResult) error
}

// Repositories supplies the configured roots an openResult path must lie
// under. *config.Store implements it.
type Repositories interface {
	Snapshot() config.Snapshot
}

// decodePayload decodes raw into v. A missing payload leaves v unchanged.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
