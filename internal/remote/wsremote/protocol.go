// Package wsremote exposes a remote.Collection over a websocket and
// provides a client that implements remote.Collection against it.
//
// Every message is one JSON Frame in a text message. Requests carry a
// UUID in ID; the server answers each with an OpResult frame using the
// same ID. A subscription is identified by the ID of its OpSubscribe
// request; pushed snapshots and subscription errors carry that ID.
package wsremote

import (
	"errors"
	"fmt"

	"github.com/xolan/outreach/internal/entry"
)

// Path is the route of the collection endpoint.
const Path = "/v1/collection"

// Operations.
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpCreate      = "create"
	OpGet         = "get"
	OpUpdate      = "update"
	OpDelete      = "delete"

	OpResult   = "result"
	OpSnapshot = "snapshot"
	OpError    = "error"
)

// Error codes.
const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeNetwork    = "network"
	CodeBadRequest = "bad_request"
	CodeInternal   = "internal"
)

// Frame is the single message type in both directions.
type Frame struct {
	ID      string        `json:"id,omitempty"`
	Op      string        `json:"op"`
	Owner   string        `json:"owner,omitempty"`
	EntryID string        `json:"entry_id,omitempty"`
	Entry   *entry.Entry  `json:"entry,omitempty"`
	Patch   *entry.Patch  `json:"patch,omitempty"`
	Entries []entry.Entry `json:"entries,omitempty"`
	Error   *ErrorBody    `json:"error,omitempty"`
}

// ErrorBody describes a failed request or subscription.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// RemoteError is an error reported by the server that has no local
// counterpart.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s", e.Code, e.Message)
}

func encodeError(err error) *ErrorBody {
	var ve *entry.ValidationError
	switch {
	case errors.As(err, &ve):
		return &ErrorBody{Code: CodeValidation, Message: ve.Reason, Field: ve.Field}
	case errors.Is(err, entry.ErrNotFound):
		return &ErrorBody{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, entry.ErrNetwork):
		return &ErrorBody{Code: CodeNetwork, Message: err.Error()}
	default:
		return &ErrorBody{Code: CodeInternal, Message: err.Error()}
	}
}

// decodeError maps body back onto the entry error taxonomy.
func decodeError(op, id string, body *ErrorBody) error {
	if body == nil {
		return nil
	}
	switch body.Code {
	case CodeValidation:
		return entry.Invalid(body.Field, body.Message)
	case CodeNotFound:
		return entry.NotFound(id)
	case CodeNetwork:
		return entry.Network(op, errors.New(body.Message))
	default:
		return &RemoteError{Code: body.Code, Message: body.Message}
	}
}
