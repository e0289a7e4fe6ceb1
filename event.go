package eventproc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	separator      = ":"
	responseSuffix = "response"
)

var errSuccessEnvelope = errors.New("eventproc: cannot extract an error from a success response")

// Event is the envelope shared by requests and responses.
//
// Name and Version form the routing key. ID identifies this message; FlowID
// correlates a chain of related messages. Responses echo both from their
// request. Payload, Identity, Auth and Metadata are opaque to the processor.
type Event struct {
	Name     string          `json:"name"`
	Version  uint16          `json:"version"`
	ID       uuid.UUID       `json:"id"`
	FlowID   uuid.UUID       `json:"flowId"`
	Payload  json.RawMessage `json:"payload"`
	Identity json.RawMessage `json:"identity"`
	Auth     json.RawMessage `json:"auth"`
	Metadata json.RawMessage `json:"metadata"`
}

// IsSuccess reports whether e is a success response, i.e. its name ends
// with ":response".
func (e Event) IsSuccess() bool {
	return strings.HasSuffix(e.Name, separator+responseSuffix)
}

// IsError reports whether e is an error response. It is the negation of
// IsSuccess.
func (e Event) IsError() bool {
	return !e.IsSuccess()
}

// Decode parses raw into a request event.
//
// raw must be a single JSON object carrying name, version, id, flowId,
// payload, identity, auth and metadata. Keys match exactly and unknown keys
// are ignored. A missing or repeated field, a field of the wrong type, a
// malformed UUID or a version outside the uint16 range is reported as a
// *DecodeError.
func Decode(raw []byte) (Event, error) {
	view, err := JSONInspector().Inspect(raw)
	if err != nil {
		return Event{}, &DecodeError{err: err}
	}
	if err := envelopeShape.Check(view); err != nil {
		return Event{}, &DecodeError{err: err}
	}

	e, err := eventFromView(view)
	if err != nil {
		return Event{}, &DecodeError{err: err}
	}
	return e, nil
}

// eventFromView reads the fields envelopeShape has checked, so the values
// routed on are the values that were validated.
func eventFromView(v View) (Event, error) {
	var e Event
	e.Name, _ = v.GetString("name")

	rawVersion, _ := v.GetBytes("version")
	version, err := strconv.ParseUint(string(rawVersion), 10, 16)
	if err != nil {
		return Event{}, fmt.Errorf("%w: field `version` expected an integer between 0 and 65535, found %s", ErrFieldType, rawVersion)
	}
	e.Version = uint16(version)

	if e.ID, err = uuidField(v, "id"); err != nil {
		return Event{}, err
	}
	if e.FlowID, err = uuidField(v, "flowId"); err != nil {
		return Event{}, err
	}

	e.Payload, _ = v.GetBytes("payload")
	e.Identity, _ = v.GetBytes("identity")
	e.Auth, _ = v.GetBytes("auth")
	e.Metadata, _ = v.GetBytes("metadata")
	return e, nil
}

func uuidField(v View, path string) (uuid.UUID, error) {
	s, _ := v.GetString(path)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid value: field `%s`: %w", path, err)
	}
	return id, nil
}

// Respond builds the success response for req. The payload is marshaled to
// JSON; a json.RawMessage is used as is.
//
// Example:
//
//	res, err := eventproc.Respond(req, map[string]string{"status": "ok"})
func Respond(req Event, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal response payload: %w", err)
	}
	return reply(req, ResponseName(req.Name), body), nil
}

// ExtractError rebuilds the *Error carried by an error response: the tag is
// the suffix after the last ':' of the name, the detail comes from
// payload.code and payload.parameters.
//
// ExtractError panics if e is a success response. Callers must check
// IsError first.
func ExtractError(e Event) *Error {
	if e.IsSuccess() {
		panic(errSuccessEnvelope)
	}

	_, tag := SplitName(e.Name)

	var detail ErrorDetail
	if view, err := JSONInspector().Inspect(e.Payload); err == nil {
		detail.Code, _ = view.GetString("code")
		if raw, ok := view.GetBytes("parameters"); ok {
			detail.Parameters = json.RawMessage(raw)
		}
	}
	return NewError(tag, detail)
}

// ResponseName returns the success response name for an event name.
func ResponseName(name string) string {
	return name + separator + responseSuffix
}

// ErrorName returns the error response name for an event name and error tag.
func ErrorName(name, tag string) string {
	return name + separator + tag
}

// SplitName splits a response name at its last ':' into the request event
// name and the suffix. Event names may contain ':' themselves, so
// SplitName("a:b:c:notFound") returns ("a:b:c", "notFound"). A name with no
// ':' is all suffix.
func SplitName(name string) (event, suffix string) {
	i := strings.LastIndex(name, separator)
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+len(separator):]
}

func reply(req Event, name string, payload json.RawMessage) Event {
	return Event{
		Name:     name,
		Version:  req.Version,
		ID:       req.ID,
		FlowID:   req.FlowID,
		Payload:  payload,
		Identity: emptyObject(),
		Auth:     emptyObject(),
		Metadata: emptyObject(),
	}
}

func emptyObject() json.RawMessage {
	return json.RawMessage(`{}`)
}
