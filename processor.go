package eventproc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Names and codes of the responses the processor builds on its own.
const (
	BadProtocolName   = "badProtocol"
	EventNotFoundName = "eventNotFound"

	CodeInvalidProtocol = "INVALID_COMMUNICATION_PROTOCOL"
	CodeNoHandler       = "NO_EVENT_HANDLER_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE_PAYLOAD"
)

// Option configures a Processor.
type Option func(*Processor)

// Processor turns raw request bytes into exactly one response event.
//
// Usage:
//  1. Build a Table and register handlers
//  2. Create a processor with New
//  3. Call Process for every inbound message
//
// Processor holds no per-request state. It is safe for concurrent use when
// its Store and hooks are.
type Processor struct {
	store Store
	hooks hooks
	newID func() uuid.UUID
}

// New creates a Processor that resolves handlers from store.
//
// Example:
//
//	table := eventproc.NewTable()
//	table.Register("order:create", 1, &CreateOrderHandler{db: db})
//
//	p := eventproc.New(table,
//	    eventproc.WithLogger(logger),
//	    eventproc.WithOnSuccess(func(ctx context.Context, name string, version uint16, d time.Duration) {
//	        metrics.Timing("event.success", d)
//	    }),
//	)
func New(store Store, opts ...Option) *Processor {
	p := &Processor{
		store: store,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithIDGenerator sets the function used to generate id and flowId for
// responses that have no request to echo them from.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(p *Processor) {
		p.newID = fn
	}
}

// Process decodes raw, routes it to the registered handler and returns the
// response. It never fails: every outcome is encoded in the returned event.
//
// The processing flow:
//  1. Decode raw; on failure return a badProtocol response
//  2. Resolve the handler by (name, version); on a miss return an
//     eventNotFound response
//  3. Call the handler
//  4. Build a "{name}:response" event from the payload, or a
//     "{name}:{tag}" event from the error
//
// The handler runs on the caller's goroutine with the caller's context.
// Process adds no timeout and does not recover panics.
//
// Example:
//
//	func (c *Consumer) handle(ctx context.Context, body []byte) ([]byte, error) {
//	    return json.Marshal(c.processor.Process(ctx, body))
//	}
func (p *Processor) Process(ctx context.Context, raw []byte) Event {
	req, err := Decode(raw)
	if err != nil {
		return p.Reject(ctx, raw, err)
	}

	ctx = p.hooks.callOnDecode(ctx, req)

	handler, found := p.store.Resolve(req.Name, req.Version)
	if !found {
		p.hooks.callOnNotFound(ctx, req.Name, req.Version)
		return EventNotFound(req)
	}

	p.hooks.callOnDispatch(ctx, req.Name, req.Version)

	start := time.Now()
	payload, err := handler.Handle(ctx, req)
	duration := time.Since(start)

	if err == nil {
		res, rerr := Respond(req, payload)
		if rerr == nil {
			p.hooks.callOnSuccess(ctx, req.Name, req.Version, duration)
			return res
		}
		err = GenericError(CodeInvalidResponse, messageParams(rerr))
	}

	e := normalize(err)
	p.hooks.callOnFailure(ctx, req.Name, req.Version, e, duration)
	return ErrorFor(req, e)
}

// Reject answers input a transport could not hand to Process, such as a body
// over its size limit, with a badProtocol response. It runs the OnBadProtocol
// hooks and takes its ids from the processor's generator, so these
// rejections are logged and counted like decode failures.
func (p *Processor) Reject(ctx context.Context, raw []byte, err error) Event {
	p.hooks.callOnBadProtocol(ctx, raw, err)
	return badProtocol(p.newID(), p.newID(), err)
}

// BadProtocol builds the response for input that could not be decoded. It
// has fresh ids since there is no request to echo.
func BadProtocol(err error) Event {
	return badProtocol(uuid.New(), uuid.New(), err)
}

func badProtocol(id, flowID uuid.UUID, err error) Event {
	return Event{
		Name:    BadProtocolName,
		Version: 1,
		ID:      id,
		FlowID:  flowID,
		Payload: marshalDetail(ErrorDetail{
			Code:       CodeInvalidProtocol,
			Parameters: messageParams(err),
		}),
		Identity: emptyObject(),
		Auth:     emptyObject(),
		Metadata: emptyObject(),
	}
}

// EventNotFound builds the response for a request no handler is registered
// for.
func EventNotFound(req Event) Event {
	res := reply(req, EventNotFoundName, marshalDetail(ErrorDetail{
		Code: CodeNoHandler,
		Parameters: map[string]any{
			"event":   req.Name,
			"version": req.Version,
		},
	}))
	res.Version = 1
	return res
}

// ErrorFor builds the error response "{req.Name}:{e.Tag()}" for req.
func ErrorFor(req Event, e *Error) Event {
	return reply(req, ErrorName(req.Name, e.Tag()), marshalDetail(e.Detail()))
}

// normalize returns the *Error in err's chain, or wraps a plain error as a
// generic failure.
func normalize(err error) *Error {
	if e, ok := AsError(err); ok {
		if e == nil {
			// typed nil *Error
			return GenericError(CodeInternalError, nil)
		}
		return e
	}
	return GenericError(CodeInternalError, messageParams(err))
}

// marshalDetail encodes d, falling back to a message parameter when the
// handler supplied parameters that cannot be encoded.
func marshalDetail(d ErrorDetail) json.RawMessage {
	body, err := json.Marshal(d)
	if err != nil {
		body, _ = json.Marshal(ErrorDetail{Code: d.Code, Parameters: messageParams(err)})
	}
	return body
}

func messageParams(err error) map[string]string {
	return map[string]string{"message": err.Error()}
}
