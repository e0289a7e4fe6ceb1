// Package eventproc routes versioned request events to handlers and turns
// every outcome into a response event of the same shape.
//
// An event is a JSON object with a name, a version, a message id, a flow id,
// an opaque payload and three opaque side-channel fields:
//
//	{
//	    "name": "order:create",
//	    "version": 1,
//	    "id": "f467e03c-abab-4c2f-b4cf-4871fd349c6e",
//	    "flowId": "cb745ef4-863b-41c4-99c7-325fe2b2b7f8",
//	    "payload": {"sku": "A-1", "quantity": 2},
//	    "identity": {},
//	    "auth": {},
//	    "metadata": {}
//	}
//
// The package performs no I/O. A transport (HTTP, queue consumer, socket
// server) hands raw bytes to Processor.Process and ships the returned event
// onward.
//
// # Quick Start
//
// Register handlers in a Table and build a Processor over it:
//
//	table := eventproc.NewTable()
//
//	table.Register("order:create", 1, eventproc.HandlerFunc(
//	    func(ctx context.Context, req eventproc.Event) (any, error) {
//	        return map[string]string{"status": "created"}, nil
//	    },
//	))
//
//	p := eventproc.New(table)
//
//	res := p.Process(ctx, rawMessageBytes)
//	out, err := json.Marshal(res)
//
// # Response Names
//
// The response keeps the request's version, id and flowId. Its name tells
// the outcome:
//
//   - "{name}:response": the handler succeeded; payload is its result
//   - "{name}:{tag}": the handler returned an error of that tag
//   - "eventNotFound": no handler is registered for (name, version)
//   - "badProtocol": the input could not be decoded; id and flowId are new
//
// Event names may contain ':' themselves. The outcome is always the suffix
// after the LAST ':', which is what SplitName, Event.IsSuccess and
// ExtractError use:
//
//	res := p.Process(ctx, raw)
//	if res.IsError() {
//	    e := eventproc.ExtractError(res)
//	    log.Printf("failed: %s (%s)", e.Tag(), e.Code())
//	}
//
// # Errors
//
// Handlers report business failures as *Error values. Eight kinds are
// well known, each with its wire tag:
//
//	KindGeneric         "error"
//	KindBadRequest      "badRequest"
//	KindUnauthorized    "unauthorized"
//	KindNotFound        "notFound"
//	KindForbidden       "forbidden"
//	KindUserDenied      "userDenied"
//	KindResourceDenied  "resourceDenied"
//	KindExpired         "expired"
//
// Any other tag is accepted through NewError and kept verbatim as
// KindUnknown, so services can extend the taxonomy without changing this
// package:
//
//	return nil, eventproc.NewError("quotaExceeded", eventproc.ErrorDetail{
//	    Code:       "MONTHLY_QUOTA",
//	    Parameters: map[string]int{"limit": 100},
//	})
//
// An error that is not an *Error becomes a generic failure with code
// INTERNAL_ERROR. Panics are not recovered: they signal a defect, not a
// business condition.
//
// # Handlers
//
// Handlers implement a single method:
//
//	type Handler interface {
//	    Handle(ctx context.Context, req Event) (any, error)
//	}
//
// Typed decodes the payload into a struct first and validates it when the
// struct implements Validate() error:
//
//	table.Register("order:create", 1, eventproc.Typed(
//	    func(ctx context.Context, req eventproc.Event, in CreateOrderInput) (*Order, error) {
//	        return orders.Create(ctx, in)
//	    },
//	))
//
// # Hooks
//
// Hooks provide observability without coupling to specific logging or
// metrics systems:
//
//	p := eventproc.New(table,
//	    eventproc.WithOnDecode(func(ctx context.Context, req eventproc.Event) context.Context {
//	        return logx.WithCtx(ctx, slog.String("flow_id", req.FlowID.String()))
//	    }),
//	    eventproc.WithOnFailure(func(ctx context.Context, name string, version uint16, err *eventproc.Error, d time.Duration) {
//	        metrics.Incr("event.failure", "tag:"+err.Tag())
//	    }),
//	)
//
// Available hooks:
//   - WithOnDecode: Called after decoding, enriches context
//   - WithOnDispatch: Called just before the handler executes
//   - WithOnSuccess: Called after the handler succeeds
//   - WithOnFailure: Called after the handler fails
//   - WithOnNotFound: Called when no handler is registered
//   - WithOnBadProtocol: Called when the input cannot be decoded or a
//     transport rejects it through Processor.Reject
//
// WithLogger installs a set of log/slog hooks.
//
// # Thread Safety
//
// Processor and Table are safe for concurrent use. Handlers run on the
// calling goroutine with no timeout; bounding them is the transport's job.
package eventproc
