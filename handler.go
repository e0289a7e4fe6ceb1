package eventproc

import (
	"context"
	"encoding/json"
	"reflect"
)

// Handler processes one request event and returns either a success payload
// or an error.
//
// Business failures should be returned as *Error so the response carries
// the intended tag and code. Any other error is reported as a generic
// failure. A handler that panics is not recovered.
//
// Example:
//
//	type CreateOrder struct {
//	    orders OrderService
//	}
//
//	func (h *CreateOrder) Handle(ctx context.Context, req eventproc.Event) (any, error) {
//	    id, err := h.orders.Create(ctx, req.Payload)
//	    if errors.Is(err, ErrOutOfStock) {
//	        return nil, eventproc.ResourceDenied("OUT_OF_STOCK", nil)
//	    }
//	    if err != nil {
//	        return nil, err
//	    }
//	    return map[string]string{"orderId": id}, nil
//	}
type Handler interface {
	Handle(ctx context.Context, req Event) (any, error)
}

// HandlerFunc is a function adapter for Handler. Use for simple handlers
// that don't need a struct:
//
//	table.Register("ping", 1, eventproc.HandlerFunc(func(ctx context.Context, req eventproc.Event) (any, error) {
//	    return "pong", nil
//	}))
type HandlerFunc func(ctx context.Context, req Event) (any, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req Event) (any, error) {
	return f(ctx, req)
}

// validatable is the interface for payload validation.
// Compatible with github.com/go-ozzo/ozzo-validation/v4.
type validatable interface {
	Validate() error
}

// Typed adapts a function taking a decoded payload to the Handler interface.
//
// The request payload is unmarshaled into T. If that fails the handler
// returns a badRequest error with code INVALID_PAYLOAD. If T or *T
// implements Validate() error and validation fails, the handler returns a
// badRequest error with code PAYLOAD_VALIDATION_FAILED, or the validation
// error itself when it already is an *Error.
//
// Example:
//
//	type CreateOrderInput struct {
//	    SKU      string `json:"sku"`
//	    Quantity int    `json:"quantity"`
//	}
//
//	table.Register("order:create", 1, eventproc.Typed(
//	    func(ctx context.Context, req eventproc.Event, in CreateOrderInput) (*Order, error) {
//	        return orders.Create(ctx, in)
//	    },
//	))
func Typed[T, R any](fn func(ctx context.Context, req Event, in T) (R, error)) Handler {
	return HandlerFunc(func(ctx context.Context, req Event) (any, error) {
		var in T
		if err := json.Unmarshal(req.Payload, &in); err != nil {
			return nil, BadRequest("INVALID_PAYLOAD", map[string]any{"message": err.Error()})
		}
		if isNilPointer(in) {
			return nil, BadRequest("INVALID_PAYLOAD", map[string]any{"message": "payload must not be null"})
		}

		if err := validate(&in); err != nil {
			if e, ok := AsError(err); ok {
				return nil, e
			}
			return nil, BadRequest("PAYLOAD_VALIDATION_FAILED", map[string]any{"message": err.Error()})
		}

		return fn(ctx, req, in)
	})
}

func validate[T any](in *T) error {
	if v, ok := any(*in).(validatable); ok {
		return v.Validate()
	}
	if v, ok := any(in).(validatable); ok {
		return v.Validate()
	}
	return nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
