package eventproc

import (
	"context"
	"time"
)

// OnDecodeFunc is called after a request decodes successfully.
// Use this to enrich the context with logging fields or trace spans.
// The returned context is used for the rest of the request.
type OnDecodeFunc func(ctx context.Context, req Event) context.Context

// OnDispatchFunc is called just before the handler executes.
type OnDispatchFunc func(ctx context.Context, name string, version uint16)

// OnSuccessFunc is called after the handler completes successfully.
type OnSuccessFunc func(ctx context.Context, name string, version uint16, duration time.Duration)

// OnFailureFunc is called after the handler returns an error. err is the
// normalized *Error carried by the response.
type OnFailureFunc func(ctx context.Context, name string, version uint16, err *Error, duration time.Duration)

// OnBadProtocolFunc is called when raw input cannot be decoded.
type OnBadProtocolFunc func(ctx context.Context, raw []byte, err error)

// OnNotFoundFunc is called when no handler is registered for the event.
type OnNotFoundFunc func(ctx context.Context, name string, version uint16)

// hooks holds all configured hook functions.
type hooks struct {
	onDecode      []OnDecodeFunc
	onDispatch    []OnDispatchFunc
	onSuccess     []OnSuccessFunc
	onFailure     []OnFailureFunc
	onBadProtocol []OnBadProtocolFunc
	onNotFound    []OnNotFoundFunc
}

// WithOnDecode adds a hook called after a request decodes successfully.
// Multiple hooks are called in order, with context chaining through each.
//
// Example:
//
//	eventproc.WithOnDecode(func(ctx context.Context, req eventproc.Event) context.Context {
//	    return logx.WithCtx(ctx, slog.String("flow_id", req.FlowID.String()))
//	})
func WithOnDecode(fn OnDecodeFunc) Option {
	return func(p *Processor) {
		p.hooks.onDecode = append(p.hooks.onDecode, fn)
	}
}

// WithOnDispatch adds a hook called just before the handler executes.
// Multiple hooks are called in order.
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(p *Processor) {
		p.hooks.onDispatch = append(p.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after the handler completes successfully.
// Multiple hooks are called in order.
//
// Example:
//
//	eventproc.WithOnSuccess(func(ctx context.Context, name string, version uint16, d time.Duration) {
//	    metrics.Timing("event.success", d, "event:"+name)
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(p *Processor) {
		p.hooks.onSuccess = append(p.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after the handler returns an error.
// Multiple hooks are called in order.
func WithOnFailure(fn OnFailureFunc) Option {
	return func(p *Processor) {
		p.hooks.onFailure = append(p.hooks.onFailure, fn)
	}
}

// WithOnBadProtocol adds a hook called when raw input cannot be decoded.
// Multiple hooks are called in order.
func WithOnBadProtocol(fn OnBadProtocolFunc) Option {
	return func(p *Processor) {
		p.hooks.onBadProtocol = append(p.hooks.onBadProtocol, fn)
	}
}

// WithOnNotFound adds a hook called when no handler is registered for the
// event. Multiple hooks are called in order.
func WithOnNotFound(fn OnNotFoundFunc) Option {
	return func(p *Processor) {
		p.hooks.onNotFound = append(p.hooks.onNotFound, fn)
	}
}

func (h *hooks) callOnDecode(ctx context.Context, req Event) context.Context {
	for _, fn := range h.onDecode {
		ctx = fn(ctx, req)
	}
	return ctx
}

func (h *hooks) callOnDispatch(ctx context.Context, name string, version uint16) {
	for _, fn := range h.onDispatch {
		fn(ctx, name, version)
	}
}

func (h *hooks) callOnSuccess(ctx context.Context, name string, version uint16, d time.Duration) {
	for _, fn := range h.onSuccess {
		fn(ctx, name, version, d)
	}
}

func (h *hooks) callOnFailure(ctx context.Context, name string, version uint16, err *Error, d time.Duration) {
	for _, fn := range h.onFailure {
		fn(ctx, name, version, err, d)
	}
}

func (h *hooks) callOnBadProtocol(ctx context.Context, raw []byte, err error) {
	for _, fn := range h.onBadProtocol {
		fn(ctx, raw, err)
	}
}

func (h *hooks) callOnNotFound(ctx context.Context, name string, version uint16) {
	for _, fn := range h.onNotFound {
		fn(ctx, name, version)
	}
}
