package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/outbox/payloads"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertScanFact(ctx context.Context, row types.ScanFactRow) error
	InsertPickListFact(ctx context.Context, row types.PickListFactRow) error
}

// Handler receives an envelope plus its decoded payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

type route struct {
	decode  func(json.RawMessage) (any, error)
	handler Handler
}

// Router dispatches analytics envelopes by event type.
type Router struct {
	routes map[enums.OutboxEventType]route
}

// NewRouter wires the fact handlers. overrides replaces the handler of an
// already routed event type; unknown types are ignored.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	scans := route{
		decode: decodeAs[payloads.ScanRecordedEvent],
		handler: factRoute[payloads.ScanRecordedEvent, types.ScanFactRow]{
			build: buildScanFactRow, insert: writer.InsertScanFact, fields: scanFields, logg: logg,
		},
	}
	created := route{
		decode: decodeAs[payloads.PickListCreatedEvent],
		handler: factRoute[payloads.PickListCreatedEvent, types.PickListFactRow]{
			build: buildCreatedFactRow, insert: writer.InsertPickListFact, fields: createdFields, logg: logg,
		},
	}
	status := route{
		decode: decodeAs[payloads.PickListStatusEvent],
		handler: factRoute[payloads.PickListStatusEvent, types.PickListFactRow]{
			build: buildStatusFactRow, insert: writer.InsertPickListFact, fields: statusFields, logg: logg,
		},
	}
	routes := map[enums.OutboxEventType]route{
		enums.EventScanRecorded:      scans,
		enums.EventPickListCreated:   created,
		enums.EventPickListCompleted: status,
		enums.EventPickListReopened:  status,
		enums.EventPickListCancelled: status,
	}

	for eventType, custom := range overrides {
		r, ok := routes[eventType]
		if !ok || custom == nil {
			continue
		}
		r.handler = custom
		routes[eventType] = r
	}
	return &Router{routes: routes}, nil
}

func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	rt, ok := r.routes[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	payload, err := rt.decode(envelope.Payload)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}
	return rt.handler.Handle(ctx, envelope, payload)
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// factRoute turns one payload type into one fact row.
type factRoute[T, R any] struct {
	build  func(types.Envelope, *T) (R, error)
	insert func(context.Context, R) error
	fields func(types.Envelope, *T) map[string]any
	logg   *logger.Logger
}

func (f factRoute[T, R]) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*T)
	if !ok {
		return fmt.Errorf("unexpected %T payload for %s", payload, envelope.EventType)
	}
	ctx = f.logg.WithFields(ctx, f.fields(envelope, event))

	row, err := f.build(envelope, event)
	if err != nil {
		f.logg.Error(ctx, "failed to build fact row", err)
		return err
	}
	if err := f.insert(ctx, row); err != nil {
		f.logg.Error(ctx, "failed to insert fact row", err)
		return err
	}
	return nil
}
