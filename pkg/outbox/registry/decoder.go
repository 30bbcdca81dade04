package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/angelmondragon/stn-picking/pkg/outbox/payloads"
)

// DecodeFunc turns a raw envelope data field into a typed payload.
type DecodeFunc func(payload json.RawMessage) (any, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]DecodeFunc
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]DecodeFunc)}
}

// NewConsumerDecoders registers the v1 payloads of every event a consumer can receive.
func NewConsumerDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventScanRecorded, 1, decodeInto(func() any { return &payloads.ScanRecordedEvent{} }))
	reg.Register(enums.EventPickListCreated, 1, decodeInto(func() any { return &payloads.PickListCreatedEvent{} }))
	for _, eventType := range []enums.OutboxEventType{
		enums.EventPickListCompleted,
		enums.EventPickListReopened,
		enums.EventPickListCancelled,
	} {
		reg.Register(eventType, 1, decodeInto(func() any { return &payloads.PickListStatusEvent{} }))
	}
	return reg
}

func decodeInto(factory func() any) DecodeFunc {
	return func(payload json.RawMessage) (any, error) {
		target := factory()
		if err := json.Unmarshal(payload, target); err != nil {
			return nil, err
		}
		return target, nil
	}
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder DecodeFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

// Decode runs the decoder registered for the event type and version.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error) {
	r.mtx.RLock()
	decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decoder(payload)
}
