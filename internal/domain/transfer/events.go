package transfer

import (
	"encoding/json"
	"fmt"

	"github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// Event is the closed union of facts a transfer can emit.
type Event interface {
	isEvent()
}

type Opened struct {
	Config Config `json:"config"`
}

type Completed struct {
	Timestamp account.Timestamp `json:"timestamp"`
}

type Failed struct {
	Reason    string            `json:"reason"`
	Timestamp account.Timestamp `json:"timestamp"`
}

type Canceled struct {
	Reason string `json:"reason"`
}

func (Opened) isEvent()    {}
func (Completed) isEvent() {}
func (Failed) isEvent()    {}
func (Canceled) isEvent()  {}

// Wire names; part of the stored data, never renamed.
const (
	TypeOpened    = "TransferOpened"
	TypeCompleted = "TransferCompleted"
	TypeFailed    = "TransferFailed"
	TypeCanceled  = "TransferCanceled"
)

// Codec implements eventlog.EventCodec for the transfer event union.
type Codec struct{}

func (Codec) EventType(event Event) string {
	switch event.(type) {
	case Opened:
		return TypeOpened
	case Completed:
		return TypeCompleted
	case Failed:
		return TypeFailed
	case Canceled:
		return TypeCanceled
	default:
		panic(fmt.Sprintf("unnamed transfer event %T", event))
	}
}

func (Codec) MarshalEvent(event Event) (json.RawMessage, error) {
	return json.Marshal(event)
}

func (Codec) UnmarshalEvent(eventType string, payload json.RawMessage) (Event, error) {
	switch eventType {
	case TypeOpened:
		return decode[Opened](payload)
	case TypeCompleted:
		return decode[Completed](payload)
	case TypeFailed:
		return decode[Failed](payload)
	case TypeCanceled:
		return decode[Canceled](payload)
	default:
		return nil, fmt.Errorf("unknown transfer event type [%v]", eventType)
	}
}

func decode[E Event](payload json.RawMessage) (Event, error) {
	var event E
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return event, nil
}

// StateCodec serializes Transfer state for snapshots.
type StateCodec struct{}

func (StateCodec) MarshalState(state Transfer) (json.RawMessage, error) {
	return json.Marshal(state)
}

func (StateCodec) UnmarshalState(id eventlog.ID, data json.RawMessage) (Transfer, error) {
	var state Transfer
	if err := json.Unmarshal(data, &state); err != nil {
		return Transfer{}, err
	}
	return state, nil
}
