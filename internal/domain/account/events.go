package account

import (
	"encoding/json"
	"fmt"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// Event is the closed union of facts an account can emit. Events are
// persisted as self-describing JSON tagged with their type name, so
// every variant ever emitted must stay decodable indefinitely: evolve
// the schema by adding new types, never by changing existing payloads.
type Event interface {
	isEvent()
}

type Opened struct {
	AccountID eventlog.ID `json:"account_id"`
}

type Disabled struct{}

type Enabled struct{}

type Closed struct{}

type Deposited struct {
	TxID      TxID      `json:"txid"`
	Timestamp Timestamp `json:"timestamp"`
	Asset     Asset     `json:"asset"`
	Amount    Amount    `json:"amount"`
}

type Withdrew struct {
	TxID      TxID      `json:"txid"`
	Timestamp Timestamp `json:"timestamp"`
	Asset     Asset     `json:"asset"`
	Amount    Amount    `json:"amount"`
}

type Debited struct {
	TxID      TxID        `json:"txid"`
	Timestamp Timestamp   `json:"timestamp"`
	ToAccount eventlog.ID `json:"to_account"`
	Asset     Asset       `json:"asset"`
	Amount    Amount      `json:"amount"`
}

type DebitReversed struct {
	TxID         TxID        `json:"txid"`
	OriginalTxID TxID        `json:"original_txid"`
	Timestamp    Timestamp   `json:"timestamp"`
	ToAccount    eventlog.ID `json:"to_account"`
	Asset        Asset       `json:"asset"`
	Amount       Amount      `json:"amount"`
}

type Credited struct {
	TxID        TxID        `json:"txid"`
	Timestamp   Timestamp   `json:"timestamp"`
	FromAccount eventlog.ID `json:"from_account"`
	Asset       Asset       `json:"asset"`
	Amount      Amount      `json:"amount"`
}

type CreditReversed struct {
	TxID         TxID        `json:"txid"`
	OriginalTxID TxID        `json:"original_txid"`
	Timestamp    Timestamp   `json:"timestamp"`
	FromAccount  eventlog.ID `json:"from_account"`
	Asset        Asset       `json:"asset"`
	Amount       Amount      `json:"amount"`
}

func (Opened) isEvent()         {}
func (Disabled) isEvent()       {}
func (Enabled) isEvent()        {}
func (Closed) isEvent()         {}
func (Deposited) isEvent()      {}
func (Withdrew) isEvent()       {}
func (Debited) isEvent()        {}
func (DebitReversed) isEvent()  {}
func (Credited) isEvent()       {}
func (CreditReversed) isEvent() {}

// Wire names for each event type. These are part of the stored data and
// must never be renamed.
const (
	TypeAccountOpened   = "AccountOpened"
	TypeAccountDisabled = "AccountDisabled"
	TypeAccountEnabled  = "AccountEnabled"
	TypeAccountClosed   = "AccountClosed"
	TypeDeposited       = "Deposited"
	TypeWithdrew        = "Withdrew"
	TypeDebited         = "Debited"
	TypeDebitReversed   = "DebitReversed"
	TypeCredited        = "Credited"
	TypeCreditReversed  = "CreditReversed"
)

// Codec implements eventlog.EventCodec for the account event union.
type Codec struct{}

func (Codec) EventType(event Event) string {
	switch event.(type) {
	case Opened:
		return TypeAccountOpened
	case Disabled:
		return TypeAccountDisabled
	case Enabled:
		return TypeAccountEnabled
	case Closed:
		return TypeAccountClosed
	case Deposited:
		return TypeDeposited
	case Withdrew:
		return TypeWithdrew
	case Debited:
		return TypeDebited
	case DebitReversed:
		return TypeDebitReversed
	case Credited:
		return TypeCredited
	case CreditReversed:
		return TypeCreditReversed
	default:
		// New variants must be added here before they can be emitted.
		panic(fmt.Sprintf("unnamed account event %T", event))
	}
}

func (Codec) MarshalEvent(event Event) (json.RawMessage, error) {
	return json.Marshal(event)
}

func (Codec) UnmarshalEvent(eventType string, payload json.RawMessage) (Event, error) {
	switch eventType {
	case TypeAccountOpened:
		return decode[Opened](payload)
	case TypeAccountDisabled:
		return decode[Disabled](payload)
	case TypeAccountEnabled:
		return decode[Enabled](payload)
	case TypeAccountClosed:
		return decode[Closed](payload)
	case TypeDeposited:
		return decode[Deposited](payload)
	case TypeWithdrew:
		return decode[Withdrew](payload)
	case TypeDebited:
		return decode[Debited](payload)
	case TypeDebitReversed:
		return decode[DebitReversed](payload)
	case TypeCredited:
		return decode[Credited](payload)
	case TypeCreditReversed:
		return decode[CreditReversed](payload)
	default:
		return nil, fmt.Errorf("unknown account event type [%v]", eventType)
	}
}

func decode[E Event](payload json.RawMessage) (Event, error) {
	var event E
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return event, nil
}

// StateCodec serializes Account state for snapshots.
type StateCodec struct{}

func (StateCodec) MarshalState(state Account) (json.RawMessage, error) {
	return json.Marshal(state)
}

func (StateCodec) UnmarshalState(id eventlog.ID, data json.RawMessage) (Account, error) {
	var state Account
	if err := json.Unmarshal(data, &state); err != nil {
		return Account{}, err
	}
	return state, nil
}
