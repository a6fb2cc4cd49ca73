// account is the bank-account bounded context: a pure state machine
// over multi-asset balances with a transaction-id dedup window, plus the
// read model projected from its events.
package account

import (
	"time"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// AggregateType partitions account streams in the event log.
const AggregateType = eventlog.AggregateType("account")

// Asset names a currency or instrument held on an account.
type Asset string

// Amount is an asset quantity. Always non-negative; overdrafts are a
// domain error, never a negative balance.
type Amount uint64

// TxID is a client-chosen transaction identifier, used to de-duplicate
// money movements that are retried end to end.
type TxID string

// Timestamp is the client-asserted unix time (seconds) of a transaction.
type Timestamp uint64

// DedupTTL is how long a processed TxID is remembered. A duplicate
// within the window is rejected; after the window the id may be reused.
const DedupTTL = Timestamp(30 * 24 * time.Hour / time.Second)

// Status is the lifecycle position of an account.
type Status string

const (
	UNINITIALIZED Status = "uninitialized"
	IN_SERVICE    Status = "in_service"
	DISABLED      Status = "disabled"
	CLOSED        Status = "closed"
)

// Balances maps assets to the amount held.
type Balances map[Asset]Amount

func (b Balances) get(asset Asset) Amount {
	return b[asset]
}

// isEmpty is true when no asset holds a positive amount.
func (b Balances) isEmpty() bool {
	for _, amount := range b {
		if amount > 0 {
			return false
		}
	}
	return true
}

// withAdded returns a copy with amount added to asset.
func (b Balances) withAdded(asset Asset, amount Amount) Balances {
	next := make(Balances, len(b)+1)
	for a, v := range b {
		next[a] = v
	}
	next[asset] += amount
	return next
}

// withSubtracted returns a copy with amount removed from asset. The
// transition guarantees sufficient funds; the floor at zero only keeps
// replay total in the face of a corrupt stream.
func (b Balances) withSubtracted(asset Asset, amount Amount) Balances {
	next := make(Balances, len(b))
	for a, v := range b {
		next[a] = v
	}
	if next[asset] <= amount {
		delete(next, asset)
	} else {
		next[asset] -= amount
	}
	return next
}

// processedTx is one remembered transaction id.
type processedTx struct {
	TxID TxID      `json:"txid"`
	At   Timestamp `json:"at"`
}

// ProcessedTransactions is the dedup window: every applied transaction
// id with its timestamp, evicted in arrival order once older than TTL.
type ProcessedTransactions struct {
	TTL   Timestamp          `json:"ttl"`
	ByID  map[TxID]Timestamp `json:"by_id"`
	Order []processedTx      `json:"order"`
}

// NewProcessedTransactions returns an empty window with the given TTL.
func NewProcessedTransactions(ttl Timestamp) ProcessedTransactions {
	return ProcessedTransactions{TTL: ttl, ByID: map[TxID]Timestamp{}}
}

// Seen returns when txid was processed, if it is still in the window.
func (p ProcessedTransactions) Seen(txid TxID) (Timestamp, bool) {
	at, ok := p.ByID[txid]
	return at, ok
}

// WithInserted returns a copy of the window with txid recorded at the
// given time, evicting entries that have aged past the TTL.
func (p ProcessedTransactions) WithInserted(txid TxID, at Timestamp) ProcessedTransactions {
	next := ProcessedTransactions{
		TTL:   p.TTL,
		ByID:  make(map[TxID]Timestamp, len(p.ByID)+1),
		Order: make([]processedTx, 0, len(p.Order)+1),
	}
	for id, ts := range p.ByID {
		next.ByID[id] = ts
	}
	next.Order = append(next.Order, p.Order...)

	next.ByID[txid] = at
	next.Order = append(next.Order, processedTx{TxID: txid, At: at})

	for len(next.Order) > 0 {
		oldest := next.Order[0]
		if oldest.At+next.TTL >= at {
			break
		}
		delete(next.ByID, oldest.TxID)
		next.Order = next.Order[1:]
	}
	return next
}

// WithForgotten returns a copy of the window without txid.
func (p ProcessedTransactions) WithForgotten(txid TxID) ProcessedTransactions {
	next := ProcessedTransactions{
		TTL:  p.TTL,
		ByID: make(map[TxID]Timestamp, len(p.ByID)),
	}
	for id, ts := range p.ByID {
		if id != txid {
			next.ByID[id] = ts
		}
	}
	next.Order = make([]processedTx, 0, len(p.Order))
	for _, entry := range p.Order {
		if entry.TxID != txid {
			next.Order = append(next.Order, entry)
		}
	}
	return next
}

// Account is the aggregate state: lifecycle status, balances and the
// dedup window, all rebuilt transiently by replay. It is threaded by
// value through load → transition → append and never shared across
// suspension points.
type Account struct {
	ID        eventlog.ID           `json:"id"`
	Status    Status                `json:"status"`
	Balances  Balances              `json:"balances"`
	Processed ProcessedTransactions `json:"processed"`
}
