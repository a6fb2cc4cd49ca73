// transfer is the money-transfer bounded context: a small state machine
// recording the outcome of moving funds between two accounts, plus the
// process that drives the account-level debit and credit legs with
// compensation.
package transfer

import (
	"github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// AggregateType partitions transfer streams in the event log.
const AggregateType = eventlog.AggregateType("transfer")

// Status is the lifecycle position of a transfer.
type Status string

const (
	UNINITIALIZED Status = "uninitialized"
	OPENED        Status = "opened"
	COMPLETED     Status = "completed"
	FAILED        Status = "failed"
	CANCELED      Status = "canceled"
)

// Config is the immutable description of a transfer, fixed when it is
// opened.
type Config struct {
	FromAccount eventlog.ID       `json:"from_account"`
	ToAccount   eventlog.ID       `json:"to_account"`
	Asset       account.Asset     `json:"asset"`
	Amount      account.Amount    `json:"amount"`
	Timestamp   account.Timestamp `json:"timestamp"`
	Description string            `json:"description"`
}

// Transfer is the aggregate state.
type Transfer struct {
	ID        eventlog.ID       `json:"id"`
	Status    Status            `json:"status"`
	Config    Config            `json:"config"`
	Reason    string            `json:"reason,omitempty"`
	SettledAt account.Timestamp `json:"settled_at,omitempty"`
}
