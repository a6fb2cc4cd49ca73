package account

import "github.com/lloydmeta/banques/internal/domain/eventlog"

// Behavior is the account state machine. Transition holds the bulk of
// the business rules of this context; Apply must stay total over every
// event variant ever emitted because it drives replay.
//
// Both are pure: no I/O, no clock reads (transaction timestamps come in
// on the commands), so replaying the same stream always rebuilds the
// same state.
type Behavior struct {
	// DedupTTL overrides the processed-transaction window. 0 means the
	// package default.
	DedupTTL Timestamp
}

func (b Behavior) AggregateType() eventlog.AggregateType {
	return AggregateType
}

func (b Behavior) Initial(id eventlog.ID) Account {
	return Account{ID: id, Status: UNINITIALIZED}
}

func (b Behavior) ttl() Timestamp {
	if b.DedupTTL > 0 {
		return b.DedupTTL
	}
	return DedupTTL
}

func (b Behavior) Transition(current Account, command Command) ([]Event, error) {
	switch cmd := command.(type) {
	case Open:
		if current.Status == UNINITIALIZED || current.Status == CLOSED {
			return []Event{Opened{AccountID: cmd.AccountID}}, nil
		}
		return nil, AlreadyExists{ID: current.ID}
	case Disable:
		if current.Status == IN_SERVICE {
			return []Event{Disabled{}}, nil
		}
		return nil, NotInService{ID: current.ID}
	case Enable:
		if current.Status == DISABLED {
			return []Event{Enabled{}}, nil
		}
		return nil, NotDisabled{ID: current.ID}
	case Close:
		switch current.Status {
		case UNINITIALIZED, CLOSED:
			return nil, NotFound{ID: current.ID}
		default:
			if !current.Balances.isEmpty() {
				return nil, NotEmpty{ID: current.ID}
			}
			return []Event{Closed{}}, nil
		}
	case Deposit:
		if err := current.movable(cmd.TxID); err != nil {
			return nil, err
		}
		return []Event{Deposited(cmd)}, nil
	case Withdraw:
		if err := current.movable(cmd.TxID); err != nil {
			return nil, err
		}
		if current.Balances.get(cmd.Asset) < cmd.Amount {
			return nil, InsufficientFunds{ID: current.ID, Asset: cmd.Asset}
		}
		return []Event{Withdrew(cmd)}, nil
	case Debit:
		if err := current.movable(cmd.TxID); err != nil {
			return nil, err
		}
		if current.Balances.get(cmd.Asset) < cmd.Amount {
			return nil, InsufficientFunds{ID: current.ID, Asset: cmd.Asset}
		}
		return []Event{Debited(cmd)}, nil
	case ReverseDebit:
		if err := current.movable(cmd.TxID); err != nil {
			return nil, err
		}
		if _, seen := current.Processed.Seen(cmd.OriginalTxID); !seen {
			return nil, TransactionNotFound{ID: current.ID, TxID: cmd.OriginalTxID}
		}
		return []Event{DebitReversed(cmd)}, nil
	case Credit:
		if err := current.movable(cmd.TxID); err != nil {
			return nil, err
		}
		return []Event{Credited(cmd)}, nil
	case ReverseCredit:
		if err := current.movable(cmd.TxID); err != nil {
			return nil, err
		}
		if _, seen := current.Processed.Seen(cmd.OriginalTxID); !seen {
			return nil, TransactionNotFound{ID: current.ID, TxID: cmd.OriginalTxID}
		}
		if current.Balances.get(cmd.Asset) < cmd.Amount {
			return nil, InsufficientFunds{ID: current.ID, Asset: cmd.Asset}
		}
		return []Event{CreditReversed(cmd)}, nil
	default:
		return nil, NotFound{ID: current.ID}
	}
}

// movable rejects money movement unless the account is in service, and
// rejects transaction ids that are still in the dedup window.
func (a Account) movable(txid TxID) error {
	switch a.Status {
	case UNINITIALIZED, CLOSED:
		return NotFound{ID: a.ID}
	case DISABLED:
		return NotInService{ID: a.ID}
	}
	if at, seen := a.Processed.Seen(txid); seen {
		return DuplicateTransaction{ID: a.ID, TxID: txid, ProcessedAt: at}
	}
	return nil
}

func (b Behavior) Apply(current Account, event Event) Account {
	switch ev := event.(type) {
	case Opened:
		return Account{
			ID:        ev.AccountID,
			Status:    IN_SERVICE,
			Balances:  Balances{},
			Processed: NewProcessedTransactions(b.ttl()),
		}
	case Disabled:
		current.Status = DISABLED
		return current
	case Enabled:
		current.Status = IN_SERVICE
		return current
	case Closed:
		return Account{ID: current.ID, Status: CLOSED}
	case Deposited:
		current.Processed = current.Processed.WithInserted(ev.TxID, ev.Timestamp)
		current.Balances = current.Balances.withAdded(ev.Asset, ev.Amount)
		return current
	case Withdrew:
		current.Processed = current.Processed.WithInserted(ev.TxID, ev.Timestamp)
		current.Balances = current.Balances.withSubtracted(ev.Asset, ev.Amount)
		return current
	case Debited:
		current.Processed = current.Processed.WithInserted(ev.TxID, ev.Timestamp)
		current.Balances = current.Balances.withSubtracted(ev.Asset, ev.Amount)
		return current
	case DebitReversed:
		// Forgetting the original id lets a retried transfer re-issue
		// the debit under the same transaction id.
		current.Processed = current.Processed.
			WithForgotten(ev.OriginalTxID).
			WithInserted(ev.TxID, ev.Timestamp)
		current.Balances = current.Balances.withAdded(ev.Asset, ev.Amount)
		return current
	case Credited:
		current.Processed = current.Processed.WithInserted(ev.TxID, ev.Timestamp)
		current.Balances = current.Balances.withAdded(ev.Asset, ev.Amount)
		return current
	case CreditReversed:
		current.Processed = current.Processed.
			WithForgotten(ev.OriginalTxID).
			WithInserted(ev.TxID, ev.Timestamp)
		current.Balances = current.Balances.withSubtracted(ev.Asset, ev.Amount)
		return current
	default:
		// Unknown events are a corruption bug caught by the codec before
		// Apply ever sees them; replay stays total regardless.
		return current
	}
}
