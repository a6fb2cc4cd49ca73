package account

import "github.com/lloydmeta/banques/internal/domain/eventlog"

// ViewName is the read model maintained for accounts.
const ViewName = "account"

// RecentLedgerSize bounds the ledger tail kept on the view.
const RecentLedgerSize = 100

// LedgerDetail describes one ledger line. Kind discriminates which of
// the optional fields are meaningful.
type LedgerDetail struct {
	Kind        string      `json:"@t"`
	Asset       Asset       `json:"asset,omitempty"`
	Amount      Amount      `json:"amount,omitempty"`
	ToAccount   eventlog.ID `json:"to_account,omitempty"`
	FromAccount eventlog.ID `json:"from_account,omitempty"`
}

// Ledger line kinds.
const (
	LedgerDeposit        = "Deposit"
	LedgerWithdraw       = "Withdraw"
	LedgerDebited        = "Debited"
	LedgerDebitReversed  = "DebitReversed"
	LedgerCredited       = "Credited"
	LedgerCreditReversed = "CreditReversed"
)

// LedgerEntry is one line of the recent ledger tail.
type LedgerEntry struct {
	Timestamp Timestamp    `json:"timestamp"`
	TxID      TxID         `json:"txid"`
	Detail    LedgerDetail `json:"detail"`
}

// View is the denormalized account read model: what a query returns.
// It should mirror the response shape users want, with the minimum of
// logic in its fold — balances are carried by the events themselves.
type View struct {
	AccountID    eventlog.ID   `json:"account_id"`
	IsDisabled   bool          `json:"is_disabled"`
	Balances     Balances      `json:"balances"`
	RecentLedger []LedgerEntry `json:"recent_ledger"`
}

// NewView returns the empty view for an account with no events.
func NewView(eventlog.ID) View {
	return View{}
}

// UpdateView folds one committed event into the view. Pure, like the
// aggregate's Apply, and total for the same reason.
func UpdateView(view View, env eventlog.Envelope, event Event) View {
	switch ev := event.(type) {
	case Opened:
		return View{AccountID: ev.AccountID, Balances: Balances{}}
	case Disabled:
		view.IsDisabled = true
		return view
	case Enabled:
		view.IsDisabled = false
		return view
	case Closed:
		// A closed account reads as if it never existed; re-opening
		// starts the view over.
		return View{}
	case Deposited:
		view.Balances = view.Balances.withAdded(ev.Asset, ev.Amount)
		return view.withLedger(ev.Timestamp, ev.TxID, LedgerDetail{
			Kind: LedgerDeposit, Asset: ev.Asset, Amount: ev.Amount,
		})
	case Withdrew:
		view.Balances = view.Balances.withSubtracted(ev.Asset, ev.Amount)
		return view.withLedger(ev.Timestamp, ev.TxID, LedgerDetail{
			Kind: LedgerWithdraw, Asset: ev.Asset, Amount: ev.Amount,
		})
	case Debited:
		view.Balances = view.Balances.withSubtracted(ev.Asset, ev.Amount)
		return view.withLedger(ev.Timestamp, ev.TxID, LedgerDetail{
			Kind: LedgerDebited, Asset: ev.Asset, Amount: ev.Amount, ToAccount: ev.ToAccount,
		})
	case DebitReversed:
		view.Balances = view.Balances.withAdded(ev.Asset, ev.Amount)
		return view.withLedger(ev.Timestamp, ev.TxID, LedgerDetail{
			Kind: LedgerDebitReversed, Asset: ev.Asset, Amount: ev.Amount, ToAccount: ev.ToAccount,
		})
	case Credited:
		view.Balances = view.Balances.withAdded(ev.Asset, ev.Amount)
		return view.withLedger(ev.Timestamp, ev.TxID, LedgerDetail{
			Kind: LedgerCredited, Asset: ev.Asset, Amount: ev.Amount, FromAccount: ev.FromAccount,
		})
	case CreditReversed:
		view.Balances = view.Balances.withSubtracted(ev.Asset, ev.Amount)
		return view.withLedger(ev.Timestamp, ev.TxID, LedgerDetail{
			Kind: LedgerCreditReversed, Asset: ev.Asset, Amount: ev.Amount, FromAccount: ev.FromAccount,
		})
	default:
		return view
	}
}

func (v View) withLedger(at Timestamp, txid TxID, detail LedgerDetail) View {
	entries := make([]LedgerEntry, 0, len(v.RecentLedger)+1)
	entries = append(entries, v.RecentLedger...)
	entries = append(entries, LedgerEntry{Timestamp: at, TxID: txid, Detail: detail})
	if len(entries) > RecentLedgerSize {
		entries = entries[len(entries)-RecentLedgerSize:]
	}
	v.RecentLedger = entries
	return v
}

// NewProjector wires the account view projector against the given
// stores.
func NewProjector(events eventlog.EventStore, views eventlog.ViewStore) eventlog.Projector {
	return eventlog.NewViewProjector(
		ViewName, AggregateType, events, views, Codec{}, NewView, UpdateView,
	)
}
