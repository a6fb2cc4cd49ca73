package transfer

import (
	"github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// ViewName is the read model maintained for transfers.
const ViewName = "transfer"

// View is the denormalized transfer read model.
type View struct {
	TransferID  eventlog.ID       `json:"transfer_id"`
	Status      Status            `json:"status"`
	FromAccount eventlog.ID       `json:"from_account"`
	ToAccount   eventlog.ID       `json:"to_account"`
	Asset       account.Asset     `json:"asset"`
	Amount      account.Amount    `json:"amount"`
	Description string            `json:"description,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	OpenedAt    account.Timestamp `json:"opened_at,omitempty"`
	SettledAt   account.Timestamp `json:"settled_at,omitempty"`
}

// NewView returns the empty view for a transfer with no events.
func NewView(eventlog.ID) View {
	return View{}
}

// UpdateView folds one committed event into the view.
func UpdateView(view View, env eventlog.Envelope, event Event) View {
	switch ev := event.(type) {
	case Opened:
		return View{
			TransferID:  env.AggregateID,
			Status:      OPENED,
			FromAccount: ev.Config.FromAccount,
			ToAccount:   ev.Config.ToAccount,
			Asset:       ev.Config.Asset,
			Amount:      ev.Config.Amount,
			Description: ev.Config.Description,
			OpenedAt:    ev.Config.Timestamp,
		}
	case Completed:
		view.Status = COMPLETED
		view.SettledAt = ev.Timestamp
		return view
	case Failed:
		view.Status = FAILED
		view.Reason = ev.Reason
		view.SettledAt = ev.Timestamp
		return view
	case Canceled:
		view.Status = CANCELED
		view.Reason = ev.Reason
		return view
	default:
		return view
	}
}

// NewProjector wires the transfer view projector against the given
// stores.
func NewProjector(events eventlog.EventStore, views eventlog.ViewStore) eventlog.Projector {
	return eventlog.NewViewProjector(
		ViewName, AggregateType, events, views, Codec{}, NewView, UpdateView,
	)
}
