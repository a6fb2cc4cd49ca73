package transfer

import (
	"encoding/json"
	"fmt"

	domainAccount "github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
	domainTransfer "github.com/lloydmeta/banques/internal/domain/transfer"
)

// CommandEnvelope is the wire form of every transfer command.
type CommandEnvelope struct {
	CommandType CommandType     `json:"command_type" binding:"required,transferCommandType" example:"open"`
	Payload     json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
}

// CommandType discriminates the payload shape of a CommandEnvelope.
type CommandType string

// Command type discriminators accepted in CommandEnvelope.
const (
	CommandOpen   CommandType = "open"
	CommandCancel CommandType = "cancel"
)

// Known tells whether the discriminator is one this API understands.
func (c CommandType) Known() bool {
	switch c {
	case CommandOpen, CommandCancel:
		return true
	default:
		return false
	}
}

// NewTransfer is the payload of an open command. Opening a transfer
// runs it end to end: the debit and credit legs are applied to the two
// accounts before the request returns.
type NewTransfer struct {
	FromAccount string `json:"from_account" binding:"required" example:"account-a"`
	ToAccount   string `json:"to_account" binding:"required" example:"account-b"`
	Asset       string `json:"asset" binding:"required" example:"USD"`
	Amount      uint64 `json:"amount" binding:"required" example:"1000"`
	Timestamp   uint64 `json:"timestamp" binding:"required" example:"1717243200"`
	Description string `json:"description" example:"June invoice"`
}

// Cancellation is the payload of a cancel command.
type Cancellation struct {
	Reason string `json:"reason" example:"requested by sender"`
}

// ToDomainConfig converts the payload into the transfer's immutable
// config.
func (n *NewTransfer) ToDomainConfig() domainTransfer.Config {
	return domainTransfer.Config{
		FromAccount: eventlog.ID(n.FromAccount),
		ToAccount:   eventlog.ID(n.ToAccount),
		Asset:       domainAccount.Asset(n.Asset),
		Amount:      domainAccount.Amount(n.Amount),
		Timestamp:   domainAccount.Timestamp(n.Timestamp),
		Description: n.Description,
	}
}

// DecodeNewTransfer parses an open command's payload.
func (e *CommandEnvelope) DecodeNewTransfer() (NewTransfer, error) {
	var p NewTransfer
	if err := decodePayload(e.Payload, &p); err != nil {
		return NewTransfer{}, err
	}
	if p.FromAccount == p.ToAccount {
		return NewTransfer{}, fmt.Errorf("a transfer needs two distinct accounts")
	}
	return p, nil
}

// DecodeCancellation parses a cancel command's payload. An absent
// payload cancels without a reason.
func (e *CommandEnvelope) DecodeCancellation() (Cancellation, error) {
	if len(e.Payload) == 0 {
		return Cancellation{}, nil
	}
	var p Cancellation
	if err := decodePayload(e.Payload, &p); err != nil {
		return Cancellation{}, err
	}
	return p, nil
}

func decodePayload(raw json.RawMessage, target interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("this command requires a payload")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("could not parse the command payload: %v", err)
	}
	return nil
}

// View is the API form of the transfer read model.
type View struct {
	TransferId  string `json:"transfer_id" example:"tsf-42"`
	Status      string `json:"status" example:"completed"`
	FromAccount string `json:"from_account" example:"account-a"`
	ToAccount   string `json:"to_account" example:"account-b"`
	Asset       string `json:"asset" example:"USD"`
	Amount      uint64 `json:"amount" example:"1000"`
	Description string `json:"description,omitempty" example:"June invoice"`
	Reason      string `json:"reason,omitempty" example:"insufficient funds"`
	OpenedAt    uint64 `json:"opened_at,omitempty" example:"1717243200"`
	SettledAt   uint64 `json:"settled_at,omitempty" example:"1717243201"`
}

// FromDomainView converts the persisted read model into its API form.
func FromDomainView(v domainTransfer.View) View {
	return View{
		TransferId:  string(v.TransferID),
		Status:      string(v.Status),
		FromAccount: string(v.FromAccount),
		ToAccount:   string(v.ToAccount),
		Asset:       string(v.Asset),
		Amount:      uint64(v.Amount),
		Description: v.Description,
		Reason:      v.Reason,
		OpenedAt:    uint64(v.OpenedAt),
		SettledAt:   uint64(v.SettledAt),
	}
}
