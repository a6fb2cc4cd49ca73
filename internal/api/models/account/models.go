package account

import (
	"encoding/json"
	"fmt"

	domainAccount "github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// CommandEnvelope is the wire form of every account command: a
// discriminator plus a type-specific payload.
type CommandEnvelope struct {
	CommandType CommandType     `json:"command_type" binding:"required,accountCommandType" example:"deposit"`
	Payload     json.RawMessage `json:"payload,omitempty" swaggertype:"object"`
}

// CommandType discriminates the payload shape of a CommandEnvelope.
type CommandType string

// Command type discriminators accepted in CommandEnvelope.
const (
	CommandOpen          CommandType = "open"
	CommandDisable       CommandType = "disable"
	CommandEnable        CommandType = "enable"
	CommandClose         CommandType = "close"
	CommandDeposit       CommandType = "deposit"
	CommandWithdraw      CommandType = "withdraw"
	CommandDebit         CommandType = "debit"
	CommandReverseDebit  CommandType = "reverse_debit"
	CommandCredit        CommandType = "credit"
	CommandReverseCredit CommandType = "reverse_credit"
)

// Known tells whether the discriminator is one this API understands.
func (c CommandType) Known() bool {
	switch c {
	case CommandOpen, CommandDisable, CommandEnable, CommandClose,
		CommandDeposit, CommandWithdraw, CommandDebit, CommandReverseDebit,
		CommandCredit, CommandReverseCredit:
		return true
	default:
		return false
	}
}

// Movement is the payload shape shared by deposit and withdraw.
type Movement struct {
	TxId      string `json:"tx_id" binding:"required" example:"dep-2024-06-01-001"`
	Timestamp uint64 `json:"timestamp" binding:"required" example:"1717243200"`
	Asset     string `json:"asset" binding:"required" example:"USD"`
	Amount    uint64 `json:"amount" binding:"required" example:"1000"`
}

// Transfer is the payload shape of debit and credit legs; Counterparty
// is the account on the other side of the movement.
type Transfer struct {
	TxId         string `json:"tx_id" binding:"required" example:"tsf-42:debit"`
	Timestamp    uint64 `json:"timestamp" binding:"required" example:"1717243200"`
	Counterparty string `json:"counterparty" binding:"required" example:"account-b"`
	Asset        string `json:"asset" binding:"required" example:"USD"`
	Amount       uint64 `json:"amount" binding:"required" example:"1000"`
}

// Reversal is the payload shape of debit and credit reversals.
type Reversal struct {
	TxId         string `json:"tx_id" binding:"required" example:"tsf-42:debit-reversal"`
	OriginalTxId string `json:"original_tx_id" binding:"required" example:"tsf-42:debit"`
	Timestamp    uint64 `json:"timestamp" binding:"required" example:"1717243300"`
	Counterparty string `json:"counterparty" binding:"required" example:"account-b"`
	Asset        string `json:"asset" binding:"required" example:"USD"`
	Amount       uint64 `json:"amount" binding:"required" example:"1000"`
}

// ToDomainCommand resolves the envelope into a typed domain command for
// the given account.
func (e *CommandEnvelope) ToDomainCommand(id eventlog.ID) (domainAccount.Command, error) {
	switch e.CommandType {
	case CommandOpen:
		return domainAccount.Open{AccountID: id}, nil
	case CommandDisable:
		return domainAccount.Disable{}, nil
	case CommandEnable:
		return domainAccount.Enable{}, nil
	case CommandClose:
		return domainAccount.Close{}, nil
	case CommandDeposit:
		var p Movement
		if err := decodePayload(e.Payload, &p); err != nil {
			return nil, err
		}
		return domainAccount.Deposit{
			TxID:      domainAccount.TxID(p.TxId),
			Timestamp: domainAccount.Timestamp(p.Timestamp),
			Asset:     domainAccount.Asset(p.Asset),
			Amount:    domainAccount.Amount(p.Amount),
		}, nil
	case CommandWithdraw:
		var p Movement
		if err := decodePayload(e.Payload, &p); err != nil {
			return nil, err
		}
		return domainAccount.Withdraw{
			TxID:      domainAccount.TxID(p.TxId),
			Timestamp: domainAccount.Timestamp(p.Timestamp),
			Asset:     domainAccount.Asset(p.Asset),
			Amount:    domainAccount.Amount(p.Amount),
		}, nil
	case CommandDebit:
		var p Transfer
		if err := decodePayload(e.Payload, &p); err != nil {
			return nil, err
		}
		return domainAccount.Debit{
			TxID:      domainAccount.TxID(p.TxId),
			Timestamp: domainAccount.Timestamp(p.Timestamp),
			ToAccount: eventlog.ID(p.Counterparty),
			Asset:     domainAccount.Asset(p.Asset),
			Amount:    domainAccount.Amount(p.Amount),
		}, nil
	case CommandReverseDebit:
		var p Reversal
		if err := decodePayload(e.Payload, &p); err != nil {
			return nil, err
		}
		return domainAccount.ReverseDebit{
			TxID:         domainAccount.TxID(p.TxId),
			OriginalTxID: domainAccount.TxID(p.OriginalTxId),
			Timestamp:    domainAccount.Timestamp(p.Timestamp),
			ToAccount:    eventlog.ID(p.Counterparty),
			Asset:        domainAccount.Asset(p.Asset),
			Amount:       domainAccount.Amount(p.Amount),
		}, nil
	case CommandCredit:
		var p Transfer
		if err := decodePayload(e.Payload, &p); err != nil {
			return nil, err
		}
		return domainAccount.Credit{
			TxID:        domainAccount.TxID(p.TxId),
			Timestamp:   domainAccount.Timestamp(p.Timestamp),
			FromAccount: eventlog.ID(p.Counterparty),
			Asset:       domainAccount.Asset(p.Asset),
			Amount:      domainAccount.Amount(p.Amount),
		}, nil
	case CommandReverseCredit:
		var p Reversal
		if err := decodePayload(e.Payload, &p); err != nil {
			return nil, err
		}
		return domainAccount.ReverseCredit{
			TxID:         domainAccount.TxID(p.TxId),
			OriginalTxID: domainAccount.TxID(p.OriginalTxId),
			Timestamp:    domainAccount.Timestamp(p.Timestamp),
			FromAccount:  eventlog.ID(p.Counterparty),
			Asset:        domainAccount.Asset(p.Asset),
			Amount:       domainAccount.Amount(p.Amount),
		}, nil
	default:
		return nil, fmt.Errorf("unknown command_type [%s]", e.CommandType)
	}
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

// LedgerEntry is one recent movement on the account.
type LedgerEntry struct {
	Timestamp    uint64 `json:"timestamp" example:"1717243200"`
	TxId         string `json:"tx_id" example:"dep-2024-06-01-001"`
	Kind         string `json:"kind" example:"deposit"`
	Asset        string `json:"asset" example:"USD"`
	Amount       uint64 `json:"amount" example:"1000"`
	Counterparty string `json:"counterparty,omitempty" example:"account-b"`
}

// View is the API form of the account read model.
type View struct {
	AccountId    string            `json:"account_id" example:"account-a"`
	IsDisabled   bool              `json:"is_disabled" example:"false"`
	Balances     map[string]uint64 `json:"balances"`
	RecentLedger []LedgerEntry     `json:"recent_ledger"`
}

// FromDomainView converts the persisted read model into its API form.
func FromDomainView(v domainAccount.View) View {
	balances := make(map[string]uint64, len(v.Balances))
	for asset, amount := range v.Balances {
		balances[string(asset)] = uint64(amount)
	}
	ledger := make([]LedgerEntry, 0, len(v.RecentLedger))
	for _, entry := range v.RecentLedger {
		counterparty := entry.Detail.ToAccount
		if counterparty == "" {
			counterparty = entry.Detail.FromAccount
		}
		ledger = append(ledger, LedgerEntry{
			Timestamp:    uint64(entry.Timestamp),
			TxId:         string(entry.TxID),
			Kind:         entry.Detail.Kind,
			Asset:        string(entry.Detail.Asset),
			Amount:       uint64(entry.Detail.Amount),
			Counterparty: string(counterparty),
		})
	}
	return View{
		AccountId:    string(v.AccountID),
		IsDisabled:   v.IsDisabled,
		Balances:     balances,
		RecentLedger: ledger,
	}
}
