package account

import "github.com/lloydmeta/banques/internal/domain/eventlog"

// Command is the closed union of requests an account accepts. New
// commands are added by extending this union and the Transition switch,
// never by open-ended dispatch.
type Command interface {
	isCommand()
}

// Open brings an account into service. Valid from Uninitialized and
// from Closed (an account number can be re-opened once emptied and
// closed).
type Open struct {
	AccountID eventlog.ID
}

// Disable suspends all money movement without closing the account.
type Disable struct{}

// Enable lifts a suspension.
type Enable struct{}

// Close retires an account. Only valid once every balance is zero.
type Close struct{}

// Deposit adds funds.
type Deposit struct {
	TxID      TxID
	Timestamp Timestamp
	Asset     Asset
	Amount    Amount
}

// Withdraw removes funds; fails with InsufficientFunds when the asset
// balance cannot cover the amount.
type Withdraw struct {
	TxID      TxID
	Timestamp Timestamp
	Asset     Asset
	Amount    Amount
}

// Debit is the outgoing leg of a transfer: funds leave this account
// towards ToAccount.
type Debit struct {
	TxID      TxID
	Timestamp Timestamp
	ToAccount eventlog.ID
	Asset     Asset
	Amount    Amount
}

// ReverseDebit compensates an earlier Debit (identified by
// OriginalTxID) when the other leg of the transfer could not complete.
// Carries its own TxID so the compensation itself is deduplicated.
type ReverseDebit struct {
	TxID         TxID
	OriginalTxID TxID
	Timestamp    Timestamp
	ToAccount    eventlog.ID
	Asset        Asset
	Amount       Amount
}

// Credit is the incoming leg of a transfer: funds arrive from
// FromAccount.
type Credit struct {
	TxID        TxID
	Timestamp   Timestamp
	FromAccount eventlog.ID
	Asset       Asset
	Amount      Amount
}

// ReverseCredit compensates an earlier Credit.
type ReverseCredit struct {
	TxID         TxID
	OriginalTxID TxID
	Timestamp    Timestamp
	FromAccount  eventlog.ID
	Asset        Asset
	Amount       Amount
}

func (Open) isCommand()          {}
func (Disable) isCommand()       {}
func (Enable) isCommand()        {}
func (Close) isCommand()         {}
func (Deposit) isCommand()       {}
func (Withdraw) isCommand()      {}
func (Debit) isCommand()         {}
func (ReverseDebit) isCommand()  {}
func (Credit) isCommand()        {}
func (ReverseCredit) isCommand() {}
