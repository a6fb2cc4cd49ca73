package account

import (
	"fmt"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// <-- Domain Errors

// Err is the common interface of account business-rule violations.
// These are expected outcomes returned to the caller; nothing has been
// appended when one is returned.
type Err interface {
	error
	AccountID() eventlog.ID
}

// NotFound is returned when a command requires an existing account.
type NotFound struct {
	ID eventlog.ID
}

func (e NotFound) Error() string {
	return fmt.Sprintf("Account [%v] not found", e.ID)
}

func (e NotFound) AccountID() eventlog.ID {
	return e.ID
}

// AlreadyExists is returned when opening an account that is in service
// or disabled.
type AlreadyExists struct {
	ID eventlog.ID
}

func (e AlreadyExists) Error() string {
	return fmt.Sprintf("Account [%v] already exists", e.ID)
}

func (e AlreadyExists) AccountID() eventlog.ID {
	return e.ID
}

// NotInService is returned when a money movement hits a disabled
// account, or a Disable hits an account that is not in service.
type NotInService struct {
	ID eventlog.ID
}

func (e NotInService) Error() string {
	return fmt.Sprintf("Account [%v] is not in service", e.ID)
}

func (e NotInService) AccountID() eventlog.ID {
	return e.ID
}

// NotDisabled is returned by Enable on an account that is not disabled.
type NotDisabled struct {
	ID eventlog.ID
}

func (e NotDisabled) Error() string {
	return fmt.Sprintf("Account [%v] is not disabled", e.ID)
}

func (e NotDisabled) AccountID() eventlog.ID {
	return e.ID
}

// NotEmpty is returned by Close while any balance is still positive.
type NotEmpty struct {
	ID eventlog.ID
}

func (e NotEmpty) Error() string {
	return fmt.Sprintf("Account [%v] is not empty", e.ID)
}

func (e NotEmpty) AccountID() eventlog.ID {
	return e.ID
}

// InsufficientFunds is returned when a withdrawal, debit or credit
// reversal exceeds the asset balance.
type InsufficientFunds struct {
	ID    eventlog.ID
	Asset Asset
}

func (e InsufficientFunds) Error() string {
	return fmt.Sprintf("Insufficient [%v] funds on account [%v]", e.Asset, e.ID)
}

func (e InsufficientFunds) AccountID() eventlog.ID {
	return e.ID
}

// DuplicateTransaction is returned when a transaction id was already
// processed within the dedup window. Carries the original processing
// time so retrying clients can tell "already applied" from "rejected".
type DuplicateTransaction struct {
	ID          eventlog.ID
	TxID        TxID
	ProcessedAt Timestamp
}

func (e DuplicateTransaction) Error() string {
	return fmt.Sprintf("Transaction [%v] was already processed at [%d]", e.TxID, e.ProcessedAt)
}

func (e DuplicateTransaction) AccountID() eventlog.ID {
	return e.ID
}

// TransactionNotFound is returned by a reversal whose original
// transaction is not in the dedup window (never applied, or expired).
type TransactionNotFound struct {
	ID   eventlog.ID
	TxID TxID
}

func (e TransactionNotFound) Error() string {
	return fmt.Sprintf("Transaction [%v] not found on account [%v]", e.TxID, e.ID)
}

func (e TransactionNotFound) AccountID() eventlog.ID {
	return e.ID
}

//     Errors -->
