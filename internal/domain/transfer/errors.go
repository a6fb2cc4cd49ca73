package transfer

import (
	"fmt"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// <-- Domain Errors

// Err is the common interface of transfer business-rule violations.
type Err interface {
	error
	TransferID() eventlog.ID
}

// NotFound is returned when a command requires an existing transfer.
type NotFound struct {
	ID eventlog.ID
}

func (e NotFound) Error() string {
	return fmt.Sprintf("Transfer [%v] not found", e.ID)
}

func (e NotFound) TransferID() eventlog.ID {
	return e.ID
}

// AlreadyExists is returned when opening a transfer id that has been
// used before.
type AlreadyExists struct {
	ID eventlog.ID
}

func (e AlreadyExists) Error() string {
	return fmt.Sprintf("Transfer [%v] already exists", e.ID)
}

func (e AlreadyExists) TransferID() eventlog.ID {
	return e.ID
}

// InvalidState is returned when a command is not valid for the
// transfer's current status.
type InvalidState struct {
	ID     eventlog.ID
	Status Status
}

func (e InvalidState) Error() string {
	return fmt.Sprintf("Transfer [%v] is [%v], command not applicable", e.ID, e.Status)
}

func (e InvalidState) TransferID() eventlog.ID {
	return e.ID
}

//     Errors -->
