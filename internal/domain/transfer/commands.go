package transfer

import "github.com/lloydmeta/banques/internal/domain/account"

// Command is the closed union of requests a transfer accepts.
type Command interface {
	isCommand()
}

// Open records a new transfer. The account legs are driven separately
// by the Process; Open only fixes the transfer's Config.
type Open struct {
	Config Config
}

// Complete marks both legs as applied.
type Complete struct {
	Timestamp account.Timestamp
}

// Fail records that a leg could not be applied (after compensation).
type Fail struct {
	Reason    string
	Timestamp account.Timestamp
}

// Cancel withdraws an opened transfer before its legs have settled.
type Cancel struct {
	Reason string
}

func (Open) isCommand()     {}
func (Complete) isCommand() {}
func (Fail) isCommand()     {}
func (Cancel) isCommand()   {}
