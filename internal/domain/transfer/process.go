package transfer

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// AccountExecutor runs commands against the account aggregate. It is
// satisfied by *eventlog.Executor[account.Account, account.Command,
// account.Event].
type AccountExecutor interface {
	Execute(ctx context.Context, id eventlog.ID, command account.Command) (*eventlog.Result, error)
}

// TransferExecutor runs commands against the transfer aggregate.
type TransferExecutor interface {
	Execute(ctx context.Context, id eventlog.ID, command Command) (*eventlog.Result, error)
	Load(ctx context.Context, id eventlog.ID) (Transfer, eventlog.Seq, error)
}

// Process drives a transfer end to end: it opens the transfer record,
// debits the source account, credits the destination account, and
// records the outcome. A failed credit leg is compensated by reversing
// the debit before the transfer is marked failed.
//
// Every leg carries a transaction id derived from the transfer id, so
// re-running a partially applied transfer is idempotent: legs that
// already committed are detected by the account's dedup window and
// skipped.
type Process struct {
	accounts  AccountExecutor
	transfers TransferExecutor
}

// NewProcess returns a Process wired to the given executors.
func NewProcess(accounts AccountExecutor, transfers TransferExecutor) *Process {
	return &Process{accounts: accounts, transfers: transfers}
}

// Leg transaction ids are derived from the transfer id so that retries
// of the same transfer dedup against the account streams.
func debitTxID(id eventlog.ID) account.TxID {
	return account.TxID(string(id) + ":debit")
}

func creditTxID(id eventlog.ID) account.TxID {
	return account.TxID(string(id) + ":credit")
}

func debitReversalTxID(id eventlog.ID) account.TxID {
	return account.TxID(string(id) + ":debit-reversal")
}

// Run executes the transfer identified by id with the given config. If
// the transfer was already opened by an earlier attempt, the stored
// config is reused and the remaining legs are driven to completion.
// Transfers already settled return their recorded outcome without
// touching any account.
func (p *Process) Run(ctx context.Context, id eventlog.ID, cfg Config) (Transfer, error) {
	cfg, err := p.open(ctx, id, cfg)
	if err != nil {
		return Transfer{}, err
	}

	if err := p.debitLeg(ctx, id, cfg); err != nil {
		return p.fail(ctx, id, cfg, err)
	}

	if err := p.creditLeg(ctx, id, cfg); err != nil {
		p.compensateDebit(ctx, id, cfg)
		return p.fail(ctx, id, cfg, err)
	}

	if _, err := p.transfers.Execute(ctx, id, Complete{Timestamp: cfg.Timestamp}); err != nil {
		return Transfer{}, err
	}
	settled, _, err := p.transfers.Load(ctx, id)
	return settled, err
}

// open records the transfer, or resumes it if an earlier attempt
// already opened it.
func (p *Process) open(ctx context.Context, id eventlog.ID, cfg Config) (Config, error) {
	_, err := p.transfers.Execute(ctx, id, Open{Config: cfg})
	if err == nil {
		return cfg, nil
	}
	var exists AlreadyExists
	if !errors.As(err, &exists) {
		return Config{}, err
	}
	current, _, loadErr := p.transfers.Load(ctx, id)
	if loadErr != nil {
		return Config{}, loadErr
	}
	if current.Status != OPENED {
		return Config{}, InvalidState{ID: id, Status: current.Status}
	}
	log.Info().
		Str("transfer_id", string(id)).
		Msg("Resuming a previously opened transfer")
	return current.Config, nil
}

func (p *Process) debitLeg(ctx context.Context, id eventlog.ID, cfg Config) error {
	_, err := p.accounts.Execute(ctx, cfg.FromAccount, account.Debit{
		TxID:      debitTxID(id),
		Timestamp: cfg.Timestamp,
		ToAccount: cfg.ToAccount,
		Asset:     cfg.Asset,
		Amount:    cfg.Amount,
	})
	return ignoreDuplicate(err)
}

func (p *Process) creditLeg(ctx context.Context, id eventlog.ID, cfg Config) error {
	_, err := p.accounts.Execute(ctx, cfg.ToAccount, account.Credit{
		TxID:        creditTxID(id),
		Timestamp:   cfg.Timestamp,
		FromAccount: cfg.FromAccount,
		Asset:       cfg.Asset,
		Amount:      cfg.Amount,
	})
	return ignoreDuplicate(err)
}

// compensateDebit undoes the debit leg after the credit leg failed.
// Compensation failures are logged, not returned: the transfer is
// marked failed either way, and the reconciler's sweep plus the
// derived reversal txid make a later manual or automated retry safe.
func (p *Process) compensateDebit(ctx context.Context, id eventlog.ID, cfg Config) {
	_, err := p.accounts.Execute(ctx, cfg.FromAccount, account.ReverseDebit{
		TxID:         debitReversalTxID(id),
		OriginalTxID: debitTxID(id),
		Timestamp:    cfg.Timestamp,
		ToAccount:    cfg.ToAccount,
		Asset:        cfg.Asset,
		Amount:       cfg.Amount,
	})
	if err := ignoreDuplicate(err); err != nil {
		log.Error().
			Err(err).
			Str("transfer_id", string(id)).
			Str("from_account", string(cfg.FromAccount)).
			Msg("Failed to compensate the debit leg of a failed transfer")
	}
}

// fail records the leg failure on the transfer and returns the leg
// error to the caller.
func (p *Process) fail(ctx context.Context, id eventlog.ID, cfg Config, legErr error) (Transfer, error) {
	if _, err := p.transfers.Execute(ctx, id, Fail{
		Reason:    legErr.Error(),
		Timestamp: cfg.Timestamp,
	}); err != nil {
		log.Error().
			Err(err).
			Str("transfer_id", string(id)).
			Msg("Failed to record a transfer failure")
	}
	return Transfer{}, legErr
}

// ignoreDuplicate drops duplicate-transaction errors: the leg already
// committed in a previous attempt.
func ignoreDuplicate(err error) error {
	if err == nil {
		return nil
	}
	var dup account.DuplicateTransaction
	if errors.As(err, &dup) {
		return nil
	}
	return err
}
