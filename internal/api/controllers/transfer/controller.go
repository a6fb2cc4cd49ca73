package transfer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lloydmeta/banques/internal/api/models/common"
	"github.com/lloydmeta/banques/internal/api/models/transfer"
	domainAccount "github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
	domainTransfer "github.com/lloydmeta/banques/internal/domain/transfer"
)

// Runner drives a transfer process end to end.
type Runner interface {
	Run(ctx context.Context, id eventlog.ID, cfg domainTransfer.Config) (domainTransfer.Transfer, error)
}

// Executor runs single commands against transfer streams.
type Executor interface {
	Execute(ctx context.Context, id eventlog.ID, command domainTransfer.Command) (*eventlog.Result, error)
}

// Controller is an interface that defines the methods that are available to the routing
// layer. It is framework-agnostic
type Controller interface {

	// ApplyCommand resolves and runs one command against a transfer. An
	// open command runs the whole transfer, legs included, before
	// returning.
	ApplyCommand(ctx context.Context, transferId eventlog.ID, envelope *transfer.CommandEnvelope) *common.ApiError

	// Get returns the transfer's read model
	Get(ctx context.Context, transferId eventlog.ID) (*transfer.View, *common.ApiError)
}

func New(runner Runner, executor Executor, views eventlog.ViewStore) Controller {
	return &impl{
		runner:   runner,
		executor: executor,
		views:    views,
	}
}

type impl struct {
	runner   Runner
	executor Executor
	views    eventlog.ViewStore
}

func (c *impl) ApplyCommand(ctx context.Context, transferId eventlog.ID, envelope *transfer.CommandEnvelope) *common.ApiError {
	switch envelope.CommandType {
	case transfer.CommandOpen:
		payload, err := envelope.DecodeNewTransfer()
		if err != nil {
			return badEnvelope(err)
		}
		if _, err := c.runner.Run(ctx, transferId, payload.ToDomainConfig()); err != nil {
			return handleErr(err)
		}
		return nil
	case transfer.CommandCancel:
		payload, err := envelope.DecodeCancellation()
		if err != nil {
			return badEnvelope(err)
		}
		if _, err := c.executor.Execute(ctx, transferId, domainTransfer.Cancel{Reason: payload.Reason}); err != nil {
			return handleErr(err)
		}
		return nil
	default:
		return &common.ApiError{
			StatusCode: http.StatusBadRequest,
			Body: common.Body{
				Message: fmt.Sprintf("unknown command_type [%s]", envelope.CommandType),
			},
		}
	}
}

func (c *impl) Get(ctx context.Context, transferId eventlog.ID) (*transfer.View, *common.ApiError) {
	view, _, err := eventlog.LoadView[domainTransfer.View](ctx, c.views, domainTransfer.ViewName, transferId)
	if err != nil {
		return nil, handleErr(err)
	}
	apiView := transfer.FromDomainView(view)
	return &apiView, nil
}

func handleErr(err error) *common.ApiError {
	switch v := err.(type) {
	case domainTransfer.NotFound:
		return notFound(v)
	case domainAccount.NotFound:
		return notFound(v)
	case domainTransfer.Err:
		return invalidCommand(v)
	case domainAccount.Err:
		return invalidCommand(v)
	case eventlog.ConcurrencyConflict:
		return versionConflict(v)
	case eventlog.ContentionExceeded:
		return versionConflict(v)
	case eventlog.NotFound:
		return notFound(v)
	default:
		return unhandledErr(v)
	}
}

func badEnvelope(err error) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusBadRequest,
		Body: common.Body{
			Message: err.Error(),
		},
	}
}

func invalidCommand(err error) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusBadRequest,
		Body: common.Body{
			Message: err.Error(),
		},
	}
}

func notFound(err error) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusNotFound,
		Body: common.Body{
			Message: err.Error(),
		},
	}
}

func versionConflict(err error) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusConflict,
		Body: common.Body{
			Message: err.Error(),
		},
	}
}

func unhandledErr(e error) *common.ApiError {
	return &common.ApiError{
		StatusCode: http.StatusInternalServerError,
		Body: common.Body{
			Message: e.Error(),
		},
	}
}
