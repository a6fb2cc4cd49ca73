package account

import (
	"context"
	"net/http"

	"github.com/lloydmeta/banques/internal/api/models/account"
	"github.com/lloydmeta/banques/internal/api/models/common"
	domainAccount "github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// Executor runs commands against account streams.
type Executor interface {
	Execute(ctx context.Context, id eventlog.ID, command domainAccount.Command) (*eventlog.Result, error)
}

// Controller is an interface that defines the methods that are available to the routing
// layer. It is framework-agnostic
type Controller interface {

	// ApplyCommand resolves and runs one command against an account.
	//
	// Never pass a nil envelope; it's a pointer because the struct isn't small
	ApplyCommand(ctx context.Context, accountId eventlog.ID, envelope *account.CommandEnvelope) *common.ApiError

	// Get returns the account's read model
	Get(ctx context.Context, accountId eventlog.ID) (*account.View, *common.ApiError)
}

func New(executor Executor, views eventlog.ViewStore) Controller {
	return &impl{
		executor: executor,
		views:    views,
	}
}

type impl struct {
	executor Executor
	views    eventlog.ViewStore
}

func (c *impl) ApplyCommand(ctx context.Context, accountId eventlog.ID, envelope *account.CommandEnvelope) *common.ApiError {
	command, err := envelope.ToDomainCommand(accountId)
	if err != nil {
		return badEnvelope(err)
	}
	if _, err := c.executor.Execute(ctx, accountId, command); err != nil {
		return handleErr(err)
	}
	return nil
}

func (c *impl) Get(ctx context.Context, accountId eventlog.ID) (*account.View, *common.ApiError) {
	view, _, err := eventlog.LoadView[domainAccount.View](ctx, c.views, domainAccount.ViewName, accountId)
	if err != nil {
		return nil, handleErr(err)
	}
	apiView := account.FromDomainView(view)
	return &apiView, nil
}

func handleErr(err error) *common.ApiError {
	switch v := err.(type) {
	case domainAccount.NotFound:
		return notFound(v)
	case domainAccount.TransactionNotFound:
		return notFound(v)
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

func invalidCommand(err domainAccount.Err) *common.ApiError {
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
