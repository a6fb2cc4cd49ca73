package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/banques/internal/api/models/common"
	"github.com/lloydmeta/banques/internal/api/models/transfer"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
	"github.com/lloydmeta/banques/internal/infra/server/binding/validation"
)

func setupTransfersRouter() (*gin.Engine, *mockTransfersController) {
	validation.SetUpValidators()
	engine := gin.Default()
	mockController := mockTransfersController{}
	handler := TransfersRoutesHandler{Controller: &mockController}
	handler.RegisterRoutes(engine)

	return engine, &mockController
}

func TestTransferCommand_Ok(t *testing.T) {
	router, mockController := setupTransfersRouter()
	envelope := transfer.CommandEnvelope{
		CommandType: transfer.CommandOpen,
		Payload:     json.RawMessage(`{"from_account":"a","to_account":"b","asset":"USD","amount":100,"timestamp":1000}`),
	}
	resp := performRequest(router, http.MethodPost, "/transfers/tsf-1/commands", envelope, nil)
	assert.EqualValues(t, http.StatusNoContent, resp.Code)
	assert.EqualValues(t, 1, mockController.applyCommandCalled)
	assert.EqualValues(t, "tsf-1", mockController.lastTransferId)
}

func TestTransferCommand_InvalidJson(t *testing.T) {
	router, mockController := setupTransfersRouter()
	resp := performRequest(router, http.MethodPost, "/transfers/tsf-1/commands", "not an object", nil)
	assert.EqualValues(t, http.StatusBadRequest, resp.Code)
	assert.EqualValues(t, 0, mockController.applyCommandCalled)
}

func TestTransferCommand_ControllerError(t *testing.T) {
	router, mockController := setupTransfersRouter()
	apiErr := common.ApiError{
		StatusCode: http.StatusBadRequest,
		Body:       common.Body{Message: "Insufficient [USD] funds on account [a]"},
	}
	mockController.applyCommandOverride = func(ctx context.Context, transferId eventlog.ID, envelope *transfer.CommandEnvelope) *common.ApiError {
		return &apiErr
	}
	envelope := transfer.CommandEnvelope{CommandType: transfer.CommandOpen}
	resp := performRequest(router, http.MethodPost, "/transfers/tsf-1/commands", envelope, nil)
	assert.EqualValues(t, http.StatusBadRequest, resp.Code)
	var body common.Body
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Error(err)
	} else {
		assert.Contains(t, body.Message, "Insufficient")
	}
}

func TestTransferGet_Ok(t *testing.T) {
	router, mockController := setupTransfersRouter()
	resp := performRequest(router, http.MethodGet, "/transfers/tsf-1", nil, nil)
	assert.EqualValues(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.getCalled)
	var view transfer.View
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Error(err)
	} else {
		assert.EqualValues(t, "tsf-1", view.TransferId)
		assert.EqualValues(t, "completed", view.Status)
	}
}

func TestTransferGet_NotFound(t *testing.T) {
	router, mockController := setupTransfersRouter()
	apiErr := common.ApiError{StatusCode: http.StatusNotFound}
	mockController.getOverride = func(ctx context.Context, transferId eventlog.ID) (*transfer.View, *common.ApiError) {
		return nil, &apiErr
	}
	resp := performRequest(router, http.MethodGet, "/transfers/nope", nil, nil)
	assert.EqualValues(t, http.StatusNotFound, resp.Code)
}

type mockTransfersController struct {
	applyCommandCalled   uint
	lastTransferId       eventlog.ID
	applyCommandOverride func(ctx context.Context, transferId eventlog.ID, envelope *transfer.CommandEnvelope) *common.ApiError
	getCalled            uint
	getOverride          func(ctx context.Context, transferId eventlog.ID) (*transfer.View, *common.ApiError)
}

func (m *mockTransfersController) ApplyCommand(ctx context.Context, transferId eventlog.ID, envelope *transfer.CommandEnvelope) *common.ApiError {
	m.applyCommandCalled++
	m.lastTransferId = transferId
	if m.applyCommandOverride != nil {
		return m.applyCommandOverride(ctx, transferId, envelope)
	}
	return nil
}

func (m *mockTransfersController) Get(ctx context.Context, transferId eventlog.ID) (*transfer.View, *common.ApiError) {
	m.getCalled++
	if m.getOverride != nil {
		return m.getOverride(ctx, transferId)
	}
	return &transfer.View{
		TransferId: string(transferId),
		Status:     "completed",
	}, nil
}
