package routing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	transferController "github.com/lloydmeta/banques/internal/api/controllers/transfer"
	"github.com/lloydmeta/banques/internal/api/models/transfer"
	"github.com/lloydmeta/banques/internal/config"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

var transfersRootPath = "/transfers"
var transferIdPathKey = "transfer_id"

type TransfersRoutesHandler struct {
	AuthSettings *config.Auth
	Controller   transferController.Controller
}

func (h *TransfersRoutesHandler) RegisterRoutes(ginEngine *gin.Engine) {
	accounts := make(gin.Accounts)
	if h.AuthSettings != nil {
		for _, bAuthUser := range h.AuthSettings.BasicAuth {
			accounts[bAuthUser.Name] = bAuthUser.Password
		}
	}

	var routerGroup *gin.RouterGroup
	if len(accounts) > 0 {
		routerGroup = ginEngine.Group(transfersRootPath, gin.BasicAuth(accounts))
	} else {
		routerGroup = ginEngine.Group(transfersRootPath)
	}

	routerGroup.POST("/:"+transferIdPathKey+"/commands", h.applyCommand)
	routerGroup.GET("/:"+transferIdPathKey, h.get)
}

// @Summary Run a command against a Transfer
// @ID apply-transfer-command
// @Tags transfers
// @Description Runs a single command against a Transfer. Opening a Transfer runs both account legs before returning.
// @Accept  json
// @Produce  json
// @Param   transfer_id path string true "The id of the Transfer"
// @Param   envelope body transfer.CommandEnvelope true "The request body"
// @Success 204
// @Failure 400 {object} common.Body "Invalid JSON or command rejected"
// @Failure 404 {object} common.Body "Transfer does not exist"
// @Failure 409 {object} common.Body "Too much write contention"
// @Router /transfers/{transfer_id}/commands [post]
func (h *TransfersRoutesHandler) applyCommand(c *gin.Context) {
	var transferId = eventlog.ID(c.Param(transferIdPathKey))
	var envelope transfer.CommandEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		handleJsonSerdesErr(c, err)
	} else {
		if err := h.Controller.ApplyCommand(c.Request.Context(), transferId, &envelope); err == nil {
			c.Status(http.StatusNoContent)
		} else {
			c.JSON(err.StatusCode, err.Body)
		}
	}
}

// @Summary Get a Transfer
// @ID get-existing-transfer
// @Tags transfers
// @Description Retrieves a Transfer's read model
// @Accept  json
// @Produce  json
// @Param   transfer_id path string true "The id of the Transfer"
// @Success 200 {object} transfer.View
// @Failure 404 {object} common.Body "Transfer does not exist"
// @Router /transfers/{transfer_id} [get]
func (h *TransfersRoutesHandler) get(c *gin.Context) {
	var transferId = eventlog.ID(c.Param(transferIdPathKey))
	if v, err := h.Controller.Get(c.Request.Context(), transferId); err == nil {
		c.JSON(http.StatusOK, v)
	} else {
		c.JSON(err.StatusCode, err.Body)
	}
}
