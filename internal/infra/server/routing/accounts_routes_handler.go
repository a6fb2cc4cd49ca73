package routing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accountController "github.com/lloydmeta/banques/internal/api/controllers/account"
	"github.com/lloydmeta/banques/internal/api/models/account"
	"github.com/lloydmeta/banques/internal/config"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

var accountsRootPath = "/accounts"
var accountIdPathKey = "account_id"

type AccountsRoutesHandler struct {
	AuthSettings *config.Auth
	Controller   accountController.Controller
}

func (h *AccountsRoutesHandler) RegisterRoutes(ginEngine *gin.Engine) {
	accounts := make(gin.Accounts)
	if h.AuthSettings != nil {
		for _, bAuthUser := range h.AuthSettings.BasicAuth {
			accounts[bAuthUser.Name] = bAuthUser.Password
		}
	}

	var routerGroup *gin.RouterGroup
	if len(accounts) > 0 {
		routerGroup = ginEngine.Group(accountsRootPath, gin.BasicAuth(accounts))
	} else {
		routerGroup = ginEngine.Group(accountsRootPath)
	}

	routerGroup.POST("/:"+accountIdPathKey+"/commands", h.applyCommand)
	routerGroup.GET("/:"+accountIdPathKey, h.get)
}

// @Summary Run a command against an Account
// @ID apply-account-command
// @Tags accounts
// @Description Runs a single command against an Account's event stream
// @Accept  json
// @Produce  json
// @Param   account_id path string true "The id of the Account"
// @Param   envelope body account.CommandEnvelope true "The request body"
// @Success 204
// @Failure 400 {object} common.Body "Invalid JSON or command rejected"
// @Failure 404 {object} common.Body "Account does not exist"
// @Failure 409 {object} common.Body "Too much write contention"
// @Router /accounts/{account_id}/commands [post]
func (h *AccountsRoutesHandler) applyCommand(c *gin.Context) {
	var accountId = eventlog.ID(c.Param(accountIdPathKey))
	var envelope account.CommandEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		handleJsonSerdesErr(c, err)
	} else {
		if err := h.Controller.ApplyCommand(c.Request.Context(), accountId, &envelope); err == nil {
			c.Status(http.StatusNoContent)
		} else {
			c.JSON(err.StatusCode, err.Body)
		}
	}
}

// @Summary Get an Account
// @ID get-existing-account
// @Tags accounts
// @Description Retrieves an Account's read model
// @Accept  json
// @Produce  json
// @Param   account_id path string true "The id of the Account"
// @Success 200 {object} account.View
// @Failure 404 {object} common.Body "Account does not exist"
// @Router /accounts/{account_id} [get]
func (h *AccountsRoutesHandler) get(c *gin.Context) {
	var accountId = eventlog.ID(c.Param(accountIdPathKey))
	if v, err := h.Controller.Get(c.Request.Context(), accountId); err == nil {
		c.JSON(http.StatusOK, v)
	} else {
		c.JSON(err.StatusCode, err.Body)
	}
}
