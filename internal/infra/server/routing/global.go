package routing

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lloydmeta/banques/internal/api/models/common"
)

var notFoundErr = common.ApiError{
	StatusCode: http.StatusNotFound,
	Body: common.Body{
		Message: "No such route.",
	},
}

var noMethodErr = common.ApiError{
	StatusCode: http.StatusMethodNotAllowed,
	Body: common.Body{
		Message: "No such route.",
	},
}

func NoRoute(c *gin.Context) {
	c.JSON(notFoundErr.StatusCode, notFoundErr.Body)
}

func NoMethod(c *gin.Context) {
	c.JSON(notFoundErr.StatusCode, noMethodErr.Body)
}

func handleApiErr(c *gin.Context, apiError *common.ApiError) {
	c.JSON(apiError.StatusCode, apiError.Body)
}

func handleJsonSerdesErr(c *gin.Context, err error) {
	errResp := common.ApiError{
		StatusCode: http.StatusBadRequest,
		Body: common.Body{
			Message: err.Error(),
		},
	}
	handleApiErr(c, &errResp)
}

// Pinger checks that the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthRoutesHandler struct {
	Pinger Pinger
}

func (h *HealthRoutesHandler) RegisterRoutes(ginEngine *gin.Engine) {
	ginEngine.GET("/healthz", h.healthz)
}

// @Summary Health check
// @ID healthz
// @Tags health
// @Description Reports whether the service and its store are healthy
// @Produce  json
// @Success 200 {object} map[string]string
// @Failure 503 {object} common.Body "Store unreachable"
// @Router /healthz [get]
func (h *HealthRoutesHandler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.Pinger.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, common.Body{Message: err.Error()})
	} else {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
