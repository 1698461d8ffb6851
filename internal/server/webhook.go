package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// @Summary      Payment Webhook
// @Description  Ingest a payment provider event. Deliveries are deduplicated
// @Description  on the provider's event id, so retries are safe.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        provider  path  string  true  "Payment provider"
// @Success      200  {object}  paymentdomain.Result
// @Router       /webhooks/payment/{provider} [post]
func (s *Server) PaymentWebhook(c *gin.Context) {
	provider := c.Param("provider")

	if !s.webhookLimiter.Allow(provider + "|" + c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": gin.H{"code": "rate_limited"}})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.IngestWebhook(c.Request.Context(), provider, payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.Duplicate {
		s.log.Debug("duplicate webhook delivery", zap.String("provider", provider))
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
