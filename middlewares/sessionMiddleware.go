package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bitbucket.org/mmdatafocus/procurement_backend/utils"
)

const (
	HeaderBusinessId    = "X-Business-Id"
	HeaderUserId        = "X-User-Id"
	HeaderUserName      = "X-User-Name"
	HeaderCorrelationId = "X-Correlation-Id"
)

// SessionMiddleware copies the caller identity headers into the request context.
// A correlation id is generated when the caller sends none and is echoed back.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		correlationId := c.Request.Header.Get(HeaderCorrelationId)
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Writer.Header().Set(HeaderCorrelationId, correlationId)

		if businessId := c.Request.Header.Get(HeaderBusinessId); businessId != "" {
			ctx = utils.SetBusinessIdInContext(ctx, businessId)
		}
		if raw := c.Request.Header.Get(HeaderUserId); raw != "" {
			userId, err := strconv.Atoi(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + HeaderUserId})
				return
			}
			ctx = utils.SetUserIdInContext(ctx, userId)
		}
		if userName := c.Request.Header.Get(HeaderUserName); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireBusiness rejects requests without a tenant.
func RequireBusiness() gin.HandlerFunc {
	return func(c *gin.Context) {
		if businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context()); !ok || businessId == "" {
			TenantContextMissingCounter.Inc()
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": HeaderBusinessId + " header is required"})
			return
		}
		c.Next()
	}
}
