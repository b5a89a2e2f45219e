package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "ccip-relay.backend/internal/domain/errors"
	"ccip-relay.backend/internal/interfaces/http/response"
	"ccip-relay.backend/pkg/crypto"
	"ccip-relay.backend/pkg/jwt"
	"ccip-relay.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	APIKeyHeader = "X-API-Key"
	// OperatorKey is the context key for the authenticated operator
	OperatorKey = "operator"

	apiKeyOperator = "api-key"
)

// OperatorAuth accepts either a bearer JWT issued by jwtService or an
// X-API-Key matching apiKeyHash. A nil service or empty hash disables that
// method; with both disabled every request passes.
func OperatorAuth(jwtService *jwt.JWTService, apiKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtService == nil && apiKeyHash == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if key := c.GetHeader(APIKeyHeader); key != "" {
			if apiKeyHash == "" || !crypto.CheckSecret(key, apiKeyHash) {
				logger.Warn(ctx, "API key rejected", zap.String("path", c.Request.URL.Path))
				response.Abort(c, domainerrors.Unauthorized("Invalid API key"))
				return
			}
			c.Set(OperatorKey, apiKeyOperator)
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			response.Abort(c, domainerrors.Unauthorized("Authentication required (Bearer token or X-API-Key)"))
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) || jwtService == nil {
			response.Abort(c, domainerrors.Unauthorized("Invalid authorization format. Use: Bearer <token>"))
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			logger.Warn(ctx, "Bearer token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrExpiredToken) {
				response.Abort(c, domainerrors.Unauthorized("Token has expired"))
				return
			}
			response.Abort(c, domainerrors.Unauthorized("Invalid token"))
			return
		}

		c.Set(OperatorKey, claims.Operator)
		c.Next()
	}
}

// GetOperator returns the authenticated operator, if any.
func GetOperator(c *gin.Context) (string, bool) {
	op := c.GetString(OperatorKey)
	return op, op != ""
}
