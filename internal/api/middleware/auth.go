package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"videosplit/internal/api/errors"
	"videosplit/internal/app/model"
	"videosplit/internal/app/repository"
)

const accountContextKey = "account"

// APIKeyAuth resolves the X-API-Key header to an active account and stores it
// on the gin context. Requests without a valid key are rejected before any
// handler runs.
func APIKeyAuth(accounts repository.AccountDAO, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			HandleError(c, errors.NewUnauthorizedError("Missing X-API-Key header"))
			return
		}

		account, err := accounts.GetByAPIKey(key)
		if err != nil {
			if err == repository.ErrNotFound {
				HandleError(c, errors.NewUnauthorizedError("Invalid API key"))
				return
			}
			logger.Error("api key lookup failed", "error", err, "request_id", c.GetString("request_id"))
			HandleError(c, errors.NewInternalError("Authentication unavailable"))
			return
		}
		if !account.IsActive {
			HandleError(c, errors.NewForbiddenError("Account is disabled"))
			return
		}

		c.Set(accountContextKey, account)
		c.Next()
	}
}

// AccountFrom returns the authenticated account set by APIKeyAuth.
func AccountFrom(c *gin.Context) *model.Account {
	v, ok := c.Get(accountContextKey)
	if !ok {
		return nil
	}
	account, _ := v.(*model.Account)
	return account
}
