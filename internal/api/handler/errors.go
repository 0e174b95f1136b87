package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/walletd/internal/accounts"
	"github.com/jmerrifield20/walletd/internal/ledger"
	"go.uber.org/zap"
)

const (
	msgBadRequest   = "Invalid JSON format in the request body"
	msgUserNotFound = "User not found"
	msgServerError  = "internal server error"
)

// statusFor maps a domain error to an HTTP status and the message rendered to
// the caller. accounts.ErrUnknownHandle means the token outlived its account;
// the login route handles its own 401 before reaching here.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrMissingField):
		return http.StatusBadRequest, msgBadRequest
	case errors.Is(err, accounts.ErrDuplicateContact):
		return http.StatusBadRequest, accounts.ErrDuplicateContact.Error()
	case errors.Is(err, accounts.ErrDuplicateHandle):
		return http.StatusBadRequest, accounts.ErrDuplicateHandle.Error()
	case errors.Is(err, accounts.ErrBadSecret):
		return http.StatusUnauthorized, accounts.ErrBadSecret.Error()
	case errors.Is(err, accounts.ErrUnknownHandle):
		return http.StatusNotFound, msgUserNotFound
	case errors.Is(err, ledger.ErrEntryNotFound):
		return http.StatusNotFound, ledger.ErrEntryNotFound.Error()
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

// writeError renders err as {"message": ...}. Unclassified errors are logged
// and hidden behind a generic message.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op, zap.Error(err))
	}
	c.JSON(status, gin.H{"message": msg})
}
