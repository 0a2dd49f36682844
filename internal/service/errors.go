package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/storage"
)

// toConnectError maps domain errors to Connect codes. Errors that already
// carry a code pass through unchanged.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict), errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, calculator.ErrNoMembers), errors.Is(err, calculator.ErrAmountOutOfRange):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
