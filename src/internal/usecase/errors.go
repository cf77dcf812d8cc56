package usecase

import (
	"errors"

	"ledger-service/src/internal/repository"
	httpError "ledger-service/src/pkg/http-error"
)

// mapLedgerError translates the repository error taxonomy into transport
// errors with a stable kind and readable reason. Concurrency conflicts
// only reach here after internal retries are exhausted.
func mapLedgerError(err error) *httpError.CommonError {
	var errObj *httpError.CommonError

	switch {
	case errors.Is(err, repository.ErrWalletNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrEscrowNotFound),
		errors.Is(err, repository.ErrPayoutNotFound):
		errObj = httpError.NewNotFound()
	case errors.Is(err, repository.ErrInsufficientFunds):
		errObj = httpError.NewUnprocessableEntity()
		errObj.ResponseCode = "INSUFFICIENT_FUNDS"
	case errors.Is(err, repository.ErrWalletNotOperational):
		errObj = httpError.NewUnprocessableEntity()
		errObj.ResponseCode = "WALLET_NOT_OPERATIONAL"
	case errors.Is(err, repository.ErrLimitExceeded):
		errObj = httpError.NewUnprocessableEntity()
		errObj.ResponseCode = "LIMIT_EXCEEDED"
	case errors.Is(err, repository.ErrConcurrencyConflict),
		errors.Is(err, repository.ErrInvalidStateTransition),
		errors.Is(err, repository.ErrDuplicateReference):
		errObj = httpError.NewConflict()
	default:
		errObj = httpError.NewInternalServerError()
	}

	errObj.Message = err.Error()
	return errObj
}
