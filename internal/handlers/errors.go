package handlers

import (
	"errors"
	"net/http"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/pkg/utils"
)

// writeError maps ledger error classes onto HTTP status codes: bad input is
// 400, missing records are 404, precondition failures are 409, an exhausted
// retry budget is 503.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsValidation(err):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case ledger.IsNotFound(err):
		utils.Error(w, http.StatusNotFound, err.Error())
	case ledger.IsStateConflict(err):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrTransactionConflict):
		utils.Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}
