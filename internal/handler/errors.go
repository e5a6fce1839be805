package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"finbot/internal/domain"
	"finbot/internal/httputil"
)

// respondWithError maps domain errors to problem responses.
func respondWithError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	var validationErrs validation.Errors
	var abort *domain.IngestionAbortError

	switch {
	case errors.As(err, &validationErrs):
		httputil.RespondError(w, http.StatusBadRequest, validationErrs.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrLoopBudgetExceeded):
		httputil.RespondError(w, http.StatusServiceUnavailable, "the assistant could not finish within its step budget; please retry")
	case errors.As(err, &abort):
		httputil.RespondError(w, http.StatusBadGateway, abort.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
