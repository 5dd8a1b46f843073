package util

import (
	"errors"
	"net/http"
)

func SuccessResponse(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"status": "success",
		"data":   data,
	}
}

func FailedResponse(err error) map[string]interface{} {
	return map[string]interface{}{
		"status":  "failed",
		"message": err.Error(),
	}
}

/*
* Map a taxonomy error onto the HTTP status the front end keys on.
* "No data" (404) must stay distinguishable from "operation rejected".
 */
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbiddenOperation):
		return http.StatusForbidden
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnlinkedIdentity), errors.Is(err, ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, ErrAllocationUnavailable), errors.Is(err, ErrAllocationConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
