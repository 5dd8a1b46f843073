package util

import "errors"

/*
* Error taxonomy shared by every service.
* Callers branch with errors.Is; controllers map these to HTTP statuses.
* Only ErrAllocationConflict is retryable, everything else is terminal
* for the call that produced it.
 */
var (
	ErrNotFound              = errors.New("record not found")
	ErrAllocationConflict    = errors.New("id allocation lost a race, retry")
	ErrAllocationUnavailable = errors.New("id allocation unavailable after retries")
	ErrPayloadTooLarge       = errors.New("payload exceeds configured size limit")
	ErrForbiddenOperation    = errors.New("operation not permitted")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrSessionExpired        = errors.New("session expired or not found")
	ErrUnlinkedIdentity      = errors.New("no messaging account linked to this clinical identity")
	ErrUsernameTaken         = errors.New("username already exists")
	ErrDuplicateRecord       = errors.New("record already exists")
)
