package core

import "errors"

var (
	// ErrLookupFailed means a member status query could not complete.
	ErrLookupFailed = errors.New("core: member lookup failed")
	// ErrGatewayActionFailed means a delete, send or restrict call failed.
	ErrGatewayActionFailed = errors.New("core: gateway action failed")
	// ErrResolutionFailed means a command target could not be identified.
	ErrResolutionFailed = errors.New("core: target resolution failed")
	// ErrPermissionDenied means the invoker is not an administrator or owner.
	ErrPermissionDenied = errors.New("core: permission denied")

	errMissingTarget = errors.New("missing @username argument")
)
