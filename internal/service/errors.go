package service

import "errors"

var (
	ErrInstanceAlreadyMounted = errors.New("impression instance already mounted")
	ErrInstanceNotFound       = errors.New("impression instance not found")
	ErrDealIDRequired         = errors.New("deal id is required")
	ErrInvalidRatio           = errors.New("visibility ratio must be within [0, 1]")
	ErrTrackingUnavailable    = errors.New("view tracking is shutting down")

	ErrSweeperRunning    = errors.New("binding sweeper is already running")
	ErrSweeperNotRunning = errors.New("binding sweeper is not running")

	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrTokenInvalid             = errors.New("invalid token")
	ErrTokenUnexpectedSignature = errors.New("unexpected token signing method")
	ErrTokenNotAdmin            = errors.New("token does not carry the admin role")
)
