package domain

import "errors"

var (
	ErrSubscriptionNotFound      = errors.New("subscription_not_found")
	ErrAlreadyAssigned           = errors.New("already_assigned")
	ErrNoAvailablePorts          = errors.New("no_available_ports")
	ErrPortNotAssigned           = errors.New("port_not_assigned")
	ErrTargetSubscriptionInvalid = errors.New("target_subscription_invalid")
	ErrPortNotFound              = errors.New("port_not_found")
	ErrInvalidPort               = errors.New("invalid_port")
	ErrPortInUse                 = errors.New("port_in_use")

	// ErrStorageTransient marks timeouts and lock contention; the whole
	// operation is safe to retry.
	ErrStorageTransient = errors.New("storage_transient")
	// ErrStorageFatal marks integrity violations that need manual
	// reconciliation; callers must not retry.
	ErrStorageFatal = errors.New("storage_fatal")
)
