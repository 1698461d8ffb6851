package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/customer/domain"
	leaddomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/lead/domain"
	paymentdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/payment/domain"
	plandomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan/domain"
	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
	subscriptiondomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription/domain"
	ticketdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/ticket/domain"
	"github.com/narmeshnigam/karyalaywebsite-sub001/pkg/db/pagination"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type apiError struct {
	status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string { return e.Code }

func invalidRequestError() error {
	return &apiError{status: http.StatusBadRequest, Code: "invalid_request", Message: "request body or query is malformed"}
}

func newValidationError(field, code, message string) error {
	return &apiError{status: http.StatusBadRequest, Code: code, Message: message, Field: field}
}

// AbortWithError maps domain errors onto HTTP responses. Unrecognized
// errors surface as 500 without leaking detail.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.status, gin.H{"error": api})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case isNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case isConflict(err):
		status, code = http.StatusConflict, err.Error()
	case isValidation(err):
		status, code = http.StatusBadRequest, err.Error()
	case errors.Is(err, portdomain.ErrNoAvailablePorts):
		status, code = http.StatusConflict, "no_available_ports"
	case errors.Is(err, portdomain.ErrStorageTransient):
		status, code = http.StatusServiceUnavailable, "storage_transient"
	case errors.Is(err, portdomain.ErrStorageFatal):
		status, code = http.StatusInternalServerError, "storage_fatal"
	case errors.Is(err, ErrServiceUnavailable):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code}})
}

func isNotFound(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound,
		customerdomain.ErrNotFound,
		plandomain.ErrNotFound,
		subscriptiondomain.ErrNotFound,
		ticketdomain.ErrNotFound,
		portdomain.ErrPortNotFound,
		portdomain.ErrSubscriptionNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	for _, sentinel := range []error{
		portdomain.ErrAlreadyAssigned,
		portdomain.ErrPortNotAssigned,
		portdomain.ErrPortInUse,
		customerdomain.ErrEmailTaken,
		plandomain.ErrCodeTaken,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func isValidation(err error) bool {
	for _, sentinel := range []error{
		customerdomain.ErrInvalidID,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		plandomain.ErrInvalidID,
		plandomain.ErrInvalidCode,
		plandomain.ErrInvalidName,
		plandomain.ErrInvalidPrice,
		plandomain.ErrInvalidInterval,
		subscriptiondomain.ErrInvalidID,
		subscriptiondomain.ErrInvalidCustomer,
		subscriptiondomain.ErrInvalidPlan,
		subscriptiondomain.ErrInvalidStatus,
		ticketdomain.ErrInvalidID,
		ticketdomain.ErrInvalidCustomer,
		ticketdomain.ErrInvalidSubject,
		ticketdomain.ErrInvalidStatus,
		leaddomain.ErrInvalidName,
		leaddomain.ErrInvalidContact,
		paymentdomain.ErrInvalidProvider,
		paymentdomain.ErrInvalidPayload,
		paymentdomain.ErrInvalidEvent,
		paymentdomain.ErrInvalidSubscription,
		portdomain.ErrInvalidPort,
		portdomain.ErrTargetSubscriptionInvalid,
		pagination.ErrInvalidPageToken,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
