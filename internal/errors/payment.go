package errors

var (
	ErrIntentNotFound = &DomainError{
		Code:    "INTENT_NOT_FOUND",
		Message: "payment intent not found",
	}
	ErrInvalidTransition = &DomainError{
		Code:    "INVALID_TRANSITION",
		Message: "illegal payment status transition",
	}
	ErrInvalidStatus = &DomainError{
		Code:    "INVALID_STATUS",
		Message: "unknown payment status",
	}
	ErrInvalidSignature = &DomainError{
		Code:    "INVALID_SIGNATURE",
		Message: "webhook signature verification failed",
	}
	ErrGatewayRejected = &DomainError{
		Code:    "GATEWAY_REJECTED",
		Message: "payment gateway rejected the charge",
	}
)
