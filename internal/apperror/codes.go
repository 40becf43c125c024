package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField      Code = "REQUIRED_FIELD"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidFormat      Code = "INVALID_FORMAT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Engine-specific error codes
const (
	// Exchange access errors
	CodeQuoteUnavailable    Code = "QUOTE_UNAVAILABLE"
	CodeSwapExecutionFailed Code = "SWAP_EXECUTION_FAILED"
	CodeBalanceFetchFailed  Code = "BALANCE_FETCH_FAILED"
	CodeTokenNotAvailable   Code = "TOKEN_NOT_AVAILABLE"
	CodeInvalidTokenClass   Code = "INVALID_TOKEN_CLASS"

	// Venue connectivity errors
	CodeVenueConnectionFailed Code = "VENUE_CONNECTION_FAILED"
	CodeVenueAPIError         Code = "VENUE_API_ERROR"
	CodeVenueRateLimited      Code = "VENUE_RATE_LIMITED"

	// Event stream errors
	CodeStreamConnectionError Code = "STREAM_CONNECTION_ERROR"
	CodeStreamReconnecting    Code = "STREAM_RECONNECTING"
	CodeStreamClosed          Code = "STREAM_CLOSED"

	// Trade execution errors
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeCapacityExceeded  Code = "CAPACITY_EXCEEDED"
	CodeUnknownExecution  Code = "UNKNOWN_EXECUTION"
	CodeInvalidTradeSize  Code = "INVALID_TRADE_SIZE"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
