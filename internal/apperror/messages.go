package apperror

// messages maps error codes to their default human-readable messages.
var messages = map[Code]string{
	CodeRequiredField:      "required field is missing",
	CodeInvalidInput:       "input is invalid",
	CodeInvalidFormat:      "format is invalid",
	CodeInvalidState:       "operation not allowed in current state",
	CodeNotFound:           "resource not found",
	CodeConfigurationError: "configuration is invalid",

	CodeExternalServiceError: "external service call failed",
	CodeServiceTimeout:       "external service timed out",
	CodeServiceUnavailable:   "external service unavailable",
	CodeRateLimitExceeded:    "rate limit exceeded",

	CodeInternalError: "internal error",
	CodeUnknownError:  "unknown error",

	CodeQuoteUnavailable:    "venue could not price the requested swap",
	CodeSwapExecutionFailed: "swap submission was rejected by the venue",
	CodeBalanceFetchFailed:  "failed to fetch wallet balances",
	CodeTokenNotAvailable:   "token is not tradable on the venue",
	CodeInvalidTokenClass:   "token class key is malformed",

	CodeVenueConnectionFailed: "could not connect to the venue",
	CodeVenueAPIError:         "venue API returned an error",
	CodeVenueRateLimited:      "venue rate limited the request",

	CodeStreamConnectionError: "event stream connection error",
	CodeStreamReconnecting:    "event stream reconnecting",
	CodeStreamClosed:          "event stream closed",

	CodeInsufficientFunds: "insufficient balance for trade amount",
	CodeCapacityExceeded:  "maximum concurrent trades reached",
	CodeUnknownExecution:  "trade execution not found",
	CodeInvalidTradeSize:  "trade size outside configured bounds",

	CodeCircuitOpen: "circuit breaker is open",
}
