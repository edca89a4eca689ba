package identity

// Error kinds mirror the provider error-kind strings the web and CLI
// clients pattern-match on.
const (
	KindNotAuthorized     = "NotAuthorizedException"
	KindUserNotFound      = "UserNotFoundException"
	KindUserNotConfirmed  = "UserNotConfirmedException"
	KindUsernameExists    = "UsernameExistsException"
	KindInvalidPassword   = "InvalidPasswordException"
	KindCodeMismatch      = "CodeMismatchException"
	KindExpiredCode       = "ExpiredCodeException"
	KindInvalidParameter  = "InvalidParameterException"
	KindLimitExceeded     = "LimitExceededException"
	KindInternalError     = "InternalErrorException"
)

// Error is the tagged error object returned by every identity
// operation, serialized as {"__type": kind, "message": ...}.
type Error struct {
	Kind    string `json:"__type"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Kind + ": " + e.Message }

func errf(kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }
