package services

import "errors"

// ValidationError is a user-correctable input problem. Only the first
// violated rule is surfaced per attempt.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// GatewayError is a card-level failure from tokenization or from the
// relay's application error field. Retryable by resubmission.
type GatewayError struct {
	Reason string
}

func (e *GatewayError) Error() string { return e.Reason }

// AssetLoadError aborts a render attempt when the background image cannot
// be loaded. There is no blank-page fallback.
type AssetLoadError struct {
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return "failed to load asset " + e.Path + ": " + e.Err.Error()
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

var (
	ErrNetwork          = errors.New("network error")
	ErrGatewayNotReady  = errors.New("payment gateway not ready")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrRenderInProgress = errors.New("a render is already in progress")
	ErrLastItem         = errors.New("an invoice must keep at least one item")
	ErrWrongState       = errors.New("operation not allowed in current state")
	ErrStale            = errors.New("checkout was cancelled before the result arrived")
)
