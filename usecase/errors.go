package usecase

import (
	"errors"
	"fmt"
)

// Token unavailability reasons. Handlers map these onto HTTP statuses and the
// automation bridge echoes them to the workflow engine.
const (
	ReasonNotConnected         = "not_connected"
	ReasonRequiresReconnection = "requires_reconnection"
	ReasonTransient            = "transient_unavailable"
)

// TokenUnavailableError says why no usable access token could be produced for
// a (creator, platform) pair.
type TokenUnavailableError struct {
	Platform string
	Reason   string
}

func (e *TokenUnavailableError) Error() string {
	return fmt.Sprintf("no usable %s token: %s", e.Platform, e.Reason)
}

var (
	ErrUnauthorized = errors.New("no creator identity on request")
	ErrForbidden    = errors.New("creator does not own this resource")

	// ErrContentPending rejects publishing a video whose media upload has not
	// completed yet.
	ErrContentPending = errors.New("video content still uploading")

	// ErrDispatchFailed marks an immediate external publish whose trigger
	// never reached the workflow engine.
	ErrDispatchFailed = errors.New("could not reach automation engine")

	ErrUnsupportedPlatform = errors.New("unsupported platform")

	ErrUnsupportedStatus = errors.New("unsupported status")

	ErrScheduleInPast = errors.New("scheduled_at must be in the future")
)
