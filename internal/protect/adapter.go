// Package protect defines the capability surface the controller needs
// from a camera-management session. The wire protocol lives outside this
// module; the engine only ever sees this interface.
package protect

import (
	"context"
	"errors"
	"fmt"
)

// IrMode selects the infrared illuminator behavior.
type IrMode string

const (
	IrOff  IrMode = "off"
	IrAuto IrMode = "auto"
)

// Sentinel outcomes the engine distinguishes. Anything else coming out
// of a Controller is treated as transient.
var (
	// ErrCameraNotFound means the named camera does not exist on the
	// remote system.
	ErrCameraNotFound = errors.New("camera not found")

	// ErrUnsupported means the camera model lacks the capability
	// (for example no controllable IR illuminator).
	ErrUnsupported = errors.New("capability not supported")
)

// TransientError wraps network and auth failures that may succeed on a
// later attempt.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient reports whether err is a retryable remote failure.
func Transient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// CameraInfo is the remote system's view of a camera, used at startup to
// validate that configured names exist.
type CameraInfo struct {
	ID   string
	Name string
}

// Controller is the capability set consumed by the state machine. Every
// call is independently fallible; the engine treats SetPrivacy failures
// as transition-aborting and the rest as best-effort.
type Controller interface {
	SetPrivacy(ctx context.Context, camera string, enabled bool) error
	SetLed(ctx context.Context, camera string, on bool) error
	SetIr(ctx context.Context, camera string, mode IrMode) error
	SetMic(ctx context.Context, camera string, on bool) error

	// Cameras enumerates the cameras the session can see.
	Cameras(ctx context.Context) ([]CameraInfo, error)
}

// FindCamera resolves a configured name against an enumeration result.
// Matching is case-sensitive, by name first and then by ID.
func FindCamera(cams []CameraInfo, nameOrID string) (CameraInfo, bool) {
	for _, c := range cams {
		if c.Name == nameOrID {
			return c, true
		}
	}
	for _, c := range cams {
		if c.ID == nameOrID {
			return c, true
		}
	}
	return CameraInfo{}, false
}
