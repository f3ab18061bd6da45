package engine

import (
	"time"

	"camera-privacy-buttons/internal/button"
	"camera-privacy-buttons/internal/gpio"
	"camera-privacy-buttons/internal/models"
)

// Camera binds a configured spec to its acquired GPIO lines. Led is nil
// when the camera has no status LED.
type Camera struct {
	Spec  models.CameraSpec
	Input gpio.Input
	Led   gpio.Output
}

// Publisher decouples the engine from the MQTT implementation.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// StateStore is the persistence surface the engine needs.
type StateStore interface {
	Load(camera string) (models.PrivacyState, bool, error)
	Save(state models.PrivacyState) error
}

// cameraRuntime is the engine's per-camera mutable state. It is touched
// only from the run loop.
type cameraRuntime struct {
	spec      models.CameraSpec
	input     gpio.Input
	led       gpio.Output
	debouncer *button.Debouncer

	state   models.PrivacyState
	pending bool // adapter call in flight for this camera

	ledOverride *bool // manual override from the external CLI; nil = follow state
	ledValue    int   // last value driven, -1 before the first write
}

// transitionResult is what a transition worker reports back to the loop.
type transitionResult struct {
	camera string
	id     string
	reason string // models.TransitionPressed or models.TransitionTimeout
	enable bool
	at     time.Time // when the transition was initiated
	err    error
}

// ledOverrideRequest carries OverrideLed/ClearLedOverride calls into the
// run loop.
type ledOverrideRequest struct {
	camera string
	value  *bool
}

type EngineOption func(*Engine)

// WithPublisher enables transition event publishing on the given topic.
func WithPublisher(pub Publisher, topic string) EngineOption {
	return func(e *Engine) {
		e.publisher = pub
		e.eventsTopic = topic
	}
}

// WithClock replaces the wall clock, used by tests to simulate time.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func WithDebounce(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.debounce = d
	}
}

func WithPollingInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.pollInterval = d
	}
}

// WithStartupDelay sets the one-shot delay before the first tick.
func WithStartupDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.startupDelay = d
	}
}

// WithShutdownGrace bounds how long Run waits for in-flight adapter
// calls after cancellation.
func WithShutdownGrace(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.shutdownGrace = d
	}
}

// WithCallTimeout bounds a single remote adapter call.
func WithCallTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.callTimeout = d
	}
}
