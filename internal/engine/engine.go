package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"camera-privacy-buttons/internal/button"
	"camera-privacy-buttons/internal/logger"
	"camera-privacy-buttons/internal/metrics"
	"camera-privacy-buttons/internal/models"
	"camera-privacy-buttons/internal/protect"

	"github.com/google/uuid"
)

const (
	defaultDebounce      = 300 * time.Millisecond
	defaultPollInterval  = 100 * time.Millisecond
	defaultShutdownGrace = 3 * time.Second
	defaultCallTimeout   = 10 * time.Second
)

// Engine is the polling scheduler. A single goroutine owns the loop and
// is the only writer of camera state, the state store, and the LEDs;
// remote adapter calls run in one worker per in-flight transition and
// report back over the results channel.
type Engine struct {
	cameras []*cameraRuntime
	byName  map[string]*cameraRuntime

	adapter protect.Controller
	store   StateStore
	metrics *metrics.Metrics

	publisher   Publisher
	eventsTopic string

	debounce      time.Duration
	pollInterval  time.Duration
	startupDelay  time.Duration
	shutdownGrace time.Duration
	callTimeout   time.Duration

	now func() time.Time

	results   chan transitionResult
	overrides chan ledOverrideRequest
	inflight  sync.WaitGroup
}

func NewEngine(cameras []Camera, adapter protect.Controller, store StateStore, m *metrics.Metrics, opts ...EngineOption) *Engine {
	e := &Engine{
		byName:        make(map[string]*cameraRuntime),
		adapter:       adapter,
		store:         store,
		metrics:       m,
		debounce:      defaultDebounce,
		pollInterval:  defaultPollInterval,
		shutdownGrace: defaultShutdownGrace,
		callTimeout:   defaultCallTimeout,
		now:           time.Now,
		overrides:     make(chan ledOverrideRequest, 8),
	}

	for _, opt := range opts {
		opt(e)
	}

	for _, cam := range cameras {
		rt := &cameraRuntime{
			spec:      cam.Spec,
			input:     cam.Input,
			led:       cam.Led,
			debouncer: button.NewDebouncer(e.debounce),
			state:     models.PrivacyState{CameraName: cam.Spec.Name},
			ledValue:  -1,
		}
		e.cameras = append(e.cameras, rt)
		e.byName[cam.Spec.Name] = rt
	}

	// Buffered so a worker finishing during shutdown never blocks.
	e.results = make(chan transitionResult, len(cameras)+1)

	return e
}

// Restore loads each camera's persisted record. Load failures fall back
// to PrivacyOff; a restored timeout keeps its original start time, so an
// expired window fires on the first tick.
func (e *Engine) Restore() {
	for _, cam := range e.cameras {
		persisted, found, err := e.store.Load(cam.spec.Name)
		if err != nil {
			logger.Warnf("camera %s: failed to load state, defaulting to privacy off: %v", cam.spec.Name, err)
			found = false
		}
		cam.restore(persisted, found)
		e.setGauge(cam)

		if !cam.state.PrivacyEnabled {
			continue
		}
		if cam.spec.TimeoutMinutes > 0 {
			remaining := cam.spec.Timeout() - e.now().Sub(*cam.state.EnabledAt)
			if remaining <= 0 {
				logger.Infof("camera %s: restored privacy on, timeout already expired", cam.spec.Name)
			} else {
				logger.Infof("camera %s: restored privacy on, auto-disable in %v", cam.spec.Name, remaining.Round(time.Second))
			}
		} else {
			logger.Infof("camera %s: restored privacy on, no timeout configured", cam.spec.Name)
		}
	}
}

// Run drives the loop until ctx is canceled, then waits out in-flight
// transitions for at most the shutdown grace period.
func (e *Engine) Run(ctx context.Context) error {
	e.Restore()

	if e.startupDelay > 0 {
		logger.Infof("Waiting %v before first tick", e.startupDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.startupDelay):
		}
	}

	// LEDs reflect the restored state before the first button is read.
	for _, cam := range e.cameras {
		e.driveLed(cam)
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	logger.Infof("Privacy controller running, managing %d cameras", len(e.cameras))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down, waiting for in-flight transitions")
			e.drain()
			return ctx.Err()
		case res := <-e.results:
			e.applyResult(res)
		case req := <-e.overrides:
			e.applyLedOverride(req)
		case <-ticker.C:
			e.handleTick(e.now())
		}
	}
}

// OverrideLed forces a camera's LED on or off regardless of privacy
// state, for the external CLI collaborator. Safe to call from any
// goroutine.
func (e *Engine) OverrideLed(camera string, on bool) {
	v := on
	e.overrides <- ledOverrideRequest{camera: camera, value: &v}
}

// ClearLedOverride returns the LED to tracking privacy state.
func (e *Engine) ClearLedOverride(camera string) {
	e.overrides <- ledOverrideRequest{camera: camera}
}

func (e *Engine) handleTick(now time.Time) {
	for _, cam := range e.cameras {
		level, err := cam.input.Read()
		if err != nil {
			logger.Errorf("camera %s: failed to read button pin %d: %v", cam.spec.Name, cam.spec.InputPin, err)
		} else {
			// Buttons are pull-up wired: a falling stable edge is a press.
			if cam.debouncer.Sample(level, now) == button.EdgeFalling {
				e.handlePress(cam, now)
			}
		}

		if !cam.pending && cam.timeoutDue(now) {
			logger.Infof("camera %s: privacy timeout reached (%d minutes)", cam.spec.Name, cam.spec.TimeoutMinutes)
			e.beginTransition(cam, false, models.TransitionTimeout, now)
		}

		e.driveLed(cam)
	}
}

func (e *Engine) handlePress(cam *cameraRuntime, now time.Time) {
	if cam.pending {
		logger.Debugf("camera %s: press ignored, transition in flight", cam.spec.Name)
		return
	}
	e.beginTransition(cam, !cam.state.PrivacyEnabled, models.TransitionPressed, now)
}

// beginTransition dispatches the remote privacy toggle on a worker and
// marks the camera pending. State, store, and LED stay untouched until
// the worker's result confirms the remote accepted the change.
func (e *Engine) beginTransition(cam *cameraRuntime, enable bool, reason string, now time.Time) {
	if !cam.canStart(enable) {
		return
	}
	cam.pending = true

	res := transitionResult{
		camera: cam.spec.Name,
		id:     uuid.NewString(),
		reason: reason,
		enable: enable,
		at:     now,
	}
	logger.Infof("camera %s: transition %s started (%s, privacy -> %v)", res.camera, res.id, reason, enable)

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		res.err = e.callAdapter(res.camera, enable)
		e.results <- res
	}()
}

// callAdapter performs the remote side of a transition. The privacy
// toggle decides success; LED, IR, and microphone are best-effort.
func (e *Engine) callAdapter(camera string, enable bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.callTimeout)
	defer cancel()

	if err := e.adapter.SetPrivacy(ctx, camera, enable); err != nil {
		e.metrics.AdapterFailures.WithLabelValues(camera, "set_privacy").Inc()
		return err
	}

	if enable {
		e.bestEffort(ctx, camera, "set_led", func() error { return e.adapter.SetLed(ctx, camera, false) })
		e.bestEffort(ctx, camera, "set_ir", func() error { return e.adapter.SetIr(ctx, camera, protect.IrOff) })
		e.bestEffort(ctx, camera, "set_mic", func() error { return e.adapter.SetMic(ctx, camera, false) })
	} else {
		e.bestEffort(ctx, camera, "set_led", func() error { return e.adapter.SetLed(ctx, camera, true) })
		e.bestEffort(ctx, camera, "set_ir", func() error { return e.adapter.SetIr(ctx, camera, protect.IrAuto) })
		e.bestEffort(ctx, camera, "set_mic", func() error { return e.adapter.SetMic(ctx, camera, true) })
	}
	return nil
}

func (e *Engine) bestEffort(_ context.Context, camera, op string, call func() error) {
	err := call()
	if err == nil {
		return
	}
	if errors.Is(err, protect.ErrUnsupported) {
		logger.Debugf("camera %s: %s not supported by this model", camera, op)
		return
	}
	e.metrics.AdapterFailures.WithLabelValues(camera, op).Inc()
	logger.Warnf("camera %s: %s failed: %v", camera, op, err)
}

// applyResult is the confirmation half of a transition: commit, persist,
// publish, and re-drive the LED. Runs only on the loop goroutine.
func (e *Engine) applyResult(res transitionResult) {
	cam, ok := e.byName[res.camera]
	if !ok {
		return
	}
	cam.pending = false

	if res.err != nil {
		logger.Errorf("camera %s: transition %s aborted, set privacy %v failed: %v", res.camera, res.id, res.enable, res.err)
		return
	}

	before := cam.commit(res.enable, res.at)
	e.setGauge(cam)
	e.metrics.Transitions.WithLabelValues(res.camera, res.reason).Inc()

	if err := e.store.Save(cam.state); err != nil {
		// In-memory state stays authoritative; a restart may lose this
		// transition.
		e.metrics.PersistFailures.WithLabelValues(res.camera).Inc()
		logger.Errorf("camera %s: failed to persist state: %v", res.camera, err)
	}

	e.driveLed(cam)

	if res.enable {
		logger.Infof("camera %s: privacy enabled (%s)", res.camera, res.reason)
	} else {
		logger.Infof("camera %s: privacy disabled (%s)", res.camera, res.reason)
	}

	e.publish(res, before, cam.state)
}

func (e *Engine) publish(res transitionResult, before, after models.PrivacyState) {
	if e.publisher == nil {
		return
	}
	evt := models.TransitionEvent{
		ID:        res.id,
		Camera:    res.camera,
		Type:      res.reason,
		Before:    &before,
		After:     &after,
		Timestamp: e.now(),
	}
	if err := e.publisher.Publish(e.eventsTopic, evt); err != nil {
		logger.Warnf("camera %s: failed to publish transition event: %v", res.camera, err)
	}
}

func (e *Engine) applyLedOverride(req ledOverrideRequest) {
	cam, ok := e.byName[req.camera]
	if !ok {
		logger.Warnf("led override for unknown camera %s", req.camera)
		return
	}
	cam.ledOverride = req.value
	e.driveLed(cam)
}

func (e *Engine) driveLed(cam *cameraRuntime) {
	if cam.led == nil {
		return
	}
	target := cam.ledTarget()
	if target == cam.ledValue {
		return
	}
	if err := cam.led.Set(target); err != nil {
		logger.Errorf("camera %s: failed to drive LED pin: %v", cam.spec.Name, err)
		return
	}
	cam.ledValue = target
}

func (e *Engine) setGauge(cam *cameraRuntime) {
	v := 0.0
	if cam.state.PrivacyEnabled {
		v = 1.0
	}
	e.metrics.PrivacyEnabled.WithLabelValues(cam.spec.Name).Set(v)
}

// drain applies results from in-flight workers until they all finish or
// the grace period expires. Workers past the deadline are abandoned;
// their transitions were never committed or persisted.
func (e *Engine) drain() {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()

	deadline := time.NewTimer(e.shutdownGrace)
	defer deadline.Stop()

	for {
		select {
		case res := <-e.results:
			e.applyResult(res)
		case <-done:
			for {
				select {
				case res := <-e.results:
					e.applyResult(res)
				default:
					return
				}
			}
		case <-deadline.C:
			logger.Warn("shutdown grace period expired with transitions still in flight")
			return
		}
	}
}
