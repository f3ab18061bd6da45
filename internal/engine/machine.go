package engine

import (
	"time"

	"camera-privacy-buttons/internal/logger"
	"camera-privacy-buttons/internal/models"
)

// The privacy state machine has two states, PrivacyOff and PrivacyOn,
// encoded as state.PrivacyEnabled. Transitions are guarded by the
// current state plus the pending flag, never by edge counts, so
// duplicate events collapse into no-ops.

// restore installs a persisted record, defaulting to PrivacyOff when
// none exists or the record violates the enabled_at invariant.
func (c *cameraRuntime) restore(persisted models.PrivacyState, found bool) {
	c.state = models.PrivacyState{CameraName: c.spec.Name}
	if !found {
		return
	}

	if !persisted.Consistent() {
		logger.Warnf("camera %s: persisted state is inconsistent (privacy_enabled=%v, enabled_at=%v), defaulting to privacy off",
			c.spec.Name, persisted.PrivacyEnabled, persisted.EnabledAt)
		return
	}

	c.state.PrivacyEnabled = persisted.PrivacyEnabled
	c.state.EnabledAt = persisted.EnabledAt
}

// canStart reports whether a transition toward enable may be dispatched
// now. False while another transition is in flight or when the camera is
// already in the target state.
func (c *cameraRuntime) canStart(enable bool) bool {
	if c.pending {
		return false
	}
	return c.state.PrivacyEnabled != enable
}

// timeoutDue reports whether the auto-disable window has elapsed.
func (c *cameraRuntime) timeoutDue(now time.Time) bool {
	if !c.state.PrivacyEnabled || c.state.EnabledAt == nil {
		return false
	}
	if c.spec.TimeoutMinutes <= 0 {
		return false
	}
	return now.Sub(*c.state.EnabledAt) >= c.spec.Timeout()
}

// commit applies a confirmed transition and returns the state it
// replaced. Only called from the run loop, after the adapter confirmed
// the privacy toggle.
func (c *cameraRuntime) commit(enable bool, at time.Time) models.PrivacyState {
	before := c.state
	if enable {
		t := at
		c.state.PrivacyEnabled = true
		c.state.EnabledAt = &t
	} else {
		c.state.PrivacyEnabled = false
		c.state.EnabledAt = nil
	}
	return before
}

// ledTarget returns the level the status LED should be driven to:
// on (1) exactly when privacy is off, unless a manual override is set.
func (c *cameraRuntime) ledTarget() int {
	if c.ledOverride != nil {
		if *c.ledOverride {
			return 1
		}
		return 0
	}
	if c.state.PrivacyEnabled {
		return 0
	}
	return 1
}
