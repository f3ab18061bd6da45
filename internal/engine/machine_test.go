package engine

import (
	"testing"
	"time"

	"camera-privacy-buttons/internal/models"
)

func newRuntime(spec models.CameraSpec) *cameraRuntime {
	return &cameraRuntime{
		spec:     spec,
		state:    models.PrivacyState{CameraName: spec.Name},
		ledValue: -1,
	}
}

func TestRestore(t *testing.T) {
	enabledAt := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		persisted   models.PrivacyState
		found       bool
		wantEnabled bool
		wantAt      *time.Time
	}{
		{
			name:        "no record defaults to off",
			found:       false,
			wantEnabled: false,
		},
		{
			name:        "privacy on restored with timestamp",
			persisted:   models.PrivacyState{CameraName: "Bedroom", PrivacyEnabled: true, EnabledAt: &enabledAt},
			found:       true,
			wantEnabled: true,
			wantAt:      &enabledAt,
		},
		{
			name:        "privacy off restored",
			persisted:   models.PrivacyState{CameraName: "Bedroom"},
			found:       true,
			wantEnabled: false,
		},
		{
			name:        "enabled with nil timestamp coerced to off",
			persisted:   models.PrivacyState{CameraName: "Bedroom", PrivacyEnabled: true},
			found:       true,
			wantEnabled: false,
		},
		{
			name:        "disabled with stale timestamp coerced to off",
			persisted:   models.PrivacyState{CameraName: "Bedroom", EnabledAt: &enabledAt},
			found:       true,
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := newRuntime(models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: true})
			cam.restore(tt.persisted, tt.found)

			if cam.state.PrivacyEnabled != tt.wantEnabled {
				t.Errorf("PrivacyEnabled = %v, want %v", cam.state.PrivacyEnabled, tt.wantEnabled)
			}
			if !cam.state.Consistent() {
				t.Error("restored state violates the enabled_at invariant")
			}
			if tt.wantAt != nil && (cam.state.EnabledAt == nil || !cam.state.EnabledAt.Equal(*tt.wantAt)) {
				t.Errorf("EnabledAt = %v, want %v", cam.state.EnabledAt, tt.wantAt)
			}
		})
	}
}

func TestCanStart(t *testing.T) {
	cam := newRuntime(models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: true})

	if !cam.canStart(true) {
		t.Error("canStart(true) from PrivacyOff = false")
	}
	if cam.canStart(false) {
		t.Error("canStart(false) from PrivacyOff = true, transition would be a no-op")
	}

	cam.pending = true
	if cam.canStart(true) {
		t.Error("canStart(true) with a transition in flight = true")
	}
	cam.pending = false

	cam.commit(true, time.Now())
	if cam.canStart(true) {
		t.Error("canStart(true) from PrivacyOn = true, transition would be a no-op")
	}
	if !cam.canStart(false) {
		t.Error("canStart(false) from PrivacyOn = false")
	}
}

func TestTimeoutDue(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

	cam := newRuntime(models.CameraSpec{Name: "Bedroom", InputPin: 18, TimeoutMinutes: 60, Enabled: true})
	if cam.timeoutDue(t0.Add(2 * time.Hour)) {
		t.Error("timeoutDue with privacy off = true")
	}

	cam.commit(true, t0)
	if cam.timeoutDue(t0.Add(59 * time.Minute)) {
		t.Error("timeout fired before the window elapsed")
	}
	if !cam.timeoutDue(t0.Add(60 * time.Minute)) {
		t.Error("timeout did not fire at exactly the window boundary")
	}
	if !cam.timeoutDue(t0.Add(61 * time.Minute)) {
		t.Error("timeout did not fire after the window elapsed")
	}

	noTimeout := newRuntime(models.CameraSpec{Name: "Kitchen", InputPin: 20, TimeoutMinutes: 0, Enabled: true})
	noTimeout.commit(true, t0)
	if noTimeout.timeoutDue(t0.Add(1000 * time.Hour)) {
		t.Error("timeoutDue with timeout_minutes=0 = true")
	}
}

func TestCommitKeepsInvariant(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	cam := newRuntime(models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: true})

	before := cam.commit(true, t0)
	if before.PrivacyEnabled {
		t.Error("commit returned wrong before state")
	}
	if !cam.state.Consistent() || cam.state.EnabledAt == nil || !cam.state.EnabledAt.Equal(t0) {
		t.Errorf("state after enable = %+v", cam.state)
	}

	before = cam.commit(false, t0.Add(time.Minute))
	if !before.PrivacyEnabled {
		t.Error("commit returned wrong before state")
	}
	if !cam.state.Consistent() || cam.state.EnabledAt != nil {
		t.Errorf("state after disable = %+v", cam.state)
	}
}

func TestLedTarget(t *testing.T) {
	cam := newRuntime(models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: true})

	// LED on exactly when privacy is off.
	if cam.ledTarget() != 1 {
		t.Error("ledTarget with privacy off != 1")
	}
	cam.commit(true, time.Now())
	if cam.ledTarget() != 0 {
		t.Error("ledTarget with privacy on != 0")
	}

	on := true
	cam.ledOverride = &on
	if cam.ledTarget() != 1 {
		t.Error("manual override on not honored")
	}
	off := false
	cam.ledOverride = &off
	cam.commit(false, time.Now())
	if cam.ledTarget() != 0 {
		t.Error("manual override off not honored")
	}
	cam.ledOverride = nil
	if cam.ledTarget() != 1 {
		t.Error("cleared override did not return LED to state tracking")
	}
}
