package models

import "time"

// Config defines the user settings
type Config struct {
	GlobalSettings GlobalSettings `yaml:"global_settings"`
	MQTT           MQTTConfig     `yaml:"mqtt"`
	MetricsListen  string         `yaml:"metrics_listen"`
	GPIOChip       string         `yaml:"gpio_chip"`
	Cameras        []CameraSpec   `yaml:"cameras"`
}

// GlobalSettings are the knobs shared by all cameras.
type GlobalSettings struct {
	DebounceSeconds        float64 `yaml:"debounce_seconds"`
	PollingIntervalSeconds float64 `yaml:"polling_interval_seconds"`
	StartupDelaySeconds    int     `yaml:"startup_delay_seconds"`
	StateFilePathTemplate  string  `yaml:"state_file_path_template"`
	ContinueWithoutCamera  bool    `yaml:"continue_without_camera"`
	ShutdownGraceSeconds   int     `yaml:"shutdown_grace_seconds"`
	LogLevel               string  `yaml:"log_level"`
}

// Debounce returns the debounce window as a duration.
func (g GlobalSettings) Debounce() time.Duration {
	return time.Duration(g.DebounceSeconds * float64(time.Second))
}

// PollingInterval returns the tick period as a duration.
func (g GlobalSettings) PollingInterval() time.Duration {
	return time.Duration(g.PollingIntervalSeconds * float64(time.Second))
}

// StartupDelay returns the one-shot delay applied before the first tick.
func (g GlobalSettings) StartupDelay() time.Duration {
	return time.Duration(g.StartupDelaySeconds) * time.Second
}

// ShutdownGrace returns how long in-flight remote calls may run after a
// termination signal.
func (g GlobalSettings) ShutdownGrace() time.Duration {
	return time.Duration(g.ShutdownGraceSeconds) * time.Second
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	EventsTopic string `yaml:"events_topic"`
}

// CameraSpec is the static per-camera configuration. Immutable after load.
type CameraSpec struct {
	Name           string `yaml:"name"`            // case-sensitive match against the remote camera identity
	InputPin       int    `yaml:"input_pin"`       // button line, BCM numbering
	LedPin         *int   `yaml:"led_pin"`         // nil means no status LED
	TimeoutMinutes int    `yaml:"timeout_minutes"` // 0 = never auto-disable
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the auto-disable window, 0 when disabled.
func (c CameraSpec) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// PrivacyState is the persisted, authoritative record per camera.
// Invariant: EnabledAt is non-nil iff PrivacyEnabled.
type PrivacyState struct {
	CameraName     string     `json:"camera_name"`
	PrivacyEnabled bool       `json:"privacy_enabled"`
	EnabledAt      *time.Time `json:"enabled_at"`
}

// Consistent reports whether the record honors the EnabledAt invariant.
func (p PrivacyState) Consistent() bool {
	return p.PrivacyEnabled == (p.EnabledAt != nil)
}

// Transition event types
const (
	TransitionPressed = "pressed" // manual button toggle
	TransitionTimeout = "timeout" // auto-disable after the configured window
)

// TransitionEvent is the MQTT payload emitted after a confirmed transition.
type TransitionEvent struct {
	ID        string        `json:"id"`
	Camera    string        `json:"camera"`
	Type      string        `json:"type"`
	Before    *PrivacyState `json:"before"`
	After     *PrivacyState `json:"after"`
	Timestamp time.Time     `json:"timestamp"`
}
