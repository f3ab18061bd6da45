package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"camera-privacy-buttons/internal/models"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks fatal configuration errors. The daemon refuses to
// start when Load returns an error wrapping it.
var ErrInvalid = errors.New("invalid configuration")

const (
	defaultDebounceSeconds   = 0.3
	defaultPollingSeconds    = 0.1
	defaultStartupDelay      = 5
	defaultShutdownGrace     = 3
	defaultStateFileTemplate = "/var/lib/camera-privacy-buttons/privacy_state_%s.json"
	defaultGPIOChip          = "gpiochip0"
	defaultMQTTClientID      = "camera-privacy-buttons"
	defaultEventsTopic       = "cameras/privacy/events"
)

// LoadConfig reads the configuration from a file, applies defaults and
// environment overrides, and validates it.
func LoadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg models.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file: %v", ErrInvalid, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *models.Config) {
	g := &cfg.GlobalSettings
	if g.DebounceSeconds == 0 {
		g.DebounceSeconds = defaultDebounceSeconds
	}
	if g.PollingIntervalSeconds == 0 {
		g.PollingIntervalSeconds = defaultPollingSeconds
	}
	if g.StartupDelaySeconds == 0 {
		g.StartupDelaySeconds = defaultStartupDelay
	}
	if g.ShutdownGraceSeconds == 0 {
		g.ShutdownGraceSeconds = defaultShutdownGrace
	}
	if g.StateFilePathTemplate == "" {
		g.StateFilePathTemplate = defaultStateFileTemplate
	}
	if g.LogLevel == "" {
		g.LogLevel = "INFO"
	}
	if cfg.GPIOChip == "" {
		cfg.GPIOChip = defaultGPIOChip
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = defaultMQTTClientID
	}
	if cfg.MQTT.EventsTopic == "" {
		cfg.MQTT.EventsTopic = defaultEventsTopic
	}
}

// applyEnvOverrides lets broker credentials come from the environment
// (PRIVACY_MQTT_BROKER, PRIVACY_MQTT_USER, PRIVACY_MQTT_PASSWORD) so
// secrets can stay out of the config file.
func applyEnvOverrides(cfg *models.Config) {
	v := viper.New()
	v.SetEnvPrefix("privacy")
	v.AutomaticEnv()

	if broker := v.GetString("mqtt_broker"); broker != "" {
		cfg.MQTT.Broker = broker
	}
	if user := v.GetString("mqtt_user"); user != "" {
		cfg.MQTT.User = user
	}
	if password := v.GetString("mqtt_password"); password != "" {
		cfg.MQTT.Password = password
	}
}

// Validate checks the camera table and global settings. Any error here
// is fatal at startup, never deferred to the run loop.
func Validate(cfg *models.Config) error {
	g := cfg.GlobalSettings
	if g.DebounceSeconds <= 0 {
		return fmt.Errorf("%w: debounce_seconds must be positive", ErrInvalid)
	}
	if g.PollingIntervalSeconds <= 0 {
		return fmt.Errorf("%w: polling_interval_seconds must be positive", ErrInvalid)
	}
	if g.StartupDelaySeconds < 0 {
		return fmt.Errorf("%w: startup_delay_seconds must not be negative", ErrInvalid)
	}
	if !strings.Contains(g.StateFilePathTemplate, "%s") {
		return fmt.Errorf("%w: state_file_path_template must contain %%s", ErrInvalid)
	}

	names := make(map[string]bool)
	pins := make(map[int]string)
	enabledCount := 0

	claim := func(pin int, owner string) error {
		if prev, taken := pins[pin]; taken {
			return fmt.Errorf("%w: GPIO pin %d claimed by both %q and %q", ErrInvalid, pin, prev, owner)
		}
		pins[pin] = owner
		return nil
	}

	for _, cam := range cfg.Cameras {
		if cam.Name == "" {
			return fmt.Errorf("%w: camera with empty name", ErrInvalid)
		}
		if names[cam.Name] {
			return fmt.Errorf("%w: duplicate camera name %q", ErrInvalid, cam.Name)
		}
		names[cam.Name] = true

		if !cam.Enabled {
			continue
		}
		enabledCount++

		if cam.InputPin <= 0 {
			return fmt.Errorf("%w: camera %q has no input_pin", ErrInvalid, cam.Name)
		}
		if err := claim(cam.InputPin, cam.Name); err != nil {
			return err
		}
		if cam.LedPin != nil {
			if *cam.LedPin <= 0 {
				return fmt.Errorf("%w: camera %q has invalid led_pin %d", ErrInvalid, cam.Name, *cam.LedPin)
			}
			if err := claim(*cam.LedPin, cam.Name); err != nil {
				return err
			}
		}
		if cam.TimeoutMinutes < 0 {
			return fmt.Errorf("%w: camera %q has negative timeout_minutes", ErrInvalid, cam.Name)
		}
	}

	if enabledCount == 0 {
		return fmt.Errorf("%w: no enabled cameras", ErrInvalid)
	}

	return nil
}

// EnabledCameras returns the subset of the camera table that is enabled,
// preserving config order.
func EnabledCameras(cfg *models.Config) []models.CameraSpec {
	out := make([]models.CameraSpec, 0, len(cfg.Cameras))
	for _, cam := range cfg.Cameras {
		if cam.Enabled {
			out = append(out, cam)
		}
	}
	return out
}
