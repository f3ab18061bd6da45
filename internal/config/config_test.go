package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"camera-privacy-buttons/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
cameras:
  - name: Bedroom
    input_pin: 18
    enabled: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	g := cfg.GlobalSettings
	if g.DebounceSeconds != 0.3 {
		t.Errorf("DebounceSeconds = %v, want 0.3", g.DebounceSeconds)
	}
	if g.PollingIntervalSeconds != 0.1 {
		t.Errorf("PollingIntervalSeconds = %v, want 0.1", g.PollingIntervalSeconds)
	}
	if g.StartupDelaySeconds != 5 {
		t.Errorf("StartupDelaySeconds = %d, want 5", g.StartupDelaySeconds)
	}
	if g.StateFilePathTemplate == "" {
		t.Error("StateFilePathTemplate not defaulted")
	}
	if cfg.GPIOChip != "gpiochip0" {
		t.Errorf("GPIOChip = %q, want gpiochip0", cfg.GPIOChip)
	}
	if cfg.MQTT.ClientID != "camera-privacy-buttons" {
		t.Errorf("MQTT.ClientID = %q", cfg.MQTT.ClientID)
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	path := writeConfig(t, `
cameras:
  - name: Bedroom
    input_pin: 18
    enabled: true
    bogus_field: 12
`)

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("LoadConfig() error = %v, want ErrInvalid for unknown field", err)
	}
}

func TestValidate(t *testing.T) {
	pin := func(n int) *int { return &n }

	base := func(cams ...models.CameraSpec) *models.Config {
		cfg := &models.Config{Cameras: cams}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     *models.Config
		wantErr bool
	}{
		{
			name: "valid two cameras",
			cfg: base(
				models.CameraSpec{Name: "Bedroom", InputPin: 18, LedPin: pin(24), TimeoutMinutes: 60, Enabled: true},
				models.CameraSpec{Name: "Kitchen", InputPin: 20, Enabled: true},
			),
			wantErr: false,
		},
		{
			name: "duplicate name",
			cfg: base(
				models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: true},
				models.CameraSpec{Name: "Bedroom", InputPin: 20, Enabled: true},
			),
			wantErr: true,
		},
		{
			name: "duplicate input pin",
			cfg: base(
				models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: true},
				models.CameraSpec{Name: "Kitchen", InputPin: 18, Enabled: true},
			),
			wantErr: true,
		},
		{
			name: "led pin collides with input pin",
			cfg: base(
				models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: true},
				models.CameraSpec{Name: "Kitchen", InputPin: 20, LedPin: pin(18), Enabled: true},
			),
			wantErr: true,
		},
		{
			name: "disabled camera does not claim its pin",
			cfg: base(
				models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: false},
				models.CameraSpec{Name: "Kitchen", InputPin: 18, Enabled: true},
			),
			wantErr: false,
		},
		{
			name: "missing input pin",
			cfg: base(
				models.CameraSpec{Name: "Bedroom", Enabled: true},
			),
			wantErr: true,
		},
		{
			name: "negative timeout",
			cfg: base(
				models.CameraSpec{Name: "Bedroom", InputPin: 18, TimeoutMinutes: -1, Enabled: true},
			),
			wantErr: true,
		},
		{
			name:    "no enabled cameras",
			cfg:     base(models.CameraSpec{Name: "Bedroom", InputPin: 18, Enabled: false}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestEnabledCameras(t *testing.T) {
	cfg := &models.Config{Cameras: []models.CameraSpec{
		{Name: "A", InputPin: 1, Enabled: true},
		{Name: "B", InputPin: 2, Enabled: false},
		{Name: "C", InputPin: 3, Enabled: true},
	}}

	got := EnabledCameras(cfg)
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Errorf("EnabledCameras() = %+v, want A and C in order", got)
	}
}
