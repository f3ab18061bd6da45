package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"camera-privacy-buttons/internal/config"
	"camera-privacy-buttons/internal/engine"
	"camera-privacy-buttons/internal/gpio"
	"camera-privacy-buttons/internal/logger"
	"camera-privacy-buttons/internal/metrics"
	"camera-privacy-buttons/internal/models"
	"camera-privacy-buttons/internal/mqtt"
	"camera-privacy-buttons/internal/protect"
	"camera-privacy-buttons/internal/statestore"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "camera-privacy-buttons",
	Short: "GPIO privacy buttons for network cameras",
	Long: `Watches physical buttons wired to GPIO pins and toggles per-camera
privacy mode, with status LEDs, auto-disable timeouts, and state that
survives restarts.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the privacy button controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		enabled := config.EnabledCameras(cfg)
		fmt.Printf("Config OK: %d enabled cameras\n", len(enabled))
		for _, cam := range enabled {
			led := "none"
			if cam.LedPin != nil {
				led = fmt.Sprintf("%d", *cam.LedPin)
			}
			timeout := "never"
			if cam.TimeoutMinutes > 0 {
				timeout = fmt.Sprintf("%dm", cam.TimeoutMinutes)
			}
			fmt.Printf("  %s: button pin %d, led pin %s, auto-disable %s\n",
				cam.Name, cam.InputPin, led, timeout)
		}
		return nil
	},
}

var gpiotestCmd = &cobra.Command{
	Use:   "gpiotest",
	Short: "Exercise the configured buttons and LEDs",
	Long: `Blinks each camera's status LED, then watches the buttons until
interrupted. Run this to verify wiring before starting the daemon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return gpioTest()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(gpiotestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(cfg.GlobalSettings.LogLevel)
	logger.Infof("Loaded config from %s", cfgFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: cfg.MetricsListen, Handler: mux}
		go func() {
			logger.Infof("Metrics listening on %s", cfg.MetricsListen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("Metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	adapter := newController(cfg)
	cameras, err := resolveCameras(ctx, cfg, adapter)
	if err != nil {
		return err
	}

	chip, err := gpio.OpenChip(cfg.GPIOChip)
	if err != nil {
		return fmt.Errorf("opening GPIO chip: %w", err)
	}
	defer chip.Close()

	acquired, err := acquireLines(chip, cfg, cameras)
	if err != nil {
		return err
	}

	store := statestore.New(cfg.GlobalSettings.StateFilePathTemplate)

	opts := []engine.EngineOption{
		engine.WithDebounce(cfg.GlobalSettings.Debounce()),
		engine.WithPollingInterval(cfg.GlobalSettings.PollingInterval()),
		engine.WithStartupDelay(cfg.GlobalSettings.StartupDelay()),
		engine.WithShutdownGrace(cfg.GlobalSettings.ShutdownGrace()),
	}

	var client *mqtt.Client
	if cfg.MQTT.Broker != "" {
		client = mqtt.NewClient(cfg.MQTT)
		if err := client.Connect(); err != nil {
			return fmt.Errorf("connecting to MQTT broker: %w", err)
		}
		defer client.Disconnect()
		opts = append(opts, engine.WithPublisher(client, cfg.MQTT.EventsTopic))
	}

	eng := engine.NewEngine(acquired, adapter, store, m, opts...)

	if client != nil {
		if err := subscribeLedCommands(client, cfg.MQTT.EventsTopic, eng); err != nil {
			return fmt.Errorf("subscribing to LED command topic: %w", err)
		}
	}

	if err := eng.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

// ledCommand is the payload accepted on <events_topic>/led/set.
// "on" and "off" force the LED; "auto" returns it to tracking privacy
// state.
type ledCommand struct {
	Camera string `json:"camera"`
	Value  string `json:"value"`
}

func subscribeLedCommands(client *mqtt.Client, eventsTopic string, eng *engine.Engine) error {
	return client.Subscribe(eventsTopic+"/led/set", func(payload []byte) {
		var cmd ledCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			logger.Warnf("Ignoring malformed LED command: %v", err)
			return
		}
		switch cmd.Value {
		case "on":
			eng.OverrideLed(cmd.Camera, true)
		case "off":
			eng.OverrideLed(cmd.Camera, false)
		case "auto":
			eng.ClearLedOverride(cmd.Camera)
		default:
			logger.Warnf("Ignoring LED command with unknown value %q for camera %s", cmd.Value, cmd.Camera)
		}
	})
}

// newController builds the remote camera controller. The production
// session implementation lives out of tree and is swapped in here; the
// logging controller lets the daemon run on a bench without cameras.
func newController(cfg *models.Config) protect.Controller {
	dry := &protect.DryRun{}
	for _, cam := range config.EnabledCameras(cfg) {
		dry.KnownCameras = append(dry.KnownCameras, protect.CameraInfo{
			ID:   cam.Name,
			Name: cam.Name,
		})
	}
	return dry
}

// resolveCameras checks every enabled camera against the controller's
// inventory. A configured name the controller does not know is skipped
// with a warning; startup fails only when no camera remains.
func resolveCameras(ctx context.Context, cfg *models.Config, adapter protect.Controller) ([]models.CameraSpec, error) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	known, err := adapter.Cameras(listCtx)
	if err != nil {
		return nil, fmt.Errorf("listing cameras: %w", err)
	}

	var cameras []models.CameraSpec
	for _, cam := range config.EnabledCameras(cfg) {
		if _, ok := protect.FindCamera(known, cam.Name); !ok {
			logger.Warnf("camera %s not found on the controller, skipping", cam.Name)
			continue
		}
		cameras = append(cameras, cam)
	}
	if len(cameras) == 0 {
		return nil, fmt.Errorf("no usable cameras")
	}
	return cameras, nil
}

// gpioTest blinks every configured LED and then polls the buttons until
// interrupted, reporting each press.
func gpioTest() error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(cfg.GlobalSettings.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chip, err := gpio.OpenChip(cfg.GPIOChip)
	if err != nil {
		return fmt.Errorf("opening GPIO chip: %w", err)
	}
	defer chip.Close()

	cameras := config.EnabledCameras(cfg)
	inputs := make(map[string]gpio.Input)
	for _, cam := range cameras {
		input, err := chip.RequestButton(cam.InputPin)
		if err != nil {
			return fmt.Errorf("camera %s: %w", cam.Name, err)
		}
		inputs[cam.Name] = input

		if cam.LedPin == nil {
			continue
		}
		led, err := chip.RequestLed(*cam.LedPin, 0)
		if err != nil {
			return fmt.Errorf("camera %s: %w", cam.Name, err)
		}
		fmt.Printf("Blinking LED for %s (pin %d)...\n", cam.Name, *cam.LedPin)
		for i := 0; i < 3; i++ {
			led.Set(1)
			time.Sleep(500 * time.Millisecond)
			led.Set(0)
			time.Sleep(500 * time.Millisecond)
		}
	}

	fmt.Println("Watching buttons, press each one (Ctrl+C to exit)")
	last := make(map[string]int)
	for name := range inputs {
		last[name] = 1
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	pressed := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			for _, cam := range cameras {
				if pressed[cam.Name] {
					fmt.Printf("  %s: button OK\n", cam.Name)
				} else {
					fmt.Printf("  %s: button NOT detected, check wiring on pin %d\n", cam.Name, cam.InputPin)
				}
			}
			return nil
		case <-ticker.C:
			for name, input := range inputs {
				level, err := input.Read()
				if err != nil {
					logger.Errorf("camera %s: read failed: %v", name, err)
					continue
				}
				if last[name] == 1 && level == 0 {
					fmt.Printf("Button pressed: %s\n", name)
					pressed[name] = true
				}
				last[name] = level
			}
		}
	}
}

// acquireLines requests the button and LED lines for each camera. A
// line failure is fatal unless continue_without_camera allows dropping
// that camera.
func acquireLines(chip *gpio.Chip, cfg *models.Config, cameras []models.CameraSpec) ([]engine.Camera, error) {
	var acquired []engine.Camera
	for _, spec := range cameras {
		input, err := chip.RequestButton(spec.InputPin)
		if err != nil {
			if !cfg.GlobalSettings.ContinueWithoutCamera {
				return nil, fmt.Errorf("camera %s: %w", spec.Name, err)
			}
			logger.Warnf("camera %s: %v, skipping", spec.Name, err)
			continue
		}

		var led gpio.Output
		if spec.LedPin != nil {
			led, err = chip.RequestLed(*spec.LedPin, 0)
			if err != nil {
				if !cfg.GlobalSettings.ContinueWithoutCamera {
					return nil, fmt.Errorf("camera %s: %w", spec.Name, err)
				}
				logger.Warnf("camera %s: %v, running without LED", spec.Name, err)
				led = nil
			}
		}

		acquired = append(acquired, engine.Camera{Spec: spec, Input: input, Led: led})
	}
	if len(acquired) == 0 {
		return nil, fmt.Errorf("no cameras acquired any GPIO lines")
	}
	return acquired, nil
}
