// Command soil-sensor samples a capacitive soil probe and a DHT22, averages
// each window into one CSV row and duty-cycles the board between cycles.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lmittmann/tint"

	"github.com/sweeney/soil-sensor/internal/config"
	"github.com/sweeney/soil-sensor/internal/cycle"
	"github.com/sweeney/soil-sensor/internal/logic"
	"github.com/sweeney/soil-sensor/internal/power"
	"github.com/sweeney/soil-sensor/internal/sampling"
	"github.com/sweeney/soil-sensor/internal/sensor"
	"github.com/sweeney/soil-sensor/internal/status"
	"github.com/sweeney/soil-sensor/internal/store"
	"github.com/sweeney/soil-sensor/internal/web"
)

// openAttempts bounds the hardware open retries at startup.
const openAttempts = 5

type overrides struct {
	mode     string
	httpAddr string
	logLevel string
}

func main() {
	configPath := flag.String("config", "soil-sensor.yaml", "YAML config file (missing file uses defaults)")
	mode := flag.String("mode", "", `Override mode: "development" or "power-saving"`)
	readOnce := flag.Bool("read-once", false, "Read both sensors once, print and exit")
	httpAddr := flag.String("http", "", `HTTP status address, development mode only ("off" disables)`)
	logLevel := flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	writeConfig := flag.String("write-config", "", "Write the effective config to this path and exit")

	flag.Parse()

	cfg, err := loadConfig(*configPath, overrides{mode: *mode, httpAddr: *httpAddr, logLevel: *logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		return
	}
	level, _ := cfg.LevelValue()
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
	})))

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go interruptOn(sigCh, cancel)

	err = run(ctx, cfg, *readOnce)
	cancel()
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(path string, o overrides) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.mode != "" {
		cfg.Mode = o.mode
	}
	switch o.httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = o.httpAddr
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// interruptOn cancels the run on the first signal. The cycle in progress
// completes before the loop observes it.
func interruptOn(sig <-chan os.Signal, cancel context.CancelFunc) {
	s, ok := <-sig
	if !ok {
		return
	}
	slog.Info("received signal, stopping after the current step", "signal", signalName(s))
	cancel()
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func run(ctx context.Context, cfg *config.Config, readOnce bool) error {
	reader, err := openReader(ctx, cfg.ReaderConfig())
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}
	defer reader.Close()

	if readOnce {
		return printReading(os.Stdout, reader, cfg.Calibration)
	}

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	if cfg.Mode == string(cycle.ModeDevelopment) && cfg.HTTP.Addr != "" {
		seedTracker(tracker, cfg.Storage.LogPath)
		srv := web.New(cfg.HTTP.Addr, tracker, slog.Default())
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server failed", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	ctrl, err := newController(cfg, reader, tracker, power.RTCPowerOff{WakeAlarm: cfg.Power.WakeAlarm})
	if err != nil {
		return err
	}
	return ctrl.Run(ctx)
}

// openReader opens the sensor hardware, retrying while the buses come up
// after boot.
func openReader(ctx context.Context, rc sensor.Config) (*sensor.RealReader, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), openAttempts-1), ctx)
	return backoff.RetryNotifyWithData[*sensor.RealReader](func() (*sensor.RealReader, error) {
		return sensor.NewRealReader(rc)
	}, b, func(err error, next time.Duration) {
		slog.Warn("sensor open failed, retrying", "error", err, "in", next)
	})
}

// newController wires the sampling, persistence and sleep stages.
func newController(cfg *config.Config, reader sensor.Reader, tracker *status.Tracker, t power.Transition) (*cycle.Controller, error) {
	cc, err := cfg.CycleConfig()
	if err != nil {
		return nil, err
	}
	log := slog.Default()

	agg := sampling.New(reader, cc.Profile, nil, nil, log)
	agg.OnSample = func(tk sampling.Tick) {
		log.Debug("sample",
			"tick", tk.Index,
			"planned", tk.Planned,
			"adc", tk.Sample.ADC,
			"moisture_pct", tk.Moisture.Percentage,
			"state", tk.Moisture.State,
			"temperature_c", tk.Sample.Temperature,
			"humidity_pct", tk.Sample.Humidity,
		)
	}

	return cycle.New(cc, cycle.Deps{
		Collector: agg,
		Counter:   store.NewCounter(cfg.Storage.CounterPath, log),
		Records:   store.NewLog(cfg.Storage.LogPath),
		Sleeper:   cycle.NewSleeper(cc.Mode, t, log),
		Uptime:    power.UptimeSeconds,
		Tracker:   tracker,
		Log:       log,
	})
}

// seedTracker loads the tail of the log so the status page has history
// before the first cycle completes.
func seedTracker(tracker *status.Tracker, logPath string) {
	records, err := store.ReadRecords(logPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("log history unavailable", "path", logPath, "error", err)
		}
		return
	}
	if n := len(records); n > status.DefaultHistory {
		records = records[n-status.DefaultHistory:]
	}
	tracker.Seed(records)
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		Mode:        cfg.Mode,
		WindowMs:    cfg.Cycle.Window.Milliseconds(),
		IntervalMs:  cfg.Cycle.Interval.Milliseconds(),
		SleepMs:     cfg.Cycle.Sleep.Milliseconds(),
		Profile:     cfg.Calibration,
		LogPath:     cfg.Storage.LogPath,
		CounterPath: cfg.Storage.CounterPath,
		HTTPAddr:    cfg.HTTP.Addr,
	}
}

// printReading takes one sample of each sensor for bench checks.
func printReading(w io.Writer, r sensor.Reader, p logic.Profile) error {
	raw, err := r.ReadMoistureRaw()
	if err != nil {
		return fmt.Errorf("read moisture: %w", err)
	}
	m := logic.Map(raw, p)
	fmt.Fprintf(w, "Soil: ADC %d, %.2f V, %.1f%% (%s)\n", raw, logic.Voltage(float64(raw)), m.Percentage, m.State)

	air, err := r.ReadAtmospheric()
	if err != nil {
		return fmt.Errorf("read atmospheric: %w", err)
	}
	fmt.Fprintf(w, "Air: %.2f C, %.2f%% RH\n", air.Temperature, air.Humidity)
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
