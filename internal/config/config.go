// Package config loads the daemon configuration from YAML. The result is
// fixed for the life of the process.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/renameio"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/soil-sensor/internal/cycle"
	"github.com/sweeney/soil-sensor/internal/logic"
	"github.com/sweeney/soil-sensor/internal/power"
	"github.com/sweeney/soil-sensor/internal/sensor"
)

// Config represents the daemon configuration.
type Config struct {
	Mode        string        `yaml:"mode"`
	LogLevel    string        `yaml:"log_level"`
	Calibration logic.Profile `yaml:"calibration"`
	Cycle       CycleConfig   `yaml:"cycle"`
	Storage     StorageConfig `yaml:"storage"`
	Sensor      SensorConfig  `yaml:"sensor"`
	Power       PowerConfig   `yaml:"power"`
	HTTP        HTTPConfig    `yaml:"http"`
}

// CycleConfig contains duty-cycle timings.
type CycleConfig struct {
	Window        time.Duration `yaml:"window"`
	Interval      time.Duration `yaml:"interval"`
	Sleep         time.Duration `yaml:"sleep"`
	RecoveryDelay time.Duration `yaml:"recovery_delay"`
}

// StorageConfig contains the persisted file locations.
type StorageConfig struct {
	LogPath     string `yaml:"log_path"`
	CounterPath string `yaml:"counter_path"`
}

// SensorConfig contains the hardware wiring.
type SensorConfig struct {
	Chip       string `yaml:"chip"`
	DHTLine    int    `yaml:"dht_line"`
	I2CBus     string `yaml:"i2c_bus"` // empty selects the first bus
	ADCAddress uint16 `yaml:"adc_address"`
	ADCChannel int    `yaml:"adc_channel"`
}

// PowerConfig contains the power-saving sleep settings.
type PowerConfig struct {
	WakeAlarm string `yaml:"wake_alarm"`
}

// HTTPConfig contains the status page settings. An empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Mode:     string(cycle.ModeDevelopment),
		LogLevel: "info",
		Calibration: logic.Profile{
			DryReading:       49525,
			SaturatedReading: 20947,
		},
		Cycle: CycleConfig{
			Window:        60 * time.Second,
			Interval:      2 * time.Second,
			Sleep:         15 * time.Minute,
			RecoveryDelay: 10 * time.Second,
		},
		Storage: StorageConfig{
			LogPath:     "leituras.csv",
			CounterPath: "contador.txt",
		},
		Sensor: SensorConfig{
			Chip:       sensor.DefaultChip,
			DHTLine:    sensor.DefaultDHTLine,
			ADCAddress: sensor.DefaultADCAddress,
			ADCChannel: sensor.DefaultADCChannel,
		},
		Power: PowerConfig{
			WakeAlarm: power.DefaultWakeAlarm,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; missing fields are filled from the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save writes the configuration to a YAML file atomically.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := renameio.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills fields an explicit empty value would leave unusable.
// Absent keys already carry their defaults because Load decodes onto
// Default. A zero calibration reading or sleep is a valid setting and is
// kept as written.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	if c.Cycle.Window == 0 {
		c.Cycle.Window = def.Cycle.Window
	}
	if c.Cycle.Interval == 0 {
		c.Cycle.Interval = def.Cycle.Interval
	}
	if c.Cycle.RecoveryDelay == 0 {
		c.Cycle.RecoveryDelay = def.Cycle.RecoveryDelay
	}

	if c.Storage.LogPath == "" {
		c.Storage.LogPath = def.Storage.LogPath
	}
	if c.Storage.CounterPath == "" {
		c.Storage.CounterPath = def.Storage.CounterPath
	}

	if c.Sensor.Chip == "" {
		c.Sensor.Chip = def.Sensor.Chip
	}
	if c.Sensor.DHTLine == 0 {
		c.Sensor.DHTLine = def.Sensor.DHTLine
	}
	if c.Sensor.ADCAddress == 0 {
		c.Sensor.ADCAddress = def.Sensor.ADCAddress
	}

	if c.Power.WakeAlarm == "" {
		c.Power.WakeAlarm = def.Power.WakeAlarm
	}
}

// Validate checks the configuration as a whole.
func (c *Config) Validate() error {
	if _, err := c.LevelValue(); err != nil {
		return err
	}
	if c.Sensor.ADCChannel < 0 || c.Sensor.ADCChannel > 3 {
		return fmt.Errorf("adc channel must be 0-3, got %d", c.Sensor.ADCChannel)
	}
	cc, err := c.CycleConfig()
	if err != nil {
		return err
	}
	return cc.Validate()
}

// CycleConfig returns the cycle controller configuration.
func (c *Config) CycleConfig() (cycle.Config, error) {
	mode, err := cycle.ParseMode(c.Mode)
	if err != nil {
		return cycle.Config{}, err
	}
	return cycle.Config{
		Profile:       c.Calibration,
		Window:        c.Cycle.Window,
		Interval:      c.Cycle.Interval,
		Sleep:         c.Cycle.Sleep,
		RecoveryDelay: c.Cycle.RecoveryDelay,
		Mode:          mode,
	}, nil
}

// ReaderConfig returns the hardware reader configuration.
func (c *Config) ReaderConfig() sensor.Config {
	return sensor.Config{
		Chip:       c.Sensor.Chip,
		DHTLine:    c.Sensor.DHTLine,
		I2CBus:     c.Sensor.I2CBus,
		ADCAddress: c.Sensor.ADCAddress,
		ADCChannel: c.Sensor.ADCChannel,
	}
}

// LevelValue parses LogLevel.
func (c *Config) LevelValue() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
