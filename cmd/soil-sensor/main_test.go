package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/soil-sensor/internal/config"
	"github.com/sweeney/soil-sensor/internal/logic"
	"github.com/sweeney/soil-sensor/internal/power"
	"github.com/sweeney/soil-sensor/internal/sensor"
	"github.com/sweeney/soil-sensor/internal/status"
	"github.com/sweeney/soil-sensor/internal/store"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		assert.Equal(t, canonical, got)
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	require.NotNil(t, info)
	assert.Equal(t, status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}, *info)
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	assert.Nil(t, readNetworkInfo())
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")

	info := readNetworkInfo()
	require.NotNil(t, info)
	assert.Equal(t, "connected", info.Status)
	assert.Empty(t, info.Type)
	assert.Empty(t, info.IP)
	assert.Empty(t, info.SSID)
}

func TestSignalName(t *testing.T) {
	assert.Equal(t, "SIGINT", signalName(syscall.SIGINT))
	assert.Equal(t, "SIGTERM", signalName(syscall.SIGTERM))
	assert.Equal(t, "UNKNOWN", signalName(syscall.SIGHUP))
}

func TestInterruptOnCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGTERM

	interruptOn(sig, cancel)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soil-sensor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: development\nhttp:\n  addr: \":8080\"\n"), 0o644))

	cfg, err := loadConfig(path, overrides{mode: "power-saving", logLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "power-saving", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	cfg, err = loadConfig(path, overrides{httpAddr: "off"})
	require.NoError(t, err)
	assert.Empty(t, cfg.HTTP.Addr)

	_, err = loadConfig(path, overrides{mode: "turbo"})
	assert.Error(t, err)
}

func TestPrintReading(t *testing.T) {
	r := sensor.NewFakeReader([]sensor.Sample{
		{ADC: 35236, Air: sensor.Atmospheric{Temperature: 23.456, Humidity: 61.2}},
	})
	var buf bytes.Buffer

	require.NoError(t, printReading(&buf, r, config.Default().Calibration))
	assert.Equal(t, "Soil: ADC 35236, 1.77 V, 50.0% (Intermediário)\nAir: 23.46 C, 61.20% RH\n", buf.String())
}

func TestPrintReadingFault(t *testing.T) {
	r := sensor.NewFakeReader([]sensor.Sample{
		{ADC: 30000, Err: sensor.ErrSensorFault},
	})
	var buf bytes.Buffer

	err := printReading(&buf, r, config.Default().Calibration)
	assert.ErrorIs(t, err, sensor.ErrSensorFault)
	assert.Contains(t, buf.String(), "Soil: ADC 30000")
}

func TestSeedTracker(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "leituras.csv")
	l := store.NewLog(logPath)
	for i := 1; i <= status.DefaultHistory+6; i++ {
		require.NoError(t, l.Append(logic.CycleRecord{Cycle: uint64(i), State: logic.StateDry}))
	}

	tr := status.NewTracker(time.Now(), status.Config{})
	seedTracker(tr, logPath)

	snap := tr.Snapshot()
	require.Len(t, snap.Recent, status.DefaultHistory)
	assert.Equal(t, uint64(7), snap.Recent[0].Cycle)
	assert.Equal(t, uint64(status.DefaultHistory+6), snap.LastCycle)

	empty := status.NewTracker(time.Now(), status.Config{})
	seedTracker(empty, filepath.Join(dir, "missing.csv"))
	assert.Nil(t, empty.Snapshot().Last)
}

func TestStatusConfig(t *testing.T) {
	cfg := config.Default()
	sc := statusConfig(cfg)
	assert.Equal(t, int64(60000), sc.WindowMs)
	assert.Equal(t, int64(2000), sc.IntervalMs)
	assert.Equal(t, int64(900000), sc.SleepMs)
	assert.Equal(t, cfg.Calibration, sc.Profile)
}

// TestControllerPowerSaving runs the wired controller against a fake reader
// and a fake power transition until the context expires.
func TestControllerPowerSaving(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Mode = "power-saving"
	cfg.Cycle.Window = 20 * time.Millisecond
	cfg.Cycle.Interval = 10 * time.Millisecond
	cfg.Cycle.Sleep = time.Hour
	cfg.Storage.LogPath = filepath.Join(dir, "leituras.csv")
	cfg.Storage.CounterPath = filepath.Join(dir, "contador.txt")
	require.NoError(t, cfg.Validate())

	r := sensor.NewFakeReader([]sensor.Sample{
		{ADC: 49525, Air: sensor.Atmospheric{Temperature: 20, Humidity: 50}},
		{ADC: 20947, Air: sensor.Atmospheric{Temperature: 22, Humidity: 60}},
	})
	ft := &power.FakeTransition{}
	tr := status.NewTracker(time.Now(), statusConfig(cfg))

	ctrl, err := newController(cfg, r, tr, ft)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, ctrl.Run(ctx))

	records, err := store.ReadRecords(cfg.Storage.LogPath)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	first := records[0]
	assert.Equal(t, uint64(1), first.Cycle)
	assert.Equal(t, 2, first.Samples)
	assert.Equal(t, 50.0, first.Moisture)
	assert.Equal(t, logic.StateIntermediate, first.State)
	assert.Equal(t, 21.0, first.Temperature)

	// the final cycle may observe the deadline before its sleep phase
	assert.GreaterOrEqual(t, len(ft.Calls), len(records)-1)
	assert.LessOrEqual(t, len(ft.Calls), len(records))
	for _, d := range ft.Calls {
		assert.Equal(t, time.Hour, d)
	}

	counter := store.NewCounter(cfg.Storage.CounterPath, nil)
	assert.Equal(t, uint64(len(records)), counter.Current())
	assert.Equal(t, len(records), tr.Snapshot().Counts.Recorded)
}

func TestControllerRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "warp"
	_, err := newController(cfg, sensor.NewFakeReader(nil), nil, &power.FakeTransition{})
	assert.Error(t, err)
}
