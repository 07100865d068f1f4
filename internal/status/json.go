package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/soil-sensor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Phase         string       `json:"phase"`
	LastCycle     uint64       `json:"last_cycle"`
	LastOutcome   string       `json:"last_outcome,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
	Last          *RecordJSON  `json:"last,omitempty"`
	Recent        []RecordJSON `json:"recent"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Counts        CountsJSON   `json:"cycle_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// RecordJSON is the JSON representation of a cycle record.
type RecordJSON struct {
	Cycle           uint64  `json:"cycle"`
	Timestamp       uint64  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_s"`
	Samples         int     `json:"samples"`
	ADC             float64 `json:"adc"`
	Voltage         float64 `json:"voltage_v"`
	Moisture        float64 `json:"moisture_pct"`
	State           string  `json:"state"`
	Temperature     float64 `json:"temperature_c"`
	Humidity        float64 `json:"humidity_pct"`
}

// CountsJSON is the JSON representation of cycle counts.
type CountsJSON struct {
	Cycles            int `json:"cycles"`
	Recorded          int `json:"recorded"`
	NoSamples         int `json:"no_samples"`
	PersistenceFaults int `json:"persistence_faults"`
	UnexpectedFaults  int `json:"unexpected_faults"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Mode             string `json:"mode"`
	WindowMs         int64  `json:"window_ms"`
	IntervalMs       int64  `json:"interval_ms"`
	SleepMs          int64  `json:"sleep_ms"`
	DryReading       uint16 `json:"dry_reading"`
	SaturatedReading uint16 `json:"saturated_reading"`
	LogPath          string `json:"log_path"`
	CounterPath      string `json:"counter_path"`
	HTTPAddr         string `json:"http_addr"`
}

func recordJSON(rec logic.CycleRecord) RecordJSON {
	return RecordJSON{
		Cycle:           rec.Cycle,
		Timestamp:       rec.Timestamp,
		DurationSeconds: logic.Round1(rec.Duration.Seconds()),
		Samples:         rec.Samples,
		ADC:             logic.Round1(rec.ADC),
		Voltage:         logic.Round2(rec.Voltage),
		Moisture:        logic.Round1(rec.Moisture),
		State:           string(rec.State),
		Temperature:     logic.Round2(rec.Temperature),
		Humidity:        logic.Round2(rec.Humidity),
	}
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Phase)
	if phase == "" {
		phase = "STARTING"
	}

	inner := StatusInner{
		Phase:         phase,
		LastCycle:     snap.LastCycle,
		LastOutcome:   string(snap.LastOutcome),
		LastError:     snap.LastError,
		Recent:        make([]RecordJSON, 0, len(snap.Recent)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			Cycles:            snap.Counts.Cycles,
			Recorded:          snap.Counts.Recorded,
			NoSamples:         snap.Counts.NoSamples,
			PersistenceFaults: snap.Counts.PersistenceFaults,
			UnexpectedFaults:  snap.Counts.UnexpectedFaults,
		},
		Config: ConfigJSON{
			Mode:             snap.Config.Mode,
			WindowMs:         snap.Config.WindowMs,
			IntervalMs:       snap.Config.IntervalMs,
			SleepMs:          snap.Config.SleepMs,
			DryReading:       snap.Config.Profile.DryReading,
			SaturatedReading: snap.Config.Profile.SaturatedReading,
			LogPath:          snap.Config.LogPath,
			CounterPath:      snap.Config.CounterPath,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}
	if snap.Last != nil {
		last := recordJSON(*snap.Last)
		inner.Last = &last
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	for _, rec := range snap.Recent {
		inner.Recent = append(inner.Recent, recordJSON(rec))
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
