package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/soil-sensor/internal/logic"
	"github.com/sweeney/soil-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"phaseOrStarting": func(p status.Phase) string {
		if p == "" {
			return "STARTING"
		}
		return string(p)
	},
	"stateClass": func(s logic.State) string {
		switch s {
		case logic.StateDry:
			return "dry"
		case logic.StateWet:
			return "wet"
		}
		return "mid"
	},
	"ms": func(ms int64) time.Duration {
		return time.Duration(ms) * time.Millisecond
	},
	"secs": func(d time.Duration) string {
		return fmt.Sprintf("%.1fs", d.Seconds())
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Soil Sensor</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.dry { color: #b5651d; font-weight: bold; }
.mid { color: #888; font-weight: bold; }
.wet { color: #1e6fd9; font-weight: bold; }
.fault { color: red; }
</style>
</head>
<body>
<h1>Soil Sensor</h1>

<h2>Last Reading</h2>
{{with .Last}}<table>
<tr><th>Cycle</th><td>{{.Cycle}}</td></tr>
<tr><th>Soil moisture</th><td id="moisture" class="{{stateClass .State}}">{{printf "%.1f" .Moisture}}% ({{.State}})</td></tr>
<tr><th>Temperature</th><td>{{printf "%.2f" .Temperature}} &deg;C</td></tr>
<tr><th>Air humidity</th><td>{{printf "%.2f" .Humidity}}%</td></tr>
<tr><th>ADC mean</th><td>{{printf "%.0f" .ADC}} ({{printf "%.2f" .Voltage}} V)</td></tr>
<tr><th>Samples</th><td>{{.Samples}} in {{secs .Duration}}</td></tr>
<tr><th>Timestamp</th><td>{{.Timestamp}}s after boot</td></tr>
</table>{{else}}<p>No cycle recorded yet.</p>{{end}}

<h2>Duty Cycle</h2>
<table>
<tr><th>Phase</th><td id="phase">{{phaseOrStarting .Phase}}</td></tr>
<tr><th>Last cycle</th><td>{{.LastCycle}}{{if .LastOutcome}} ({{.LastOutcome}}){{end}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td class="fault">{{.LastError}}</td></tr>{{end}}
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>Recorded</th><td>{{.Counts.Recorded}}</td></tr>
<tr><th>No samples</th><td>{{.Counts.NoSamples}}</td></tr>
<tr><th>Persistence faults</th><td>{{.Counts.PersistenceFaults}}</td></tr>
<tr><th>Unexpected faults</th><td>{{.Counts.UnexpectedFaults}}</td></tr>
</table>

{{if .Recent}}<h2>Recent Cycles</h2>
<table>
<tr><th>Cycle</th><th>Moisture</th><th>Temp</th><th>Humidity</th></tr>
{{range .Recent}}<tr><td>{{.Cycle}}</td><td class="{{stateClass .State}}">{{printf "%.1f" .Moisture}}% {{.State}}</td><td>{{printf "%.2f" .Temperature}}</td><td>{{printf "%.2f" .Humidity}}</td></tr>
{{end}}</table>{{end}}

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Mode</th><td>{{.Config.Mode}}</td></tr>
<tr><th>Window</th><td>{{ms .Config.WindowMs}} every {{ms .Config.IntervalMs}}</td></tr>
<tr><th>Sleep</th><td>{{ms .Config.SleepMs}}</td></tr>
<tr><th>Calibration</th><td>dry {{.Config.Profile.DryReading}}, saturated {{.Config.Profile.SaturatedReading}}</td></tr>
<tr><th>Log</th><td>{{.Config.LogPath}}</td></tr>
<tr><th>Counter</th><td>{{.Config.CounterPath}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
