package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/seat-heater/internal/status"
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
	"temp": func(v *float64) string {
		if v == nil {
			return "—"
		}
		return fmt.Sprintf("%.1f°C", *v)
	},
	"minutes": func(d time.Duration) int {
		return int(d / time.Minute)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Seat Heater</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Seat Heater</h1>

<h2>Heating</h2>
<table>
<tr><th>State</th><td class="{{if .Decision.Active}}on{{else}}off{{end}}">{{if .Decision.Active}}ON level {{.Decision.TargetLevel}}{{else}}OFF{{end}}</td></tr>
<tr><th>Ignition</th><td>{{.Ignition}}</td></tr>
<tr><th>Cabin</th><td>{{temp .Temperature.Cabin}}</td></tr>
<tr><th>Ambient</th><td>{{temp .Temperature.Ambient}}</td></tr>
<tr><th>Reason</th><td>{{.Decision.Reason}}{{if .Decision.Detail}} — {{.Decision.Detail}}{{end}}</td></tr>
{{if .Decision.TurnedOffByTimer}}<tr><th>Auto-off</th><td class="warn">timer expired</td></tr>{{end}}
</table>

<h2>Zones</h2>
<table>
{{range .Zones}}<tr><th>{{.Zone}}</th><td>level {{.LastSetLevel}}{{if .ManuallyDisabled}} <span class="warn">(switched off at console)</span>{{end}}{{if .OverrideLevel}} <span class="warn">(manual level {{.OverrideLevel}})</span>{{end}}</td></tr>
{{end}}</table>

<h2>Settings</h2>
<table>
<tr><th>Mode</th><td>{{.Settings.Mode}}</td></tr>
<tr><th>Adaptive</th><td>{{if .Settings.Adaptive}}yes{{else}}no{{end}}</td></tr>
<tr><th>Level</th><td>{{.Settings.FixedLevel}}</td></tr>
<tr><th>Check once at startup</th><td>{{if .Settings.CheckOnce}}yes{{else}}no{{end}}</td></tr>
<tr><th>Auto-off</th><td>{{if eq (minutes .Settings.AutoOff) 0}}disabled{{else}}{{minutes .Settings.AutoOff}}m{{end}}</td></tr>
<tr><th>Source</th><td>{{.Settings.Source}}</td></tr>
<tr><th>Threshold</th><td>{{.Settings.ThresholdC}}°C</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} — {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Activations</th><td>{{.Counts.Activations}}</td></tr>
<tr><th>Deactivations</th><td>{{.Counts.Deactivations}}</td></tr>
<tr><th>Timer offs</th><td>{{.Counts.TimerOffs}}</td></tr>
<tr><th>Manual overrides</th><td>{{.Counts.Overrides}}</td></tr>
<tr><th>Write failures</th><td>{{.Counts.WriteFailures}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/settings.json">settings</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
