package web

import (
	"html/template"
	"io"
	"log"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/greenhouse/internal/logic"
	"github.com/sweeney/greenhouse/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		now := time.Now()
		return strings.TrimSpace(humanize.RelTime(now.Add(-d), now, "", ""))
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return humanize.Time(t)
	},
	"comma": func(n int64) string {
		return humanize.Comma(n)
	},
	"onoff": logic.OnOff,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="15">
<title>Greenhouse</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Greenhouse</h1>

<h2>Readings</h2>
<table>
<tr><th>Clock</th><td>{{.Readings.Clock}}</td></tr>
<tr><th>Temperature</th><td>{{.Readings.Temperature}} &deg;C</td></tr>
<tr><th>Soil moisture</th><td>{{.Readings.MoisturePercent}}%</td></tr>
<tr><th>Light</th><td>{{.Readings.LightPercent}}%</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>Ventilation</th><td class="{{if .Outputs.Vent}}on{{else}}off{{end}}">{{onoff .Outputs.Vent}}</td></tr>
<tr><th>Sprinkler</th><td class="{{if .Outputs.Sprinkler}}on{{else}}off{{end}}">{{onoff .Outputs.Sprinkler}}</td></tr>
<tr><th>Grow light</th><td class="{{if .Outputs.Bulb}}on{{else}}off{{end}}">{{onoff .Outputs.Bulb}}</td></tr>
</table>

<h2>Cycle</h2>
<table>
<tr><th>State</th><td>{{.State}}</td></tr>
<tr><th>Counter</th><td>{{.Counter}}</td></tr>
<tr><th>Ticks</th><td>{{comma .Ticks}}</td></tr>
<tr><th>Full cycles</th><td>{{comma .FullCycles}}</td></tr>
<tr><th>Last full cycle</th><td>{{ago .LastFullCycle}}</td></tr>
<tr><th>Device errors</th><td>{{comma .DeviceErrors}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td>{{.LastError}} ({{ago .LastErrorAt}})</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}
