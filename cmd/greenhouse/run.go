package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sweeney/greenhouse/internal/config"
	"github.com/sweeney/greenhouse/internal/cycle"
	"github.com/sweeney/greenhouse/internal/display"
	"github.com/sweeney/greenhouse/internal/gpio"
	"github.com/sweeney/greenhouse/internal/metrics"
	"github.com/sweeney/greenhouse/internal/mqtt"
	"github.com/sweeney/greenhouse/internal/status"
	"github.com/sweeney/greenhouse/internal/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the control loop",
	Long: `Run the control loop until SIGINT or SIGTERM.

All outputs are driven low before the first tick and again on exit.
MQTT, the HTTP status page and the serial console are enabled by
setting mqtt.broker, http.addr and serial.port in the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyRunFlags(cmd, cfg)
		return run(cfg)
	},
}

var (
	flagBroker string
	flagHTTP   string
	flagSerial string
)

func init() {
	runCmd.Flags().StringVar(&flagBroker, "broker", "", "MQTT broker URL, overrides mqtt.broker (empty disables)")
	runCmd.Flags().StringVar(&flagHTTP, "http", "", "HTTP status address, overrides http.addr (empty disables)")
	runCmd.Flags().StringVar(&flagSerial, "serial", "", "Serial console port, overrides serial.port (empty disables)")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overrides config values with flags given on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("broker") {
		cfg.MQTT.Broker = flagBroker
	}
	if cmd.Flags().Changed("http") {
		cfg.HTTP.Addr = flagHTTP
	}
	if cmd.Flags().Changed("serial") {
		cfg.Serial.Port = flagSerial
	}
}

func run(cfg *config.Config) error {
	console := setupLogging(cfg)
	defer console.Close()

	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	outputs, err := gpio.NewRealWriter(cfg.GPIO)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer outputs.Close()

	lcd, err := display.NewLCD(hw.owner, cfg.Bus.LCDAddress)
	if err != nil {
		return fmt.Errorf("init lcd: %w", err)
	}
	screen := display.NewScreen(lcd)

	ctrl := cycle.New(cycle.Devices{
		Temperature: hw.temperature,
		Clock:       hw.clock,
		Moisture:    hw.moisture,
		Light:       hw.light,
		Outputs:     outputs,
		Screen:      screen,
	}, cfg.Thresholds, nil)
	if err := ctrl.Init(); err != nil {
		log.Printf("init outputs: %v", err)
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		SerialPort:  cfg.Serial.Port,
		Calibration: cfg.Calibration,
		Thresholds:  cfg.Thresholds,
	})

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:             cfg.MQTT.Broker,
			ClientID:           cfg.MQTT.ClientID,
			OnConnectionChange: tracker.SetMQTTConnected,
		})
		if err != nil {
			log.Printf("mqtt: %v (telemetry disabled)", err)
		} else {
			publisher, mqttStatus = p, p
			defer p.Close()

			snap := tracker.Snapshot()
			startup := mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      "STARTUP",
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
			}
			if err := p.PublishSystem(startup); err != nil {
				log.Printf("failed to publish startup event: %v", err)
			} else {
				log.Printf("published startup event")
			}
		}
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	watchdog, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		log.Printf("systemd: watchdog: %v", err)
	}
	sdNotify(daemon.SdNotifyReady)

	log.Printf("started: tick=%v broker=%q heartbeat=%v", cfg.Tick, cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, loopDeps{
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		metrics:    m,
		heartbeat:  cfg.MQTT.Heartbeat,
		watchdog:   watchdog,
		notify:     sdNotify,
	}, time.Now, ticker.C, sigCh)
}

func sdNotify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Printf("systemd: notify: %v", err)
	}
}

// loopDeps are the optional collaborators of runLoop. Nil fields are skipped.
type loopDeps struct {
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	heartbeat  time.Duration // 0 disables
	watchdog   time.Duration // 0 disables
	notify     func(state string)
}

func runLoop(ctrl *cycle.Controller, d loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime
	lastPing := startTime

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if d.notify != nil {
				d.notify(daemon.SdNotifyStopping)
			}
			if d.publisher != nil {
				event := mqtt.SystemEvent{
					Timestamp: now(),
					Event:     "SHUTDOWN",
					Reason:    signalName,
					Retained:  true,
				}
				if d.tracker != nil {
					event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
				}
				if err := d.publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			rep := ctrl.Tick()
			t := now()

			if d.tracker != nil {
				d.tracker.Record(rep, t)
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
			}
			if d.metrics != nil {
				d.metrics.Observe(rep)
			}

			if rep.FullCycle && d.publisher != nil {
				err := d.publisher.PublishReadings(mqtt.ReadingsEvent{
					Timestamp: t,
					Readings:  rep.Readings,
					Outputs:   rep.Outputs,
				})
				if err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if d.watchdog > 0 && d.notify != nil && t.Sub(lastPing) >= d.watchdog/2 {
				d.notify(daemon.SdNotifyWatchdog)
				lastPing = t
			}

			if d.heartbeat > 0 && d.publisher != nil && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				hb := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
				if d.tracker != nil {
					snap := d.tracker.Snapshot()
					log.Printf("heartbeat: uptime=%v cycles=%d device_errors=%d",
						t.Sub(startTime).Truncate(time.Second), snap.FullCycles, snap.DeviceErrors)
					hb.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := d.publisher.PublishSystem(hb); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
