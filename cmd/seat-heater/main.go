// Command seat-heater drives the seat heating elements from vehicle
// state and user preferences, and publishes decisions to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/seat-heater/internal/actuate"
	"github.com/sweeney/seat-heater/internal/config"
	"github.com/sweeney/seat-heater/internal/heater"
	"github.com/sweeney/seat-heater/internal/logic"
	"github.com/sweeney/seat-heater/internal/mqtt"
	"github.com/sweeney/seat-heater/internal/settings"
	"github.com/sweeney/seat-heater/internal/status"
	"github.com/sweeney/seat-heater/internal/vehicle"
	"github.com/sweeney/seat-heater/internal/web"
)

// heartbeatPoll is how often the run loop checks whether a heartbeat
// is due. The heartbeat interval itself comes from --heartbeat.
const heartbeatPoll = 30 * time.Second

func main() {
	configPath := flag.String("config", "/etc/seat-heater/config.yaml", "Daemon config file")
	settingsPath := flag.String("settings", "", "Settings file (overrides config)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" to disable)`)
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	printState := flag.Bool("print-state", false, "Print current heater levels and exit")

	flag.Parse()

	// Optional .env next to the binary, same override names as systemd
	// drop-ins use.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyOverrides(&cfg, *settingsPath, *broker, *httpAddr)

	if err := run(cfg, *heartbeat, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyOverrides folds flag and environment overrides into the loaded
// config. Flags win over env vars, env vars over the file.
func applyOverrides(cfg *config.Config, settingsPath, broker, httpAddr string) {
	if v := os.Getenv("SEATHEAT_BROKER"); v != "" {
		cfg.Broker = v
	}
	if v := os.Getenv("SEATHEAT_HTTP"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SEATHEAT_SETTINGS"); v != "" {
		cfg.SettingsPath = v
	}
	if settingsPath != "" {
		cfg.SettingsPath = settingsPath
	}
	if broker != "" {
		cfg.Broker = broker
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if cfg.HTTPAddr == "off" {
		cfg.HTTPAddr = ""
	}
}

func run(cfg config.Config, heartbeat time.Duration, printState bool) error {
	ctrl := heater.NewGPIOController(cfg.GPIO.Chip, cfg.LineOffsets())
	defer ctrl.Close()

	if printState {
		for _, zone := range logic.AllZones {
			id, ok := cfg.ZoneIDs()[zone]
			if !ok {
				continue
			}
			level, err := ctrl.Read(id)
			if err != nil {
				return fmt.Errorf("read %s heater: %w", zone, err)
			}
			fmt.Printf("%s: level %d\n", zone, level)
		}
		return nil
	}

	store, err := settings.Load(cfg.SettingsPath, func(err error) {
		log.Printf("settings save error: %v", err)
	})
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	publisher, err := mqtt.NewRealPublisher(cfg.Broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	src, err := vehicle.NewSubscriber(cfg.Broker, cfg.Topics.Ignition, cfg.Topics.Climate)
	if err != nil {
		return fmt.Errorf("subscribe vehicle topics: %w", err)
	}
	defer src.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:        cfg.Broker,
		HTTPPort:      cfg.HTTPAddr,
		HeartbeatMs:   heartbeat.Milliseconds(),
		SettingsPath:  cfg.SettingsPath,
		IgnitionTopic: cfg.Topics.Ignition,
		ClimateTopic:  cfg.Topics.Climate,
	})
	tracker.SetSettings(store.Snapshot())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, store)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	actuator := actuate.New(ctrl, cfg.ZoneIDs())
	results := make(chan []actuate.Result, 4)
	worker := actuate.NewWorker(actuator, func(rs []actuate.Result) {
		// Drop when the run loop is behind; state converges on the
		// next apply anyway.
		select {
		case results <- rs:
		default:
		}
	})
	defer worker.Close()

	log.Printf("started: broker=%s settings=%s heartbeat=%v", cfg.Broker, cfg.SettingsPath, heartbeat)

	var tick <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeatPoll)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		src:        src,
		worker:     worker,
		actuator:   actuator,
		publisher:  publisher,
		mqttStatus: publisher,
		store:      store,
		tracker:    tracker,
		heartbeat:  heartbeat,
		now:        time.Now,
		tick:       tick,
		results:    results,
		sig:        sigCh,
	})
}

// loopDeps carries the run loop's collaborators so tests can swap in
// fakes.
type loopDeps struct {
	src        vehicle.Source
	worker     *actuate.Worker
	actuator   *actuate.Actuator
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	store      *settings.Store
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time
	tick       <-chan time.Time
	results    <-chan []actuate.Result
	sig        <-chan os.Signal
}

func runLoop(d loopDeps) error {
	engine := logic.NewEngine(d.now())

	ign := logic.IgnitionUnknown
	var temp logic.TemperatureSample
	var last logic.Decision
	haveLast := false

	evaluate := func() {
		s := d.store.Snapshot()
		d.tracker.SetSettings(s)
		dec := engine.Evaluate(logic.Input{
			Ignition:    ign,
			Temperature: temp,
			Settings:    s,
			Time:        d.now(),
		})
		if haveLast && dec.Same(last) {
			last = dec
			return
		}
		log.Printf("decision: active=%v level=%d zones=%v reason=%s", dec.Active, dec.TargetLevel, dec.Zones, dec.Reason)
		d.worker.Submit(dec)
		event := mqtt.DecisionEvent{Timestamp: d.now(), Decision: dec}
		if err := d.publisher.PublishDecision(event); err != nil {
			log.Printf("publish error: %v", err)
		}
		last = dec
		haveLast = true
		d.tracker.Update(dec, d.actuator.Status(), engine.EventCountsSnapshot())
	}

	for {
		select {
		case s := <-d.sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.mqttStatus != nil {
				d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
			}
			snap := d.tracker.Snapshot()
			event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			// Heaters stay at their last commanded level; the switch
			// board holds state without the daemon.
			return nil

		case ev, ok := <-d.src.Events():
			if !ok {
				return fmt.Errorf("vehicle source closed")
			}
			if ev.Ignition != nil {
				prev := ign
				ign = *ev.Ignition
				if prev.IsOn() && ign.IsOff() {
					log.Printf("ignition %s -> %s, clearing manual overrides", prev, ign)
					d.actuator.ResetOverrides()
				}
			}
			if ev.Climate != nil {
				temp = *ev.Climate
			}
			d.tracker.SetVehicle(ign, temp)
			evaluate()

		case <-d.store.Changed():
			log.Printf("settings changed, re-evaluating")
			engine.Reset()
			evaluate()

		case rs := <-d.results:
			for _, r := range rs {
				if r.OverrideDetected {
					log.Printf("manual override on %s heater (level %d)", r.Zone, r.Level)
					engine.RecordOverride()
				}
				if r.Err != nil {
					log.Printf("heater write error on %s: %v", r.Zone, r.Err)
					engine.RecordWriteFailure()
					// Forget the last decision so the next vehicle event
					// re-applies it even if nothing else changed.
					haveLast = false
				}
			}
			d.tracker.Update(last, d.actuator.Status(), engine.EventCountsSnapshot())
			if d.mqttStatus != nil {
				d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
			}

		case t := <-d.tick:
			if hbData := engine.CheckHeartbeat(t, d.heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v activations=%d timer_offs=%d overrides=%d write_failures=%d",
					hbData.Uptime, hbData.Counts.Activations, hbData.Counts.TimerOffs,
					hbData.Counts.Overrides, hbData.Counts.WriteFailures)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					d.tracker.SetNetwork(net)
				}
				d.tracker.Update(last, d.actuator.Status(), engine.EventCountsSnapshot())
				snap := d.tracker.Snapshot()
				hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
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
