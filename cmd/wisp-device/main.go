// Command wisp-device is a reference wisp provisioning agent.
//
// This command runs a complete provisioning-capable device with:
//   - CLI argument parsing
//   - File-backed credential storage
//   - Simulated provisioning peripheral and station radio
//   - Status indicator (sysfs LED or simulated)
//   - Optional mDNS presence announcements
//   - Structured event logging (.wlog)
//   - Interactive command interface
//
// Usage:
//
//	wisp-device [flags]
//
// Flags:
//
//	-name string               User-facing device name (default "Wisp Device")
//	-serial string             Device serial number (auto-generated if empty)
//	-storage string            Credential storage file (default "wisp-device.creds")
//	-led string                Status LED: sysfs LED name, or "sim" (default "sim")
//	-radio string              Station radio driver: sim (default "sim")
//	-event-log string          Structured event log file (.wlog)
//	-interactive               Enable interactive command mode
//	-presence                  Announce the device over mDNS while connected
//	-port int                  Application port named in the announcement (default 8442)
//	-join-timeout duration     Bound on a single join attempt (default 10s)
//	-cooldown duration         Wait after a failed join attempt (default 20s)
//	-health-interval duration  Wait between link health checks (default 10s)
//	-verbose                   Enable debug logging
//
// Examples:
//
//	# Run with the simulated radio and interactive console
//	wisp-device -name "Living Room Sensor" -interactive
//
//	# Run headless with presence announcements and an event log
//	wisp-device -serial WSP-0042 -presence -event-log device.wlog
//
//	# Faster join cycling for bench testing
//	wisp-device -join-timeout 2s -cooldown 5s -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wisp-protocol/wisp-go/cmd/wisp-device/interactive"
	"github.com/wisp-protocol/wisp-go/pkg/agent"
	"github.com/wisp-protocol/wisp-go/pkg/discovery"
	"github.com/wisp-protocol/wisp-go/pkg/indicator"
	"github.com/wisp-protocol/wisp-go/pkg/log"
	"github.com/wisp-protocol/wisp-go/pkg/provision"
	"github.com/wisp-protocol/wisp-go/pkg/station"
)

const (
	deviceModel     = "Wisp Reference Device"
	firmwareVersion = "1.0.0"
)

// Config holds the device configuration.
// It implements interactive.DeviceConfig.
type Config struct {
	Name           string
	Serial         string
	Storage        string
	LED            string
	Radio          string
	EventLog       string
	Interactive    bool
	Presence       bool
	Port           int
	JoinTimeout    time.Duration
	Cooldown       time.Duration
	HealthInterval time.Duration
	Verbose        bool
}

// DeviceName implements interactive.DeviceConfig.
func (c *Config) DeviceName() string {
	return c.Name
}

// StoragePath implements interactive.DeviceConfig.
func (c *Config) StoragePath() string {
	return c.Storage
}

var (
	config Config
	logger *slog.Logger
)

func init() {
	flag.StringVar(&config.Name, "name", "Wisp Device", "User-facing device name")
	flag.StringVar(&config.Serial, "serial", "", "Device serial number (auto-generated if empty)")
	flag.StringVar(&config.Storage, "storage", "wisp-device.creds", "Credential storage file")
	flag.StringVar(&config.LED, "led", "sim", `Status LED: sysfs LED name, or "sim"`)
	flag.StringVar(&config.Radio, "radio", "sim", "Station radio driver: sim")
	flag.StringVar(&config.EventLog, "event-log", "", "Structured event log file (.wlog)")
	flag.BoolVar(&config.Interactive, "interactive", false, "Enable interactive command mode")
	flag.BoolVar(&config.Presence, "presence", false, "Announce the device over mDNS while connected")
	flag.IntVar(&config.Port, "port", discovery.DefaultPort, "Application port named in the announcement")
	flag.DurationVar(&config.JoinTimeout, "join-timeout", station.DefaultJoinTimeout, "Bound on a single join attempt")
	flag.DurationVar(&config.Cooldown, "cooldown", station.DefaultCooldown, "Wait after a failed join attempt")
	flag.DurationVar(&config.HealthInterval, "health-interval", station.DefaultHealthInterval, "Wait between link health checks")
	flag.BoolVar(&config.Verbose, "verbose", false, "Enable debug logging")
}

func main() {
	flag.Parse()

	logger = slog.New(slog.NewTextHandler(os.Stderr, handlerOptions()))

	if err := validateConfig(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	applyDefaults()

	logger.Info("wisp reference device",
		"name", config.Name,
		"serial", config.Serial,
		"storage", config.Storage,
		"led", config.LED,
		"radio", config.Radio)

	// Hardware seams. The sim drivers are the only in-tree implementations;
	// real radio stacks plug in through the same interfaces.
	peripheral := provision.NewSimPeripheral()
	radio := station.NewSimRadio()

	var output indicator.Output
	var simLED *indicator.SimOutput
	if config.LED == "" || config.LED == "sim" {
		simLED = indicator.NewSimOutput()
		output = simLED
	} else {
		output = indicator.NewSysfsLED(config.LED)
	}

	// Structured event sinks: file log, debug echo, or both.
	var sinks []log.Logger
	var fileLogger *log.FileLogger
	if config.EventLog != "" {
		var err error
		fileLogger, err = log.NewFileLogger(config.EventLog)
		if err != nil {
			logger.Error("failed to open event log", "path", config.EventLog, "err", err)
			os.Exit(1)
		}
		logger.Info("event log enabled", "path", config.EventLog)
		sinks = append(sinks, fileLogger)
	}
	if config.Verbose {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}

	var events log.Logger
	switch len(sinks) {
	case 0:
		// Events are discarded when no sink is configured.
	case 1:
		events = sinks[0]
	default:
		events = log.NewMultiLogger(sinks...)
	}

	var advertiser discovery.Advertiser
	if config.Presence {
		mdns, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
		if err != nil {
			logger.Error("failed to create mDNS advertiser", "err", err)
			os.Exit(1)
		}
		advertiser = mdns
	}

	agentCfg := agent.DefaultConfig()
	agentCfg.DeviceName = config.Name
	agentCfg.Serial = config.Serial
	agentCfg.Model = deviceModel
	agentCfg.Firmware = firmwareVersion
	agentCfg.LED = config.LED
	agentCfg.StoragePath = config.Storage
	agentCfg.Station.JoinTimeout = config.JoinTimeout
	agentCfg.Station.Cooldown = config.Cooldown
	agentCfg.Station.HealthInterval = config.HealthInterval
	agentCfg.EnablePresence = config.Presence
	agentCfg.PresencePort = config.Port
	if config.Verbose {
		agentCfg.Debug = logger
	}

	dev, err := agent.New(agentCfg, agent.Deps{
		Peripheral: peripheral,
		Radio:      radio,
		Output:     output,
		Advertiser: advertiser,
		Logger:     events,
	})
	if err != nil {
		logger.Error("failed to create agent", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var console *interactive.Console
	if config.Interactive {
		console, err = interactive.New(dev, interactive.Sims{
			Peripheral: peripheral,
			Radio:      radio,
			LED:        simLED,
		}, &config)
		if err != nil {
			logger.Error("failed to create console", "err", err)
			os.Exit(1)
		}
		// Route operational logging through readline so asynchronous
		// output does not clobber the prompt.
		logger = slog.New(slog.NewTextHandler(console.Stdout(), handlerOptions()))
	} else {
		dev.OnEvent(handleEvent)
	}

	if err := dev.Start(ctx); err != nil {
		logger.Error("failed to start agent", "err", err)
		os.Exit(1)
	}
	logger.Info("agent started", "state", dev.State().String())

	if console != nil {
		go console.Run(ctx, cancel)
	}

	// Wait for shutdown signal or console quit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	if err := dev.Stop(); err != nil {
		logger.Error("error stopping agent", "err", err)
	}
	if fileLogger != nil {
		if err := fileLogger.Close(); err != nil {
			logger.Error("error closing event log", "err", err)
		}
	}

	logger.Info("goodbye")
}

func handlerOptions() *slog.HandlerOptions {
	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}

func validateConfig() error {
	if config.Radio != "sim" {
		return fmt.Errorf("unknown radio driver: %s (only sim is in-tree)", config.Radio)
	}
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", config.Port)
	}
	return nil
}

func applyDefaults() {
	if config.Serial == "" {
		config.Serial = fmt.Sprintf("WSP-%04d", time.Now().Unix()%10000)
	}
}

// handleEvent logs agent events in non-interactive mode.
func handleEvent(event agent.Event) {
	switch event.Type {
	case agent.EventClientConnected:
		logger.Info("[EVENT] provisioning client connected")
	case agent.EventClientDisconnected:
		logger.Info("[EVENT] provisioning client disconnected")
	case agent.EventCredentialsUpdated:
		logger.Info("[EVENT] credential updated", "attribute", event.Attribute, "size", event.Size)
	case agent.EventWriteRejected:
		logger.Warn("[EVENT] write rejected", "attribute", event.Attribute, "size", event.Size, "err", event.Err)
	case agent.EventLinkChanged:
		logger.Info("[EVENT] link changed", "old", event.OldLink.String(), "new", event.NewLink.String(), "reason", event.Reason)
	case agent.EventAddressAssigned:
		logger.Info("[EVENT] address assigned", "address", event.Address)
	case agent.EventPresenceAnnounced:
		logger.Info("[EVENT] presence announced", "instance", event.Instance)
	case agent.EventPresenceWithdrawn:
		logger.Info("[EVENT] presence withdrawn", "instance", event.Instance)
	case agent.EventStorageError:
		logger.Error("[EVENT] credential storage error", "err", event.Err)
	}
}
