// Package interactive provides the interactive command-line interface
// for the wisp device.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/wisp-protocol/wisp-go/pkg/agent"
	"github.com/wisp-protocol/wisp-go/pkg/indicator"
	"github.com/wisp-protocol/wisp-go/pkg/provision"
	"github.com/wisp-protocol/wisp-go/pkg/station"
)

// DeviceConfig provides configuration information to the interactive
// console. This interface allows the interactive layer to access device
// settings without depending on the main package's config structure.
type DeviceConfig interface {
	// DeviceName returns the user-facing device name.
	DeviceName() string

	// StoragePath returns the credential storage file path.
	StoragePath() string
}

// Sims carries the simulated hardware handles the console drives. The
// console pokes the device from the outside: the peripheral plays the
// provisioning client, the radio plays the network.
type Sims struct {
	Peripheral *provision.SimPeripheral
	Radio      *station.SimRadio

	// LED is nil when the device drives a hardware LED.
	LED *indicator.SimOutput
}

// Console handles interactive mode for wisp-device.
type Console struct {
	dev    *agent.Agent
	sims   Sims
	config DeviceConfig
	rl     *readline.Instance

	// Live event display toggle. The agent's callback goroutines read it
	// while the command loop flips it.
	mu   sync.Mutex
	echo bool
}

// New creates a new interactive console.
func New(dev *agent.Agent, sims Sims, cfg DeviceConfig) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "wisp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Console{
		dev:    dev,
		sims:   sims,
		config: cfg,
		rl:     rl,
		echo:   true,
	}

	// Register event handler for live transition display
	dev.OnEvent(c.handleEvent)

	return c, nil
}

// Stdout returns a writer that properly coordinates with the readline
// input. Use this for log output to avoid interfering with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "status":
			c.cmdStatus()

		case "creds":
			c.cmdCreds()

		case "connect-client", "connect":
			c.cmdConnectClient()

		case "disconnect-client", "disconnect":
			c.cmdDisconnectClient()

		case "write-name":
			c.cmdWrite(provision.AttrNetworkName, args)

		case "write-secret":
			c.cmdWrite(provision.AttrNetworkSecret, args)

		case "add-network":
			c.cmdAddNetwork(args)

		case "drop-link", "drop":
			c.cmdDropLink()

		case "set-joinable":
			c.cmdSetJoinable(args)

		case "led":
			c.cmdLED()

		case "events":
			c.cmdEvents()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Wisp Device Commands:
  Provisioning (plays the client):
    connect-client              - Connect a provisioning client
    disconnect-client           - Disconnect the provisioning client
    write-name <value>          - Write the network name attribute
    write-secret <value>        - Write the network secret attribute

  Network (plays the radio environment):
    add-network <name> <secret> - Register a joinable network
    set-joinable <name> <bool>  - Toggle whether a network accepts joins
    drop-link                   - Drop the current association

  General:
    status                      - Show device status
    creds                       - Show stored credential status
    led                         - Show status indicator state
    events                      - Toggle live event display
    help                        - Show this help
    quit                        - Exit device`)
}

// cmdStatus handles the status command.
func (c *Console) cmdStatus() {
	snap := c.dev.Snapshot()

	fmt.Fprintln(c.rl.Stdout(), "\nDevice Status")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(c.rl.Stdout(), "  Device Name:    %s\n", c.config.DeviceName())
	fmt.Fprintf(c.rl.Stdout(), "  Agent State:    %s\n", c.dev.State())
	fmt.Fprintf(c.rl.Stdout(), "  Link:           %s\n", snap.Link)
	if snap.Address != "" {
		fmt.Fprintf(c.rl.Stdout(), "  Address:        %s\n", snap.Address)
	}

	client := "absent"
	if snap.ClientPresent {
		client = "present"
	}
	fmt.Fprintf(c.rl.Stdout(), "  Client:         %s\n", client)

	if c.sims.Peripheral != nil {
		advertising := "no"
		if c.sims.Peripheral.Advertising() {
			advertising = "yes"
		}
		fmt.Fprintf(c.rl.Stdout(), "  Advertising:    %s\n", advertising)
	}

	fmt.Fprintf(c.rl.Stdout(), "  Name Stored:    %s\n", yesNo(snap.NameConfigured))
	fmt.Fprintf(c.rl.Stdout(), "  Secret Stored:  %s\n", yesNo(snap.SecretConfigured))
	fmt.Fprintf(c.rl.Stdout(), "  Join Attempts:  %d\n", snap.Attempts)
	fmt.Fprintf(c.rl.Stdout(), "  Announced:      %s\n", yesNo(snap.Announced))
	fmt.Fprintf(c.rl.Stdout(), "  Indicator:      %s\n", indicator.PatternFor(snap.Link, snap.ClientPresent))
	fmt.Fprintln(c.rl.Stdout())
}

// cmdCreds handles the creds command. The secret is write-only; only its
// presence is shown.
func (c *Console) cmdCreds() {
	snap := c.dev.Snapshot()

	fmt.Fprintln(c.rl.Stdout(), "\nStored Credentials")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(c.rl.Stdout(), "  Storage:        %s\n", c.config.StoragePath())

	if c.sims.Peripheral != nil {
		name := c.sims.Peripheral.Value(provision.AttrNetworkName)
		if len(name) > 0 {
			fmt.Fprintf(c.rl.Stdout(), "  Network Name:   %q\n", string(name))
		} else {
			fmt.Fprintln(c.rl.Stdout(), "  Network Name:   (not set)")
		}
	} else {
		fmt.Fprintf(c.rl.Stdout(), "  Network Name:   configured=%s\n", yesNo(snap.NameConfigured))
	}

	if snap.SecretConfigured {
		fmt.Fprintln(c.rl.Stdout(), "  Network Secret: set (write-only)")
	} else {
		fmt.Fprintln(c.rl.Stdout(), "  Network Secret: (not set)")
	}
	fmt.Fprintln(c.rl.Stdout())
}

// cmdConnectClient handles the connect-client command.
func (c *Console) cmdConnectClient() {
	if c.sims.Peripheral == nil {
		fmt.Fprintln(c.rl.Stdout(), "No sim peripheral")
		return
	}
	if err := c.sims.Peripheral.ConnectClient(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Connect failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Client connected")
}

// cmdDisconnectClient handles the disconnect-client command.
func (c *Console) cmdDisconnectClient() {
	if c.sims.Peripheral == nil {
		fmt.Fprintln(c.rl.Stdout(), "No sim peripheral")
		return
	}
	if err := c.sims.Peripheral.DisconnectClient(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Disconnect failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Client disconnected, advertising resumed")
}

// cmdWrite writes a provisioning attribute as the connected client would.
func (c *Console) cmdWrite(attr uuid.UUID, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: write-name <value> | write-secret <value>")
		return
	}
	if c.sims.Peripheral == nil {
		fmt.Fprintln(c.rl.Stdout(), "No sim peripheral")
		return
	}

	// Values may contain spaces; strip optional quotes.
	value := strings.Trim(strings.Join(args, " "), "\"'")

	if err := c.sims.Peripheral.WriteAttr(attr, []byte(value)); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "OK (%d bytes)\n", len(value))
}

// cmdAddNetwork handles the add-network command.
func (c *Console) cmdAddNetwork(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: add-network <name> <secret>")
		return
	}
	if c.sims.Radio == nil {
		fmt.Fprintln(c.rl.Stdout(), "No sim radio")
		return
	}

	addr := c.sims.Radio.AddNetwork(args[0], args[1])
	fmt.Fprintf(c.rl.Stdout(), "Network %q added (joins assign %s)\n", args[0], addr)
}

// cmdDropLink handles the drop-link command.
func (c *Console) cmdDropLink() {
	if c.sims.Radio == nil {
		fmt.Fprintln(c.rl.Stdout(), "No sim radio")
		return
	}

	c.sims.Radio.Drop()
	fmt.Fprintln(c.rl.Stdout(), "Link dropped; the next health check will notice")
}

// cmdSetJoinable handles the set-joinable command.
func (c *Console) cmdSetJoinable(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: set-joinable <name> <true|false>")
		return
	}
	if c.sims.Radio == nil {
		fmt.Fprintln(c.rl.Stdout(), "No sim radio")
		return
	}

	joinable, err := strconv.ParseBool(args[1])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid bool: %v\n", err)
		return
	}

	c.sims.Radio.SetJoinable(args[0], joinable)
	fmt.Fprintf(c.rl.Stdout(), "Network %q joinable=%t\n", args[0], joinable)
}

// cmdLED handles the led command.
func (c *Console) cmdLED() {
	snap := c.dev.Snapshot()
	pattern := indicator.PatternFor(snap.Link, snap.ClientPresent)

	fmt.Fprintf(c.rl.Stdout(), "Pattern: %s\n", pattern)
	if c.sims.LED != nil {
		level := "off"
		if c.sims.LED.Level() {
			level = "on"
		}
		fmt.Fprintf(c.rl.Stdout(), "Level:   %s (%d transitions)\n", level, c.sims.LED.Transitions())
	} else {
		fmt.Fprintln(c.rl.Stdout(), "Level:   (hardware LED, not observable here)")
	}
}

// cmdEvents toggles the live event display.
func (c *Console) cmdEvents() {
	c.mu.Lock()
	c.echo = !c.echo
	enabled := c.echo
	c.mu.Unlock()

	if enabled {
		fmt.Fprintln(c.rl.Stdout(), "Live event display: on")
	} else {
		fmt.Fprintln(c.rl.Stdout(), "Live event display: off")
	}
}

// echoEnabled reports whether live event display is on.
func (c *Console) echoEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.echo
}

// handleEvent displays agent events above the prompt as they happen.
func (c *Console) handleEvent(event agent.Event) {
	if !c.echoEnabled() {
		return
	}

	ts := time.Now().Format("15:04:05")

	switch event.Type {
	case agent.EventClientConnected:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] Provisioning client connected\n", ts)
	case agent.EventClientDisconnected:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] Provisioning client disconnected\n", ts)
	case agent.EventCredentialsUpdated:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] Credential write: %s (%d bytes)\n", ts, event.Attribute, event.Size)
	case agent.EventWriteRejected:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] Write rejected: %s (%d bytes): %v\n", ts, event.Attribute, event.Size, event.Err)
	case agent.EventLinkChanged:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] Link %s -> %s (%s)\n", ts, event.OldLink, event.NewLink, event.Reason)
	case agent.EventAddressAssigned:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] Address assigned: %s\n", ts, event.Address)
	case agent.EventPresenceAnnounced:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] Presence announced: %s\n", ts, event.Instance)
	case agent.EventPresenceWithdrawn:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] Presence withdrawn: %s\n", ts, event.Instance)
	case agent.EventStorageError:
		fmt.Fprintf(c.rl.Stdout(), "\n[%s] STORAGE ERROR: %v\n", ts, event.Err)
	default:
		return
	}

	c.rl.Refresh()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
