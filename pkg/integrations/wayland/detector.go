package wayland

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/admuter/admuter/pkg/integrations/process"
)

// commandRunner runs a command and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Detector resolves window titles from compositors that expose their window
// list (sway and Hyprland).
type Detector struct {
	compositor  string
	hasSwaymsg  bool
	hasHyprctl  bool
	run         commandRunner
	matchesName func(ctx context.Context, pid int32, want string) bool
}

// NewDetector creates a new Wayland detector
func NewDetector() *Detector {
	d := &Detector{
		run:         execRunner,
		matchesName: process.Matches,
	}
	d.hasSwaymsg = commandExists("swaymsg")
	d.hasHyprctl = commandExists("hyprctl")
	d.detectCompositor()
	return d
}

// commandExists checks if a command is available in PATH
func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// detectCompositor attempts to detect the Wayland compositor
func (d *Detector) detectCompositor() {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		d.compositor = "hyprland"
		return
	}
	if os.Getenv("SWAYSOCK") != "" {
		d.compositor = "sway"
		return
	}

	compositors := map[string]string{
		"sway":     "sway",
		"Hyprland": "hyprland",
	}
	for proc, name := range compositors {
		if err := exec.Command("pgrep", "-x", proc).Run(); err == nil {
			d.compositor = name
			return
		}
	}

	d.compositor = "unknown"
}

// IsAvailable checks if Wayland window listing is available
func (d *Detector) IsAvailable() bool {
	switch d.compositor {
	case "sway":
		return d.hasSwaymsg
	case "hyprland":
		return d.hasHyprctl
	default:
		return false
	}
}

// Name returns "wayland"
func (d *Detector) Name() string {
	return "wayland"
}

// ResolveTitle returns the title of the first visible window owned by process.
func (d *Detector) ResolveTitle(ctx context.Context, name string) (string, bool, error) {
	var (
		windows []windowEntry
		err     error
	)
	switch d.compositor {
	case "sway":
		windows, err = d.listSway(ctx)
	case "hyprland":
		windows, err = d.listHyprland(ctx)
	default:
		return "", false, errors.Errorf("unsupported wayland compositor: %s", d.compositor)
	}
	if err != nil {
		return "", false, err
	}

	for _, w := range windows {
		if !w.visible || strings.TrimSpace(w.title) == "" {
			continue
		}
		if d.matchesName(ctx, w.pid, name) {
			return strings.TrimSpace(w.title), true, nil
		}
	}
	return "", false, nil
}

type windowEntry struct {
	pid     int32
	title   string
	visible bool
}

type swayNode struct {
	Name          *string    `json:"name"`
	PID           int32      `json:"pid"`
	Visible       *bool      `json:"visible"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

func (d *Detector) listSway(ctx context.Context) ([]windowEntry, error) {
	output, err := d.run(ctx, "swaymsg", "-t", "get_tree", "-r")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute swaymsg")
	}
	return parseSwayTree(output)
}

// parseSwayTree flattens the sway layout tree into its application windows.
func parseSwayTree(output []byte) ([]windowEntry, error) {
	var root swayNode
	if err := json.Unmarshal(output, &root); err != nil {
		return nil, errors.Wrap(err, "decode sway tree")
	}

	var out []windowEntry
	var walk func(n swayNode)
	walk = func(n swayNode) {
		if n.PID > 0 && n.Name != nil {
			visible := n.Visible == nil || *n.Visible
			out = append(out, windowEntry{pid: n.PID, title: *n.Name, visible: visible})
		}
		for _, c := range n.Nodes {
			walk(c)
		}
		for _, c := range n.FloatingNodes {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

type hyprClient struct {
	PID    int32  `json:"pid"`
	Title  string `json:"title"`
	Mapped bool   `json:"mapped"`
	Hidden bool   `json:"hidden"`
}

func (d *Detector) listHyprland(ctx context.Context) ([]windowEntry, error) {
	output, err := d.run(ctx, "hyprctl", "clients", "-j")
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute hyprctl")
	}
	return parseHyprlandClients(output)
}

// parseHyprlandClients decodes `hyprctl clients -j`.
func parseHyprlandClients(output []byte) ([]windowEntry, error) {
	var clients []hyprClient
	if err := json.Unmarshal(output, &clients); err != nil {
		return nil, errors.Wrap(err, "decode hyprland clients")
	}

	out := make([]windowEntry, 0, len(clients))
	for _, c := range clients {
		out = append(out, windowEntry{pid: c.PID, title: c.Title, visible: c.Mapped && !c.Hidden})
	}
	return out, nil
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}
