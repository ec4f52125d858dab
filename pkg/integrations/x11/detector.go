package x11

import (
	"context"
	"encoding/binary"
	"os"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/admuter/admuter/pkg/integrations/process"
)

var atomNames = []string{
	"_NET_CLIENT_LIST",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"UTF8_STRING",
}

// Detector resolves window titles through the X server's EWMH client list.
type Detector struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewDetector creates an X11 detector. The connection is opened on first use.
func NewDetector() *Detector {
	return &Detector{}
}

// IsAvailable checks if an X display is configured
func (d *Detector) IsAvailable() bool {
	return os.Getenv("DISPLAY") != ""
}

// Name returns "x11"
func (d *Detector) Name() string {
	return "x11"
}

// ResolveTitle returns the title of the first mapped window owned by process.
func (d *Detector) ResolveTitle(ctx context.Context, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(); err != nil {
		return "", false, err
	}

	clients, err := d.clientList()
	if err != nil {
		// The server may have gone away; reconnect on the next call.
		d.closeLocked()
		return "", false, err
	}

	names := process.NewCache()
	for _, w := range clients {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		pid := d.windowPID(w)
		if pid == 0 || !names.Matches(ctx, int32(pid), name) {
			continue
		}
		if !d.isViewable(w) {
			continue
		}
		if title := strings.TrimSpace(d.windowName(w)); title != "" {
			return title, true, nil
		}
	}

	return "", false, nil
}

func (d *Detector) connect() error {
	if d.conn != nil {
		return nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return errors.Wrap(err, "connect to X server")
	}

	setup := xproto.Setup(conn)
	atoms := make(map[string]xproto.Atom, len(atomNames))
	for _, n := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(n)), n).Reply()
		if err != nil {
			conn.Close()
			return errors.Wrapf(err, "intern atom %s", n)
		}
		atoms[n] = reply.Atom
	}

	d.conn = conn
	d.root = setup.DefaultScreen(conn).Root
	d.atoms = atoms
	return nil
}

func (d *Detector) getProperty(w xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(d.conn, false, w, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (d *Detector) clientList() ([]xproto.Window, error) {
	data, err := d.getProperty(d.root, d.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 4096)
	if err != nil {
		return nil, errors.Wrap(err, "read _NET_CLIENT_LIST")
	}
	return decodeWindows(data), nil
}

func (d *Detector) windowPID(w xproto.Window) uint32 {
	data, err := d.getProperty(w, d.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

func (d *Detector) isViewable(w xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(d.conn, w).Reply()
	if err != nil {
		return false
	}
	return attrs.MapState == xproto.MapStateViewable
}

func (d *Detector) windowName(w xproto.Window) string {
	data, err := d.getProperty(w, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = d.getProperty(w, d.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

// decodeWindows decodes a 32-bit WINDOW list property.
func decodeWindows(data []byte) []xproto.Window {
	out := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		out = append(out, xproto.Window(binary.LittleEndian.Uint32(data[i:])))
	}
	return out
}

func (d *Detector) closeLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// Close cleans up resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeLocked()
	return nil
}
