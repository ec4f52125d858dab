package pulse

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/pkg/errors"

	"github.com/admuter/admuter/pkg/integrations/process"
)

// Controller mutes PulseAudio (or pipewire-pulse) sink inputs owned by a process.
type Controller struct {
	mu     sync.Mutex
	client rawClient
	dial   func() (rawClient, error)
}

// rawClient is the subset of *pulse.Client the controller uses.
type rawClient interface {
	RawRequest(req proto.RequestArgs, rpl proto.Reply) error
	Close()
}

// NewController creates a controller. The server connection is opened lazily
// and re-established after a protocol error.
func NewController() *Controller {
	return &Controller{
		dial: func() (rawClient, error) {
			c, err := pulse.NewClient(pulse.ClientApplicationName("admuter"))
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// Name returns "pulse"
func (c *Controller) Name() string {
	return "pulse"
}

// SetMute implements audio.Controller.
func (c *Controller) SetMute(ctx context.Context, name string, mute bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		client, err := c.dial()
		if err != nil {
			return false, errors.Wrap(err, "connect to pulseaudio")
		}
		c.client = client
	}

	var inputs proto.GetSinkInputInfoListReply
	if err := c.client.RawRequest(&proto.GetSinkInputInfoList{}, &inputs); err != nil {
		c.resetLocked()
		return false, errors.Wrap(err, "list sink inputs")
	}

	names := process.NewCache()
	found := false
	for _, in := range inputs {
		if in == nil || !ownedBy(ctx, names, in.Properties, name) {
			continue
		}
		found = true
		if in.Muted == mute {
			continue
		}
		req := &proto.SetSinkInputMute{SinkInputIndex: in.SinkInputIndex, Mute: mute}
		if err := c.client.RawRequest(req, nil); err != nil {
			c.resetLocked()
			return false, errors.Wrapf(err, "set mute on sink input %d", in.SinkInputIndex)
		}
	}
	return found, nil
}

func ownedBy(ctx context.Context, names *process.Cache, props proto.PropList, name string) bool {
	if binary := propString(props, "application.process.binary"); binary != "" {
		return process.SameName(binary, name)
	}
	pid, err := strconv.ParseInt(propString(props, "application.process.id"), 10, 32)
	if err != nil {
		return false
	}
	return names.Matches(ctx, int32(pid), name)
}

func propString(props proto.PropList, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	return strings.TrimRight(string(v), "\x00")
}

func (c *Controller) resetLocked() {
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

// Close disconnects from the server
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	return nil
}
