package hybrid

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/admuter/admuter/pkg/window"
)

// Detector asks several resolvers in order. The first one that reports a
// title wins; a fault is only returned when every resolver faulted.
type Detector struct {
	resolvers            []window.Resolver
	lastSuccessfulMethod string
}

// NewDetector chains the given resolvers, skipping nil entries.
func NewDetector(resolvers ...window.Resolver) (*Detector, error) {
	d := &Detector{}
	for _, r := range resolvers {
		if r != nil {
			d.resolvers = append(d.resolvers, r)
		}
	}
	if len(d.resolvers) == 0 {
		return nil, errors.New("no window title resolver available")
	}
	return d, nil
}

// Name lists the chained backends, e.g. "hybrid(x11,wayland)".
func (d *Detector) Name() string {
	names := make([]string, 0, len(d.resolvers))
	for _, r := range d.resolvers {
		names = append(names, r.Name())
	}
	return "hybrid(" + strings.Join(names, ",") + ")"
}

// LastMethod returns the backend that produced the last title, if any.
func (d *Detector) LastMethod() string {
	return d.lastSuccessfulMethod
}

// ResolveTitle implements window.Resolver.
func (d *Detector) ResolveTitle(ctx context.Context, process string) (string, bool, error) {
	var faults []string
	answered := false

	for _, r := range d.resolvers {
		title, ok, err := r.ResolveTitle(ctx, process)
		if err != nil {
			if ctx.Err() != nil {
				return "", false, ctx.Err()
			}
			logrus.WithError(err).WithField("resolver", r.Name()).Debug("Window title resolver failed")
			faults = append(faults, r.Name()+": "+err.Error())
			continue
		}
		answered = true
		if ok {
			d.lastSuccessfulMethod = r.Name()
			return title, true, nil
		}
	}

	if !answered {
		return "", false, errors.Errorf("all window title resolvers failed: %s", strings.Join(faults, "; "))
	}
	return "", false, nil
}

// Close closes every chained resolver and returns the first error.
func (d *Detector) Close() error {
	var first error
	for _, r := range d.resolvers {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
