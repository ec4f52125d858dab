package process

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// NameOf returns the executable name of pid, or "" if it cannot be inspected.
func NameOf(ctx context.Context, pid int32) string {
	if pid <= 0 {
		return ""
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ""
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ""
	}
	return name
}

// Matches reports whether pid runs the executable want.
func Matches(ctx context.Context, pid int32, want string) bool {
	return SameName(NameOf(ctx, pid), want)
}

// SameName compares executable names case-insensitively, ignoring a ".exe" suffix.
func SameName(a, b string) bool {
	a, b = normalize(a), normalize(b)
	return a != "" && a == b
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, ".exe")
}

// Cache remembers pid to name lookups for the duration of one resolution pass,
// since a player usually owns several windows and audio streams.
type Cache struct {
	names map[int32]string
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{names: make(map[int32]string)}
}

// Matches is like the package level Matches but memoizes NameOf.
func (c *Cache) Matches(ctx context.Context, pid int32, want string) bool {
	name, ok := c.names[pid]
	if !ok {
		name = NameOf(ctx, pid)
		c.names[pid] = name
	}
	return SameName(name, want)
}
