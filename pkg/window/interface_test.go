package window

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

type MockResolver struct {
	titles     map[string]string
	err        error
	closeError error
}

func (m *MockResolver) ResolveTitle(ctx context.Context, process string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	title, ok := m.titles[process]
	return title, ok, nil
}

func (m *MockResolver) Name() string {
	return "mock"
}

func (m *MockResolver) Close() error {
	return m.closeError
}

func TestMockResolver(t *testing.T) {
	var _ Resolver = (*MockResolver)(nil)

	mock := &MockResolver{titles: map[string]string{"spotify": "Artist - Song"}}

	title, ok, err := mock.ResolveTitle(context.Background(), "spotify")
	if err != nil {
		t.Fatalf("ResolveTitle() error: %v", err)
	}
	if !ok || title != "Artist - Song" {
		t.Errorf("ResolveTitle() = (%q, %v), want (%q, true)", title, ok, "Artist - Song")
	}

	_, ok, err = mock.ResolveTitle(context.Background(), "firefox")
	if err != nil || ok {
		t.Errorf("ResolveTitle() for missing process = (%v, %v), want (false, nil)", ok, err)
	}

	if err := mock.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestMockResolverFault(t *testing.T) {
	mock := &MockResolver{err: errors.Wrap(ErrUnsupported, "no display")}

	_, ok, err := mock.ResolveTitle(context.Background(), "spotify")
	if ok {
		t.Error("ResolveTitle() reported a title alongside an error")
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("ResolveTitle() error = %v, want wrapped ErrUnsupported", err)
	}
}
