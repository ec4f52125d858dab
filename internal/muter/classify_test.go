package muter

import "testing"

func TestIsAdvertisement(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ok    bool
		want  bool
	}{
		{name: "exact marker", title: "Advertisement", ok: true, want: true},
		{name: "lower case", title: "advertisement", ok: true, want: true},
		{name: "upper case", title: "ADVERTISEMENT", ok: true, want: true},
		{name: "surrounding space", title: "  Advertisement\t", ok: true, want: true},
		{name: "song", title: "Artist - Song", ok: true, want: false},
		{name: "marker inside title", title: "Advertisement - Jingle", ok: true, want: false},
		{name: "player idle title", title: "Spotify Premium", ok: true, want: false},
		{name: "empty title", title: "", ok: true, want: false},
		{name: "absent", title: "", ok: false, want: false},
		{name: "absent ignores stale text", title: "Advertisement", ok: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdvertisement(tt.title, tt.ok); got != tt.want {
				t.Errorf("IsAdvertisement(%q, %v) = %v, want %v", tt.title, tt.ok, got, tt.want)
			}
		})
	}
}
