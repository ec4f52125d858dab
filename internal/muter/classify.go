package muter

import "strings"

// AdMarker is the window title the player shows while an advertisement plays.
const AdMarker = "advertisement"

// IsAdvertisement reports whether a resolved title marks advertisement playback.
// An absent title is never an advertisement.
func IsAdvertisement(title string, ok bool) bool {
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(title), AdMarker)
}
