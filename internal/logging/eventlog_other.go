//go:build !windows

package logging

// AttachEventLog is a no-op outside Windows; service managers there capture stderr.
func AttachEventLog(name string) error {
	return nil
}
