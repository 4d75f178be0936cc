//go:build !windows

package input

import "errors"

var errUnsupported = errors.New("input: foreground window and key injection are only supported on Windows")

// ActiveWindowTitle is unavailable off Windows.
func ActiveWindowTitle() (string, error) {
	return "", errUnsupported
}

// PressKey is unavailable off Windows.
func PressKey(key string) (bool, error) {
	return false, errUnsupported
}
