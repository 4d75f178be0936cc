//go:build windows

package input

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procSendInput           = user32.NewProc("SendInput")
)

const (
	inputKeyboard   = 1
	keyEventfKeyUp  = 0x0002
	maxTitleLength  = 512
)

// keyboardInput mirrors KEYBDINPUT.
type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// keyInput mirrors INPUT for type INPUT_KEYBOARD. The trailing padding keeps
// the struct at the size of the union's largest member (MOUSEINPUT).
type keyInput struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte
}

// ActiveWindowTitle reads the title of the foreground window via user32.
func ActiveWindowTitle() (string, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return "", nil
	}
	buf := make([]uint16, maxTitleLength)
	n, _, err := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 && err != windows.ERROR_SUCCESS {
		return "", fmt.Errorf("input: read window title: %w", err)
	}
	return windows.UTF16ToString(buf[:n]), nil
}

// virtualKeys maps the key names used in reward configs to Windows virtual
// key codes. Letters and digits are derived; everything else must be listed.
var virtualKeys = map[string]uint16{
	"space":     0x20,
	"enter":     0x0D,
	"tab":       0x09,
	"esc":       0x1B,
	"escape":    0x1B,
	"backspace": 0x08,
	"up":        0x26,
	"down":      0x28,
	"left":      0x25,
	"right":     0x27,
	"f1":        0x70,
	"f2":        0x71,
	"f3":        0x72,
	"f4":        0x73,
	"f5":        0x74,
	"f6":        0x75,
	"f7":        0x76,
	"f8":        0x77,
	"f9":        0x78,
	"f10":       0x79,
	"f11":       0x7A,
	"f12":       0x7B,
}

func virtualKey(key string) (uint16, bool) {
	key = strings.ToLower(key)
	if vk, ok := virtualKeys[key]; ok {
		return vk, true
	}
	if len(key) == 1 {
		c := key[0]
		if c >= 'a' && c <= 'z' {
			return uint16(c - 'a' + 0x41), true
		}
		if c >= '0' && c <= '9' {
			return uint16(c), true
		}
	}
	return 0, false
}

// PressKey injects a key-down/key-up pair for the named key.
func PressKey(key string) (bool, error) {
	vk, ok := virtualKey(key)
	if !ok {
		return false, fmt.Errorf("input: unknown key %q", key)
	}

	events := []keyInput{
		{inputType: inputKeyboard, ki: keyboardInput{wVk: vk}},
		{inputType: inputKeyboard, ki: keyboardInput{wVk: vk, dwFlags: keyEventfKeyUp}},
	}
	sent, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(sent) != len(events) {
		return false, fmt.Errorf("input: SendInput injected %d of %d events: %w", sent, len(events), err)
	}
	return true, nil
}
