//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

const inputEventSize = 24

// a-z in alphabetical order
var letterCodes = [26]uint16{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36,
	37, 38, 50, 49, 24, 25, 16, 19, 31, 20,
	22, 47, 17, 45, 21, 44,
}

// 0=11, 1=2, ..., 9=10
var digitCodes = [10]uint16{11, 2, 3, 4, 5, 6, 7, 8, 9, 10}

var modifierCodes = map[uint16]Modifier{
	29:  ModCtrl,
	97:  ModCtrl,
	42:  ModShift,
	54:  ModShift,
	56:  ModAlt,
	100: ModAlt,
	125: ModSuper,
	126: ModSuper,
}

func keyCode(key string) (uint16, error) {
	switch {
	case key == "space":
		return 57, nil
	case len(key) == 1 && key[0] >= 'a' && key[0] <= 'z':
		return letterCodes[key[0]-'a'], nil
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		return digitCodes[key[0]-'0'], nil
	}
	n, ok := functionKeyNumber(key)
	if !ok {
		return 0, fmt.Errorf("unsupported key %q", key)
	}
	switch n {
	case 11:
		return 87, nil
	case 12:
		return 88, nil
	default:
		return uint16(58 + n), nil
	}
}

type edge int

const (
	edgeNone edge = iota
	edgeDown
	edgeUp
)

// matcher tracks modifier state for one input device and reports combo
// press and release edges. Auto-repeat events are ignored.
type matcher struct {
	mods Modifier
	code uint16

	held   map[uint16]bool
	active bool
}

func newMatcher(mods Modifier, code uint16) *matcher {
	return &matcher{mods: mods, code: code, held: make(map[uint16]bool)}
}

func (m *matcher) heldMods() Modifier {
	var mods Modifier
	for code, down := range m.held {
		if down {
			mods |= modifierCodes[code]
		}
	}
	return mods
}

func (m *matcher) feed(code uint16, value int32) edge {
	if value == keyRepeat {
		return edgeNone
	}
	if _, ok := modifierCodes[code]; ok {
		m.held[code] = value == keyPress
		return edgeNone
	}
	if code != m.code {
		return edgeNone
	}
	switch value {
	case keyPress:
		if !m.active && m.heldMods()&m.mods == m.mods {
			m.active = true
			return edgeDown
		}
	case keyRelease:
		if m.active {
			m.active = false
			return edgeUp
		}
	}
	return edgeNone
}

type linuxHotkey struct {
	combo   Combo
	code    uint16
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

// New returns a global hotkey that reads key events straight from
// /dev/input, which works on both X11 and Wayland.
func New(combo Combo) (Hotkey, error) {
	code, err := keyCode(combo.Key)
	if err != nil {
		return nil, err
	}
	return &linuxHotkey{
		combo:   combo,
		code:    code,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}, nil
}

func (h *linuxHotkey) Register() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

func (h *linuxHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	m := newMatcher(h.combo.Mods, h.code)

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			if evType != evKey {
				continue
			}
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			switch m.feed(evCode, evValue) {
			case edgeDown:
				notify(h.keydown)
			case edgeUp:
				notify(h.keyup)
			}
		}
	}
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *linuxHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

func Diagnose(combo Combo) (string, error) {
	if _, err := keyCode(combo.Key); err != nil {
		return "", err
	}
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s, listening for %s", len(keyboards), opened, combo.Label()), nil
}
