package hotkey

import (
	"fmt"
	"strings"
)

const DefaultCombo = "ctrl+shift+space"

type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

var modNames = []struct {
	mod   Modifier
	names []string
}{
	{ModCtrl, []string{"ctrl", "control"}},
	{ModShift, []string{"shift"}},
	{ModAlt, []string{"alt", "option"}},
	{ModSuper, []string{"super", "cmd", "win", "meta"}},
}

// Combo is a trigger: a set of modifiers plus exactly one key.
type Combo struct {
	Mods Modifier
	Key  string // a-z, 0-9, space or f1-f12
}

// ParseCombo parses strings such as "ctrl+shift+space" or "alt+F9".
func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Combo{}, fmt.Errorf("hotkey %q: empty component", s)
		}
		if m, ok := lookupModifier(p); ok {
			if c.Mods&m != 0 {
				return Combo{}, fmt.Errorf("hotkey %q: duplicate modifier %q", s, p)
			}
			c.Mods |= m
			continue
		}
		if !validKey(p) {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, p)
		}
		if c.Key != "" {
			return Combo{}, fmt.Errorf("hotkey %q: more than one key", s)
		}
		c.Key = p
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("hotkey %q: no key", s)
	}
	return c, nil
}

func MustParseCombo(s string) Combo {
	c, err := ParseCombo(s)
	if err != nil {
		panic(err)
	}
	return c
}

func lookupModifier(name string) (Modifier, bool) {
	for _, m := range modNames {
		for _, n := range m.names {
			if n == name {
				return m.mod, true
			}
		}
	}
	return 0, false
}

func validKey(k string) bool {
	switch {
	case len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9'):
		return true
	case k == "space":
		return true
	}
	_, ok := functionKeyNumber(k)
	return ok
}

// functionKeyNumber returns n for "fn" with 1 <= n <= 12.
func functionKeyNumber(k string) (int, bool) {
	if len(k) < 2 || k[0] != 'f' {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(k[1:], "%d", &n); err != nil || fmt.Sprint(n) != k[1:] {
		return 0, false
	}
	return n, n >= 1 && n <= 12
}

func (c Combo) String() string {
	var parts []string
	for _, m := range modNames {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.names[0])
		}
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Label renders the combo for display, e.g. "Ctrl+Shift+Space".
func (c Combo) Label() string {
	parts := strings.Split(c.String(), "+")
	for i, p := range parts {
		if _, ok := functionKeyNumber(p); ok {
			parts[i] = strings.ToUpper(p)
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "+")
}
