//go:build linux

package hotkey

import "testing"

const (
	codeLCtrl  = 29
	codeLShift = 42
	codeRShift = 54
	codeSpace  = 57
	codeA      = 30
)

func TestKeyCode(t *testing.T) {
	tests := map[string]uint16{
		"space": 57, "a": 30, "z": 44, "1": 2, "0": 11,
		"f1": 59, "f10": 68, "f11": 87, "f12": 88,
	}
	for key, want := range tests {
		got, err := keyCode(key)
		if err != nil || got != want {
			t.Errorf("keyCode(%q) = %d, %v; want %d", key, got, err, want)
		}
	}
}

func TestMatcherCombo(t *testing.T) {
	m := newMatcher(ModCtrl|ModShift, codeSpace)

	steps := []struct {
		code  uint16
		value int32
		want  edge
	}{
		{codeSpace, keyPress, edgeNone}, // no modifiers
		{codeSpace, keyRelease, edgeNone},
		{codeLCtrl, keyPress, edgeNone},
		{codeRShift, keyPress, edgeNone},
		{codeA, keyPress, edgeNone},
		{codeSpace, keyPress, edgeDown},
		{codeSpace, keyRepeat, edgeNone},
		{codeSpace, keyPress, edgeNone},
		{codeLCtrl, keyRelease, edgeNone}, // release still ends the combo
		{codeSpace, keyRelease, edgeUp},
		{codeSpace, keyPress, edgeNone}, // ctrl no longer held
	}
	for i, s := range steps {
		if got := m.feed(s.code, s.value); got != s.want {
			t.Errorf("step %d: feed(%d, %d) = %d, want %d", i, s.code, s.value, got, s.want)
		}
	}
}

func TestMatcherEitherShift(t *testing.T) {
	m := newMatcher(ModShift, codeA)
	m.feed(codeLShift, keyPress)
	m.feed(codeRShift, keyPress)
	m.feed(codeLShift, keyRelease)
	if got := m.feed(codeA, keyPress); got != edgeDown {
		t.Errorf("right shift alone should satisfy shift, got %d", got)
	}
}
