package clipboard

import "testing"

func TestCharToKey(t *testing.T) {
	tests := []struct {
		c     byte
		code  uint16
		shift bool
		ok    bool
	}{
		{'a', 30, false, true},
		{'Z', 44, true, true},
		{'0', 11, false, true},
		{'1', 2, false, true},
		{' ', 57, false, true},
		{'\n', 28, false, true},
		{'.', 52, false, true},
		{'?', 53, true, true},
		{'"', 40, true, true},
		{0xc3, 0, false, false},
	}
	for _, tt := range tests {
		code, shift, ok := charToKey(tt.c)
		if code != tt.code || shift != tt.shift || ok != tt.ok {
			t.Errorf("charToKey(%q) = (%d, %v, %v), want (%d, %v, %v)",
				tt.c, code, shift, ok, tt.code, tt.shift, tt.ok)
		}
	}
}

func TestTypeable(t *testing.T) {
	if !Typeable("Hello, world! It's 5 o'clock.") {
		t.Error("plain ASCII sentence should be typeable")
	}
	if Typeable("café") {
		t.Error("non-ASCII text should not be typeable")
	}
	if !Typeable("") {
		t.Error("empty text is trivially typeable")
	}
}
