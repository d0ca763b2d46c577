package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in      string
		want    Combo
		wantErr bool
	}{
		{"ctrl+shift+space", Combo{Mods: ModCtrl | ModShift, Key: "space"}, false},
		{" Ctrl + Shift + Space ", Combo{Mods: ModCtrl | ModShift, Key: "space"}, false},
		{"alt+F9", Combo{Mods: ModAlt, Key: "f9"}, false},
		{"cmd+option+k", Combo{Mods: ModSuper | ModAlt, Key: "k"}, false},
		{"f12", Combo{Key: "f12"}, false},
		{"super+0", Combo{Mods: ModSuper, Key: "0"}, false},
		{"ctrl+shift", Combo{}, true},
		{"ctrl+ctrl+a", Combo{}, true},
		{"ctrl+a+b", Combo{}, true},
		{"ctrl++a", Combo{}, true},
		{"f13", Combo{}, true},
		{"f01", Combo{}, true},
		{"ctrl+enter", Combo{}, true},
		{"", Combo{}, true},
	}
	for _, tt := range tests {
		got, err := ParseCombo(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCombo(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCombo(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestComboString(t *testing.T) {
	c := MustParseCombo("shift+ctrl+space")
	if got := c.String(); got != "ctrl+shift+space" {
		t.Errorf("String() = %q", got)
	}
	if got := c.Label(); got != "Ctrl+Shift+Space" {
		t.Errorf("Label() = %q", got)
	}
	if got := MustParseCombo("alt+f9").Label(); got != "Alt+F9" {
		t.Errorf("Label() = %q", got)
	}
}

func TestDefaultComboParses(t *testing.T) {
	if _, err := ParseCombo(DefaultCombo); err != nil {
		t.Fatal(err)
	}
}
