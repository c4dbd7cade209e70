package theme

import "testing"

func TestByName(t *testing.T) {
	for _, name := range Names() {
		if got := ByName(name).Name; got != name {
			t.Errorf("ByName(%q) = %q", name, got)
		}
	}
	if got := ByName("nope").Name; got != FlexokiDark.Name {
		t.Errorf("unknown theme = %q, want default", got)
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("terminal"); !ok {
		t.Error("terminal theme not found")
	}
	if _, ok := Lookup(""); ok {
		t.Error("empty name should not match")
	}
}

func TestSeriesColor(t *testing.T) {
	th := FlexokiDark
	if th.SeriesColor("connect") != th.Connect {
		t.Error("connect color")
	}
	if th.SeriesColor("mobile") != th.Mobile {
		t.Error("mobile color")
	}
}
