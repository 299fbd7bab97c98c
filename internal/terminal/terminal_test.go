package terminal

import (
	"testing"
)

func TestDetect_NoColorFlag(t *testing.T) {
	info := Detect(true)
	if info.ColorEnabled || info.LogColorEnabled {
		t.Error("expected colour disabled when noColor=true")
	}
}

func TestDetect_NonTTY(t *testing.T) {
	info := Detect(false)
	if info.IsTerminal {
		t.Skip("test stdout appears to be a TTY, skipping non-TTY test")
	}
	if info.ColorEnabled {
		t.Error("expected ColorEnabled=false when not a TTY")
	}
}

func TestDetect_NOCOLOREnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	info := Detect(false)
	if info.ColorEnabled || info.LogColorEnabled {
		t.Error("expected colour disabled when NO_COLOR env is set")
	}
}

func TestIsDumb(t *testing.T) {
	t.Setenv("TERM", "dumb")
	if !IsDumb() {
		t.Error("expected IsDumb()=true when TERM=dumb")
	}

	t.Setenv("TERM", "xterm-256color")
	if IsDumb() {
		t.Error("expected IsDumb()=false when TERM=xterm-256color")
	}
}
