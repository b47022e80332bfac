package main

import (
	"testing"

	"github.com/ironsheep/pngopt-mcp/internal/engine"
)

func TestSelectEngine(t *testing.T) {
	eng, err := selectEngine("native", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := eng.(*engine.Native); !ok {
		t.Errorf("native engine type %T", eng)
	}

	eng, err = selectEngine("oxipng", "/opt/bin/oxipng")
	if err != nil {
		t.Fatal(err)
	}
	if o, ok := eng.(*engine.Oxipng); !ok || o.Path != "/opt/bin/oxipng" {
		t.Errorf("oxipng engine = %#v", eng)
	}

	if _, err := selectEngine("pngcrush", ""); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestNewLogger(t *testing.T) {
	t.Setenv("PNGOPT_LOG_LEVEL", "")
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		if _, err := newLogger(level); err != nil {
			t.Errorf("newLogger(%q): %v", level, err)
		}
	}
	if _, err := newLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}

	t.Setenv("PNGOPT_LOG_LEVEL", "bogus")
	if _, err := newLogger(""); err == nil {
		t.Error("environment level should be validated")
	}
}

func TestRunFlags(t *testing.T) {
	for _, args := range [][]string{{"--version"}, {"-h"}} {
		if err := run(args); err != nil {
			t.Errorf("run(%v): %v", args, err)
		}
	}
	for _, args := range [][]string{{"--engine", "nope"}, {"--log-level", "loud"}, {"extra"}, {"--no-such-flag"}} {
		if err := run(args); err == nil {
			t.Errorf("run(%v) should fail", args)
		}
	}
}
