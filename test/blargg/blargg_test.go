// Package blargg runs the cpu_instrs Blargg test ROM against a real
// Machine and checks its serial-port transcript for "Passed".
package blargg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopherboy/gopherboy"
	"github.com/gopherboy/gopherboy/timing"
)

// romPath locates the cpu_instrs ROM; it is not vendored into this repo,
// so tests skip gracefully when it is absent from disk.
const romPath = "../../test-roms/cpu_instrs.gb"

const maxFrames = 2000

func TestBlarggCPUInstrs(t *testing.T) {
	rom, err := os.ReadFile(filepath.Clean(romPath))
	if os.IsNotExist(err) {
		t.Skipf("Blargg ROM not present at %s, skipping", romPath)
	}
	require.NoError(t, err)

	m, err := gopherboy.New(rom, gopherboy.Configuration{}, nil, nil, nil, nil)
	require.NoError(t, err)

	var output string
	for frame := 0; frame < maxFrames; frame++ {
		m.RunFor(timing.CyclesPerFrame)
		if err := m.Fault(); err != nil {
			t.Fatalf("emulation fault at frame %d: %v", frame, err)
		}
		output = m.Serial.Output()
		if strings.Contains(output, "Passed") || strings.Contains(output, "Failed") {
			break
		}
	}

	t.Logf("serial transcript: %q", output)
	if strings.Contains(output, "Failed") {
		t.Fatalf("cpu_instrs reported failure:\n%s", output)
	}
	if !strings.Contains(output, "Passed") {
		t.Fatalf("cpu_instrs did not report completion within %d frames:\n%s", maxFrames, output)
	}
}
