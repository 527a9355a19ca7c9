package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf})

	log.Debug().Msg("hidden")
	log.Info().Str("provider", "YouTube").Msg("matched")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out, `"provider":"YouTube"`) || !strings.Contains(out, `"message":"matched"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestNewDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Debug: true})

	log.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug line missing with Debug set")
	}
}

func TestNewLogFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "embedrc.log")
	log := New(Options{Output: &buf, LogFile: path})

	log.Warn().Msg("written twice")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "written twice") {
		t.Errorf("log file missing entry: %s", data)
	}
	if !strings.Contains(buf.String(), "written twice") {
		t.Error("stderr writer missing entry")
	}
}
