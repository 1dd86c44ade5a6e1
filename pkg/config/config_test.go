package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestBuildDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := &Config{
		Log:    LogConfig{Level: "info"},
		Store:  StoreConfig{Path: "interflow.db"},
		Server: ServerConfig{Addr: "0.0.0.0:3000"},
		Editor: EditorConfig{History: HistoryConfig{
			CoalesceWindow: 500 * time.Millisecond,
			MaxEntries:     50,
		}},
		Installments: InstallmentsConfig{AllowedMethods: []string{}},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLayers(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfgFile := writeFile(t, dir, "interflow.yaml", `
log:
  level: warn
store:
  path: /tmp/from-file.db
server:
  addr: 127.0.0.1:8080
editor:
  history:
    coalesce_window: 1s
    max_entries: 10
installments:
  allowed_methods: [credit_card, boleto]
`)
	writeFile(t, dir, EnvFile, "INTERFLOW_SERVER_ADDR=127.0.0.1:9090\nINTERFLOW_EDITOR_HISTORY_MAX_ENTRIES=20\nUNRELATED=1\n")
	t.Setenv("INTERFLOW_EDITOR_HISTORY_MAX_ENTRIES", "30")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("store", "", "")
	flags.Bool("debug", false, "")
	if err := flags.Parse([]string{"--store", "memory", "--debug"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Build(cfgFile, flags)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"flag beats file", cfg.Store.Path, "memory"},
		{"debug flag sets level", cfg.Log.Level, "debug"},
		{".env beats file", cfg.Server.Addr, "127.0.0.1:9090"},
		{"env beats .env", cfg.Editor.History.MaxEntries, 30},
		{"file beats default", cfg.Editor.History.CoalesceWindow, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if diff := cmp.Diff([]string{"credit_card", "boleto"}, cfg.Installments.AllowedMethods); diff != "" {
		t.Errorf("AllowedMethods mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEnvList(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INTERFLOW_INSTALLMENTS_ALLOWED_METHODS", "credit_card, pix,")
	t.Setenv("INTERFLOW_INSTALLMENTS_SPLIT_AMOUNT", "true")

	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if diff := cmp.Diff([]string{"credit_card", "pix"}, cfg.Installments.AllowedMethods); diff != "" {
		t.Errorf("AllowedMethods mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Installments.SplitAmount {
		t.Errorf("SplitAmount = false, want true")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "missing explicit config file", file: "does-not-exist.yaml"},
		{name: "bad level", env: map[string]string{"INTERFLOW_LOG_LEVEL": "loud"}},
		{name: "bad history cap", env: map[string]string{"INTERFLOW_EDITOR_HISTORY_MAX_ENTRIES": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Build(tt.file, nil); err == nil {
				t.Errorf("Build() succeeded, want an error")
			}
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "debug"}}
	if got := cfg.Logger("test").GetLevel(); got != log.DebugLevel {
		t.Errorf("Logger() level = %v, want debug", got)
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
