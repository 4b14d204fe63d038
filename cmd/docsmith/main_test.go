package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[paths]\n" +
		"cache_dir = \"" + filepath.Join(dir, "cache") + "\"\n" +
		"log_dir = \"" + filepath.Join(dir, "logs") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootShowsHelp(t *testing.T) {
	out, err := runCLI(t, []string{"--config", writeTestConfig(t)})
	if err != nil {
		t.Fatalf("root command: %v", err)
	}
	for _, sub := range []string{"convert", "threads", "cache", "runs", "config"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing %q:\n%s", sub, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := runCLI(t, []string{"config", "init", "--path", target}); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestConvertRequiresInputDir(t *testing.T) {
	if _, err := runCLI(t, []string{"convert", "--config", writeTestConfig(t)}); err == nil {
		t.Fatal("convert without arguments should fail")
	}
}

func TestConvertRejectsUnknownMode(t *testing.T) {
	input := t.TempDir()
	_, err := runCLI(t, []string{
		"convert", input,
		"--config", writeTestConfig(t),
		"--mode", "telepathy",
	})
	if err == nil {
		t.Fatal("unknown mode should fail validation")
	}
	if !strings.Contains(err.Error(), "telepathy") {
		t.Errorf("error should name the bad mode: %v", err)
	}
}
