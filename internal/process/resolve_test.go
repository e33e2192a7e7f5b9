package process

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResolveExplicitPath(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "backend")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(exe)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != exe {
		t.Errorf("Resolve() = %q, want %q", got, exe)
	}
}

func TestResolveRejectsNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not used on windows")
	}
	dir := t.TempDir()
	file := filepath.Join(dir, "backend")
	if err := os.WriteFile(file, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Resolve(file); err == nil {
		t.Error("Resolve() of non-executable file should fail")
	}
	if _, err := Resolve(dir + string(filepath.Separator)); err == nil {
		t.Error("Resolve() of a directory should fail")
	}
}

func TestResolveMissing(t *testing.T) {
	if _, err := Resolve("/nonexistent/backend"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Resolve() error = %v, want ErrNotExist", err)
	}
	if _, err := Resolve("definitely-not-a-backend-binary"); err == nil {
		t.Error("Resolve() of unknown bare name should fail")
	}
	if _, err := Resolve(""); !errors.Is(err, ErrEmptyExecutable) {
		t.Errorf("Resolve(\"\") error = %v, want ErrEmptyExecutable", err)
	}
}

func TestResolveFromPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh is not on PATH on windows")
	}
	got, err := Resolve("sh")
	if err != nil {
		t.Fatalf("Resolve(sh) error = %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("Resolve(sh) = %q, want absolute path", got)
	}
}

func TestSidecarNames(t *testing.T) {
	names := sidecarNames("backend")
	if len(names) != 2 {
		t.Fatalf("sidecarNames() = %v", names)
	}
	want := "backend-" + runtime.GOOS + "-" + runtime.GOARCH
	if runtime.GOOS == "windows" {
		want += ".exe"
	}
	if names[1] != want {
		t.Errorf("platform name = %q, want %q", names[1], want)
	}
}
