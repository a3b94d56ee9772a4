package persist

import (
	"testing"

	"larder/internal/home"
)

func TestDefaultUsesEnvPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(home.EnvPath, dir)
	ResetDefault()
	t.Cleanup(ResetDefault)

	s, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if s.Dir() != dir {
		t.Fatalf("store rooted at %s, want %s", s.Dir(), dir)
	}

	again, err := Default()
	if err != nil {
		t.Fatalf("second default: %v", err)
	}
	if again != s {
		t.Fatal("Default must return the same store across calls")
	}
}

func TestSetDefault(t *testing.T) {
	s, _ := newTestStore(t)
	SetDefault(s)
	t.Cleanup(ResetDefault)

	got, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if got != s {
		t.Fatal("Default must return the injected store")
	}
}

func TestResetDefault(t *testing.T) {
	first := t.TempDir()
	t.Setenv(home.EnvPath, first)
	ResetDefault()
	t.Cleanup(ResetDefault)

	s1, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	second := t.TempDir()
	t.Setenv(home.EnvPath, second)
	ResetDefault()

	s2, err := Default()
	if err != nil {
		t.Fatalf("default after reset: %v", err)
	}
	if s1 == s2 {
		t.Fatal("reset must drop the cached store")
	}
	if s2.Dir() != second {
		t.Fatalf("fresh store rooted at %s, want %s", s2.Dir(), second)
	}
}
