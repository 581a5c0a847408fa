package project

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"myapp", "MYAPP"},
		{"my-app", "MY_APP"},
		{"My App 2.0", "MY_APP_2_0"},
		{"--weird--name--", "WEIRD_NAME"},
		{"a///b", "A_B"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"my-app", "My App 2.0", "already_NORMAL", "a.b.c"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestScopedKey(t *testing.T) {
	if got := ScopedKey("my-app", "OPENAI_API_KEY"); got != "MY_APP__OPENAI_API_KEY" {
		t.Errorf("Unexpected scoped key: %q", got)
	}
	// Names that normalize identically share scoped keys.
	if ScopedKey("my-app", "KEY") != ScopedKey("my.app", "KEY") {
		t.Errorf("Expected colliding normalized names to share scoped keys")
	}
}

func TestName(t *testing.T) {
	cfg := &Config{Project: "explicit"}
	if got := Name(cfg, "/home/alice/projects/app"); got != "explicit" {
		t.Errorf("Expected explicit name to win, got: %q", got)
	}
	if got := Name(&Config{}, "/home/alice/projects/app"); got != "app" {
		t.Errorf("Expected directory basename fallback, got: %q", got)
	}
	if got := Name(nil, "/home/alice/projects/app"); got != "app" {
		t.Errorf("Expected nil config to fall back to basename, got: %q", got)
	}
}
