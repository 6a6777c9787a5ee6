package env_mode

import "testing"

func TestParseEnv(t *testing.T) {
	tests := []struct {
		in   string
		want ENV_MODE
	}{
		{"", DevMode},
		{"dev", DevMode},
		{" Production ", ProMode},
		{"prod", ProMode},
		{"testing", TestMode},
		{"staging", DevMode},
	}
	for _, tt := range tests {
		if got := ParseEnv(tt.in); got != tt.want {
			t.Errorf("ParseEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetMode(t *testing.T) {
	SetMode(TestMode)
	if Mode() != TestMode {
		t.Fatalf("Mode() = %q, want %q", Mode(), TestMode)
	}
	if IsProduction() {
		t.Fatal("test mode reported as production")
	}
	SetMode(ProMode)
	if !IsProduction() {
		t.Fatal("expected production mode")
	}
	SetMode(DevMode)
}
