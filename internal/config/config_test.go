package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestRequireEnvInt(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		expected  int
		wantPanic bool
	}{
		{
			name:      "valid integer",
			key:       "TEST_INT",
			value:     "42",
			expected:  42,
			wantPanic: false,
		},
		{
			name:      "invalid integer",
			key:       "TEST_INT_INVALID",
			value:     "not_a_number",
			wantPanic: true,
		},
		{
			name:      "missing variable",
			key:       "TEST_INT_MISSING",
			value:     "",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnvInt() should have panicked")
					}
				}()
			}

			result := requireEnvInt(tt.key)
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("requireEnvInt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetenvFloat(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      float64
		expected float64
	}{
		{name: "valid float", value: "0.45", def: 0.3, expected: 0.45},
		{name: "invalid float uses default", value: "high", def: 0.3, expected: 0.3},
		{name: "missing variable uses default", value: "", def: 0.5, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_FLOAT", tt.value)
			result := getenvFloat("TEST_FLOAT", tt.def)
			if result != tt.expected {
				t.Errorf("getenvFloat() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoad_MemoryStoreDefaults(t *testing.T) {
	t.Setenv("TIDYMARK_STORE", "")
	t.Setenv("TIDYMARK_REDIS_ADDR", "")

	cfg := Load()
	if cfg.Store != StoreMemory {
		t.Errorf("Load().Store = %v, want %v", cfg.Store, StoreMemory)
	}
	if cfg.StaleAfter != 180*24*time.Hour {
		t.Errorf("Load().StaleAfter = %v, want 180 days", cfg.StaleAfter)
	}
	if cfg.PrecomputeWorkers != 4 {
		t.Errorf("Load().PrecomputeWorkers = %v, want 4", cfg.PrecomputeWorkers)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("Load().RedisAddr = %q, want empty for the memory store", cfg.RedisAddr)
	}
}

func TestLoad_ScoreBounds(t *testing.T) {
	tests := []struct {
		key       string
		value     string
		wantPanic bool
	}{
		{"TIDYMARK_SIMILAR_THRESHOLD", "0.8", false},
		{"TIDYMARK_SIMILAR_THRESHOLD", "1", false},
		{"TIDYMARK_SIMILAR_THRESHOLD", "0", true},
		{"TIDYMARK_FUZZY_MIN_SIMILARITY", "0", true},
		{"TIDYMARK_FUZZY_MIN_SIMILARITY", "1.5", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("TIDYMARK_STORE", "")
			t.Setenv(tt.key, tt.value)

			defer func() {
				if r := recover(); (r != nil) != tt.wantPanic {
					t.Errorf("Load() panic = %v, want panic %v", r, tt.wantPanic)
				}
			}()
			Load()
		})
	}
}

func TestLoad_RedisStore(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantPanic bool
	}{
		{
			name: "complete settings",
			env: map[string]string{
				"TIDYMARK_STORE":                   "redis",
				"TIDYMARK_REDIS_ADDR":              "localhost:6379",
				"TIDYMARK_REDIS_DB":                "2",
				"TIDYMARK_REDIS_PASSWORD_REQUIRED": "false",
			},
		},
		{
			name: "missing address",
			env: map[string]string{
				"TIDYMARK_STORE":    "redis",
				"TIDYMARK_REDIS_DB": "2",
			},
			wantPanic: true,
		},
		{
			name: "password required but empty",
			env: map[string]string{
				"TIDYMARK_STORE":      "redis",
				"TIDYMARK_REDIS_ADDR": "localhost:6379",
				"TIDYMARK_REDIS_DB":   "0",
			},
			wantPanic: true,
		},
		{
			name:      "unknown store",
			env:       map[string]string{"TIDYMARK_STORE": "sqlite"},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"TIDYMARK_REDIS_ADDR", "TIDYMARK_REDIS_DB", "TIDYMARK_REDIS_PASSWORD", "TIDYMARK_REDIS_PASSWORD_REQUIRED"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("Load() should have panicked")
					}
				}()
			}

			cfg := Load()
			if !tt.wantPanic && (cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2) {
				t.Errorf("Load() redis = %s/%d, want localhost:6379/2", cfg.RedisAddr, cfg.RedisDB)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("TIDYMARK_TEST_FROM_FILE=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TIDYMARK_TEST_FROM_FILE", "")
	if err := os.Unsetenv("TIDYMARK_TEST_FROM_FILE"); err != nil {
		t.Fatal(err)
	}

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv("TIDYMARK_TEST_FROM_FILE"); got != "loaded" {
		t.Errorf("TIDYMARK_TEST_FROM_FILE = %q, want loaded", got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Errorf("LoadEnvFile() with a missing explicit file should fail")
	}
}
