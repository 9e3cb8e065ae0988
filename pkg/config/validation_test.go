package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidContentType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Content.Type = "s3"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unsupported content type")
	}
}

func TestValidate_Normalizations(t *testing.T) {
	tests := []struct {
		name      string
		display   []string
		canonical []string
		wantErr   bool
	}{
		{"case sensitive", nil, nil, false},
		{"case insensitive", nil, []string{"case_fold_unicode"}, false},
		{"mac style", []string{"nfc"}, []string{"nfc", "case_fold_unicode"}, false},
		{"unknown", nil, []string{"upper"}, true},
		{"nfc and nfd", []string{"nfc", "nfd"}, nil, true},
		{"two folds", nil, []string{"case_fold_ascii", "case_fold_unicode"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Names = NamesConfig{Display: tt.display, Canonical: tt.canonical}

			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestValidate_NoRoots(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Roots = nil

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for no roots")
	}
	if !strings.Contains(err.Error(), "at least one root") {
		t.Errorf("Expected 'at least one root' error, got: %v", err)
	}
}

func TestValidate_InvalidRootName(t *testing.T) {
	for _, root := range []string{"", ".", ".."} {
		cfg := GetDefaultConfig()
		cfg.Roots = []string{root}

		if err := Validate(cfg); err == nil {
			t.Errorf("Expected validation error for root %q", root)
		}
	}
}

func TestValidate_DuplicateRootNames(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Roots = []string{"C:", "D:"}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected distinct roots to pass, got: %v", err)
	}

	// With case folding "C:" and "c:" collide
	cfg.Roots = []string{"C:", "c:"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected case-sensitive roots to pass, got: %v", err)
	}

	cfg.Names.Canonical = []string{"case_fold_ascii"}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for duplicate roots")
	}
	if !strings.Contains(err.Error(), "duplicate root name") {
		t.Errorf("Expected 'duplicate root name' error, got: %v", err)
	}
}

func TestValidate_Tables(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Tables.InitialCapacity = -1
	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for negative initial capacity")
	}

	cfg = GetDefaultConfig()
	cfg.Tables.LoadFactor = 10
	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for load factor above 4")
	}
}

func TestValidate_MetricsListenRequired(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Listen = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for enabled metrics without listen address")
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		if err := Validate(cfg); err != nil {
			t.Errorf("Expected lowercase level %q to validate, got: %v", level, err)
		}
	}
}
