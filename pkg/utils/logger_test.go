package utils

import (
	"testing"
)

// ============================================================
// Тесты InitLogger
// ============================================================

func TestInitLogger_Defaults(t *testing.T) {
	// Пустая конфигурация - применяются значения по умолчанию (info/json)
	logger, err := InitLogger("", "")
	if err != nil {
		t.Fatalf("InitLogger returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("InitLogger returned nil")
	}
}

func TestInitLogger_Levels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "warning", "error", "DEBUG", "Info"}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			logger, err := InitLogger(level, "json")
			if err != nil {
				t.Fatalf("InitLogger(%q) returned error: %v", level, err)
			}
			if logger == nil {
				t.Fatalf("InitLogger returned nil for level %s", level)
			}
		})
	}
}

func TestInitLogger_Formats(t *testing.T) {
	formats := []string{"json", "console", "text", "JSON"}

	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			logger, err := InitLogger("info", format)
			if err != nil {
				t.Fatalf("InitLogger(info, %q) returned error: %v", format, err)
			}
			if logger == nil {
				t.Fatal("InitLogger returned nil")
			}
		})
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	logger, err := InitLogger("verbose", "json")
	if err == nil {
		t.Error("Expected error for unknown level, got nil")
	}
	if logger != nil {
		t.Error("Expected nil logger for unknown level")
	}
}

func TestInitLogger_InvalidFormat(t *testing.T) {
	logger, err := InitLogger("info", "xml")
	if err == nil {
		t.Error("Expected error for unknown format, got nil")
	}
	if logger != nil {
		t.Error("Expected nil logger for unknown format")
	}
}
