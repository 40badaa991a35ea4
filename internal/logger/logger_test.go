package logger_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/9kl/lsyiot-adapter-hub-sdk/internal/logger"
)

func TestNewDefaultsToInfo(t *testing.T) {
	log, err := logger.New("production", "")
	if err != nil {
		t.Fatalf("expected default level, got %v", err)
	}
	if log.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %v", log.GetLevel())
	}
}

func TestNewParsesLevel(t *testing.T) {
	log, err := logger.New("development", "DEBUG")
	if err != nil {
		t.Fatalf("expected level parse, got %v", err)
	}
	if log.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", log.GetLevel())
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := logger.New("production", "chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
