package cmd

import (
	"testing"

	"github.com/vibast-solutions/ms-go-social-auth/config"

	"github.com/sirupsen/logrus"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	if err := configureLogging(config.LogConfig{Level: "debug", Format: "text"}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter")
	}

	if err := configureLogging(config.LogConfig{Level: "warn", Format: "json"}); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter")
	}

	if err := configureLogging(config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if err := configureLogging(config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
