package logger

import (
	"testing"

	"github.com/aloisiojr22/op-track-cycle/config"
)

func TestNewLogger_JSON(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}
	if !l.Core().Enabled(-1) {
		t.Error("debug 级别应启用")
	}
}

func TestNewLogger_Console(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "info", Format: "console"}); err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "verbose"}); err == nil {
		t.Error("无效级别应返回错误")
	}
}
