package app

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/config"
)

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(config.Config{HTTPAddr: ":0"}, zap.NewNop())
	if !errors.Is(err, ErrNoBotToken) {
		t.Fatalf("want ErrNoBotToken, got %v", err)
	}
}
