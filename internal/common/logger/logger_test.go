package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+15551230000", "********0000"},
		{"abcd", "****"},
		{"ab", "**"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskAddress(tt.in))
		})
	}
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"region": "ma"})

	log.Info("pipeline started", map[string]interface{}{"stage": "MATCH"})
	log.WithError(errors.New("boom")).Error("pipeline failed", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "pipeline started", entries[0].Message)
	assert.Equal(t, "ma", entries[0].ContextMap()["region"])
	assert.Equal(t, "MATCH", entries[0].ContextMap()["stage"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := New("verbose", "json")
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
