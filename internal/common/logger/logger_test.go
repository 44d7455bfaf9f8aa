package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskID(t *testing.T) {
	assert.Equal(t, "XXXXXXXX9012", MaskID("123456789012"))
	assert.Equal(t, "XXX", MaskID("123"))
	assert.Equal(t, "", MaskID(""))
}

func TestTestLogger_Chaining(t *testing.T) {
	log := NewTestLogger(t).
		WithFields(map[string]interface{}{"station": "gate-1"}).
		WithError(errors.New("boom")).
		With(map[string]interface{}{"flow": "intake"})

	assert.NotPanics(t, func() {
		log.Debug("debug", nil)
		log.Info("info", map[string]interface{}{"k": "v"})
		log.Warn("warn", nil)
		log.Error("error", nil)
	})
}
