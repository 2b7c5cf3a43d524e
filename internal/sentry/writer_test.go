package sentry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_PassthroughToInner(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, LevelError)

	msg := []byte("test error message\n")
	n, err := w.Write(msg)

	assert.NoError(t, err)
	assert.Equal(t, len(msg), n)
	assert.Equal(t, string(msg), buf.String())
}

func TestWriter_DisabledPassthrough(t *testing.T) {
	enabled = false
	var buf bytes.Buffer
	w := NewWriter(&buf, LevelWarning)

	msg := []byte("WARNING:2026/10/18 10:00:00 store.go:42: token file unreadable\n")
	n, err := w.Write(msg)

	assert.NoError(t, err)
	assert.Equal(t, len(msg), n)
	assert.Equal(t, string(msg), buf.String())
}

func TestStripLogPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"error header", "ERROR:2026/10/18 10:00:00 app.go:12: exchange failed\n", "exchange failed"},
		{"warning header", "WARNING:2026/10/18 10:00:00 x.go:1: slow backend", "slow backend"},
		{"no header", "plain message", "plain message"},
		{"blank", "   \n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripLogPrefix(tt.in))
		})
	}
}
