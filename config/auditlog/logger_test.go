package auditlog_test

import (
	"testing"

	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/stretchr/testify/assert"
)

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "login", auditlog.EventLogin.String())
	assert.Equal(t, "pr_created", auditlog.EventPRCreated.String())
}

func TestNopLogger_DoesNotPanic(t *testing.T) {
	l := auditlog.NopLogger()
	assert.NotPanics(t, func() {
		l.Emit(auditlog.Event{Kind: auditlog.EventLogin})
	})
	events, err := l.Query(auditlog.QueryFilter{})
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, l.Close())
}

func TestNewEvent_AppliesOptions(t *testing.T) {
	e := auditlog.NewEvent(auditlog.EventPRFailed, "octocat", "create failed",
		auditlog.WithRepo("octocat/hello"),
		auditlog.WithPath("tests/generated/sum.test.js"),
		auditlog.WithDetail(`{"status":422}`),
		auditlog.WithLevel("error"),
	)
	assert.Equal(t, auditlog.EventPRFailed, e.Kind)
	assert.Equal(t, "octocat", e.Login)
	assert.Equal(t, "octocat/hello", e.Repo)
	assert.Equal(t, "tests/generated/sum.test.js", e.Path)
	assert.Equal(t, `{"status":422}`, e.Detail)
	assert.Equal(t, "error", e.Level)
}
