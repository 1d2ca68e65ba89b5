package schedule

import (
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starmirror/pkg/models"
)

func TestSendDisabledIsNoop(t *testing.T) {
	n := NewNotifier(models.Notifications{Enabled: false}, testUI())
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("sendMail called for disabled notifier")
		return nil
	}

	assert.NoError(t, n.Send(ExecutionRecord{Outcome: OutcomeSuccess}))
}

func TestSendRequiresHostAndRecipients(t *testing.T) {
	n := NewNotifier(models.Notifications{Enabled: true}, testUI())

	err := n.Send(ExecutionRecord{Outcome: OutcomeError})
	assert.Error(t, err)
}

func TestSendDeliversMessage(t *testing.T) {
	cfg := models.Notifications{
		Enabled:  true,
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		Username: "etl",
		Password: "secret",
		From:     "etl@example.com",
		To:       []string{"ops@example.com", "dba@example.com"},
	}
	n := NewNotifier(cfg, testUI())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	record := ExecutionRecord{
		Timestamp:       "2026-08-26T02:00:00Z",
		DurationSeconds: 41.5,
		Outcome:         OutcomeError,
		ReturnCode:      1,
		Stderr:          "replication failed",
	}
	require.NoError(t, n.Send(record))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "etl@example.com", gotFrom)
	assert.Equal(t, cfg.To, gotTo)

	message := string(gotMsg)
	assert.Contains(t, message, "Subject: [starmirror] Scheduled replication ERROR")
	assert.Contains(t, message, "To: ops@example.com, dba@example.com")
	assert.Contains(t, message, "Exit code: 1")
	assert.Contains(t, message, "replication failed")
}

func TestComposeMessageTruncatesOutput(t *testing.T) {
	record := ExecutionRecord{
		Outcome: OutcomeSuccess,
		Stdout:  strings.Repeat("x", maxOutputChars+100),
	}

	subject, body := composeMessage(record)

	assert.Equal(t, "[starmirror] Scheduled replication SUCCESS", subject)
	assert.Contains(t, body, strings.Repeat("x", maxOutputChars)+"...")
	assert.NotContains(t, body, strings.Repeat("x", maxOutputChars+1))
}
