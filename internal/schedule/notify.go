package schedule

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"starmirror/internal/ui"
	apperrors "starmirror/pkg/errors"
	"starmirror/pkg/models"
)

// maxOutputChars caps how much child output is inlined in notification
// bodies.
const maxOutputChars = 500

// Notifier sends email notifications about scheduled runs over SMTP.
type Notifier struct {
	cfg models.Notifications
	ui  *ui.UI

	// sendMail is swapped out in tests.
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewNotifier creates a notifier. A disabled configuration yields a notifier
// whose Send is a no-op.
func NewNotifier(cfg models.Notifications, ui *ui.UI) *Notifier {
	return &Notifier{cfg: cfg, ui: ui, sendMail: smtp.SendMail}
}

// Send emails a summary of one execution to the configured recipients.
func (n *Notifier) Send(record ExecutionRecord) error {
	if !n.cfg.Enabled {
		return nil
	}
	if n.cfg.SMTPHost == "" || len(n.cfg.To) == 0 {
		return apperrors.New(apperrors.ErrCodeNotifyFailed, "notifications enabled but smtp_host or recipients missing").
			WithSuggestions("Set smtp_host and to under scheduler.notifications, or disable notifications")
	}

	subject, body := composeMessage(record)

	headers := map[string]string{
		"From":         n.cfg.From,
		"To":           strings.Join(n.cfg.To, ", "),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/plain; charset=utf-8",
		"Date":         time.Now().Format(time.RFC1123Z),
	}
	var message strings.Builder
	for key, value := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", key, value)
	}
	message.WriteString("\r\n" + body)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	if err := n.sendMail(addr, auth, n.cfg.From, n.cfg.To, []byte(message.String())); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeNotifyFailed, "failed to send notification email").
			WithContext("smtp", addr)
	}
	n.ui.VerbosePrintf("Notification sent to %s\n", strings.Join(n.cfg.To, ", "))
	return nil
}

// composeMessage builds the subject and body for one execution record.
func composeMessage(record ExecutionRecord) (subject, body string) {
	subject = fmt.Sprintf("[starmirror] Scheduled replication %s", record.Outcome)

	var b strings.Builder
	fmt.Fprintf(&b, "Scheduled replication run finished with outcome %s.\n\n", record.Outcome)
	fmt.Fprintf(&b, "Details:\n")
	fmt.Fprintf(&b, "- Started: %s\n", record.Timestamp)
	fmt.Fprintf(&b, "- Duration: %.1fs\n", record.DurationSeconds)
	fmt.Fprintf(&b, "- Exit code: %d\n", record.ReturnCode)
	if out := truncate(record.Stdout); out != "" {
		fmt.Fprintf(&b, "\nOutput:\n%s\n", out)
	}
	if errOut := truncate(record.Stderr); errOut != "" {
		fmt.Fprintf(&b, "\nErrors:\n%s\n", errOut)
	}
	b.WriteString("\nThis is an automated message from starmirror.\n")
	return subject, b.String()
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxOutputChars {
		return s
	}
	return s[:maxOutputChars] + "..."
}
