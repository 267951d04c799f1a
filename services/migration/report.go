package migration

import (
	"fmt"
	"net/smtp"
	"strings"

	"blogmigrate/lib/auditlog"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

// SendAttentionReport emails the events flagged for manual review at
// the end of a batch: substituted authors, substituted publish dates.
func SendAttentionReport(config SmtpConfig, run string, events []auditlog.Event) error {
	if len(events) == 0 {
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Blog Migration <%s>", config.EmailAddress)
	mail.To = config.Recipients
	mail.Subject = fmt.Sprintf("Migration run %s: %d posts need attention", run, len(events))

	var body strings.Builder
	body.WriteString("The following soft fallbacks were applied during migration and should be reviewed manually.\n\n")
	for _, event := range events {
		fmt.Fprintf(&body, "- %s\n", event.Message)
		for _, field := range event.Fields {
			fmt.Fprintf(&body, "    %s: %s\n", field.Key, field.Value)
		}
	}
	mail.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%d", config.Server, config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", config.EmailAddress, config.Password, config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	return err
}
