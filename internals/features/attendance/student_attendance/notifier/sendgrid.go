package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// SendGrid emails the parent. Alerts with only a phone number fail with
// ErrNoRecipient since no SMS gateway is wired. Requests carry the caller's
// context, so the Retrying timeout bounds each call.
type SendGrid struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	api        func(context.Context, rest.Request) (*rest.Response, error)
}

func NewSendGrid(apiKey, fromName, fromAddress, appName string) *SendGrid {
	return &SendGrid{
		key:        apiKey,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[" + appName + "] ",
		api:        sendgrid.MakeRequestWithContext,
	}
}

func (svc *SendGrid) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail("Parent", strings.TrimSpace(msg.Email)))

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))
	return m
}

func (svc *SendGrid) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Email) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := svc.api(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
