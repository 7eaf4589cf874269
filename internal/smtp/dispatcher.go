package smtp

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/karuwa-takeaway/internal/domain/notify"
	"github.com/xenking/karuwa-takeaway/internal/domain/settings"
)

// maxConcurrentSends caps parallel SMTP connections per event.
const maxConcurrentSends = 4

// EmailSettingsSource yields the current notification configuration.
type EmailSettingsSource interface {
	GetEmailSettings(ctx context.Context) (*settings.Email, error)
}

// Dispatcher implements notify.Dispatcher over SMTP: it picks the stored
// template for each recipient's audience, renders it with the event variables,
// and sends the results concurrently. Failures stay per-recipient.
type Dispatcher struct {
	sender    Sender
	templates notify.TemplateRepository
	email     EmailSettingsSource
	lg        *zap.Logger
}

// NewDispatcher creates an SMTP-backed Dispatcher.
func NewDispatcher(sender Sender, templates notify.TemplateRepository, email EmailSettingsSource, lg *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		templates: templates,
		email:     email,
		lg:        lg,
	}
}

// templateID maps an event and audience onto a stored template. Staff only
// ever receive the new-order alert.
func templateID(kind notify.EventKind, audience notify.Audience) (string, error) {
	if audience == notify.AudienceStaff {
		return notify.TemplateStaffNewOrder, nil
	}
	switch kind {
	case notify.EventOrderCreated:
		return notify.TemplateOrderConfirmation, nil
	case notify.EventStatusChanged:
		return notify.TemplateOrderStatusUpdate, nil
	default:
		return "", errors.Errorf("no template for event %q", kind)
	}
}

// Notify renders and sends the event to every recipient. One result per
// recipient, in input order; never an overall error.
func (d *Dispatcher) Notify(ctx context.Context, ev notify.Event, recipients []notify.Recipient) []notify.Result {
	results := make([]notify.Result, len(recipients))
	for i, r := range recipients {
		results[i] = notify.Result{Recipient: r}
	}
	if len(recipients) == 0 {
		return results
	}

	cfg, err := d.email.GetEmailSettings(ctx)
	if err != nil {
		err = errors.Wrap(err, "load email settings")
		for i := range results {
			results[i].Err = err
		}
		return results
	}

	// Render once per audience; recipients of the same audience share the
	// rendered message.
	type rendered struct {
		subject, body string
		err           error
	}
	byAudience := make(map[notify.Audience]rendered, 2)
	for _, r := range recipients {
		if _, ok := byAudience[r.Audience]; ok {
			continue
		}
		var msg rendered
		msg.subject, msg.body, msg.err = d.render(ctx, ev, r.Audience)
		byAudience[r.Audience] = msg
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)
	for i := range recipients {
		msg := byAudience[recipients[i].Audience]
		if msg.err != nil {
			results[i].Err = msg.err
			continue
		}

		g.Go(func() error {
			err := d.sender.Send(gctx, cfg, Message{
				To:      recipients[i].Email,
				Subject: msg.subject,
				HTML:    msg.body,
			})
			results[i].Err = err
			if err == nil {
				d.lg.Debug("notification sent",
					zap.String("order_id", ev.OrderID),
					zap.String("kind", string(ev.Kind)),
					zap.String("recipient", recipients[i].Email),
				)
			}
			// Errors surface through results; one failed recipient must not
			// cancel the rest of the group.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) render(ctx context.Context, ev notify.Event, audience notify.Audience) (subject, body string, err error) {
	id, err := templateID(ev.Kind, audience)
	if err != nil {
		return "", "", err
	}

	t, err := d.templates.GetTemplate(ctx, id)
	if err != nil {
		return "", "", errors.Wrapf(err, "load template %s", id)
	}
	if !t.Active {
		return "", "", notify.ErrTemplateNotFound
	}

	subject, body = notify.RenderTemplate(t, ev.Vars)
	return subject, body, nil
}
