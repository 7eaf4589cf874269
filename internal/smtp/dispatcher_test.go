package smtp

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/karuwa-takeaway/internal/domain/notify"
	"github.com/xenking/karuwa-takeaway/internal/domain/settings"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []Message
	failTo map[string]error
}

func (f *fakeSender) Send(_ context.Context, _ *settings.Email, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failTo[msg.To]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeTemplates struct {
	templates map[string]*notify.Template
}

func (f *fakeTemplates) GetTemplate(_ context.Context, id string) (*notify.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, notify.ErrTemplateNotFound
	}
	return t, nil
}

func (f *fakeTemplates) ListTemplates(_ context.Context) ([]notify.Template, error) {
	return nil, nil
}

func (f *fakeTemplates) UpdateTemplate(_ context.Context, _ *notify.Template) error {
	return nil
}

type fakeSettings struct {
	email *settings.Email
	err   error
}

func (f *fakeSettings) GetEmailSettings(_ context.Context) (*settings.Email, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.email, nil
}

func testTemplates() *fakeTemplates {
	return &fakeTemplates{templates: map[string]*notify.Template{
		notify.TemplateOrderConfirmation: {
			ID:          notify.TemplateOrderConfirmation,
			Subject:     "Order Confirmed - {{restaurantName}}",
			HTMLContent: "<p>Thanks {{customerName}}, order #{{orderNumber}}</p>",
			Variables:   []string{"restaurantName", "customerName", "orderNumber"},
			Active:      true,
		},
		notify.TemplateOrderStatusUpdate: {
			ID:          notify.TemplateOrderStatusUpdate,
			Subject:     "Order {{orderStatus}}",
			HTMLContent: "<p>{{statusMessage}}</p>",
			Variables:   []string{"orderStatus", "statusMessage"},
			Active:      true,
		},
		notify.TemplateStaffNewOrder: {
			ID:          notify.TemplateStaffNewOrder,
			Subject:     "New Order #{{orderNumber}}",
			HTMLContent: "<p>{{customerName}} placed an order</p>",
			Variables:   []string{"orderNumber", "customerName"},
			Active:      true,
		},
	}}
}

func testEvent() notify.Event {
	return notify.Event{
		Kind:    notify.EventOrderCreated,
		OrderID: "1748802600000-abcd1234",
		Vars: map[string]string{
			"restaurantName": "Karuwa Takeaway",
			"customerName":   "Asha Gurung",
			"orderNumber":    "1234",
		},
	}
}

func newTestDispatcher(t *testing.T, sender Sender) *Dispatcher {
	return NewDispatcher(sender, testTemplates(), &fakeSettings{email: settings.DefaultEmail()}, zaptest.NewLogger(t))
}

func TestDispatcher_Notify(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender)

	results := d.Notify(context.Background(), testEvent(), []notify.Recipient{
		{Email: "asha@example.com", Audience: notify.AudienceCustomer},
		{Email: "kitchen@karuwa.com", Audience: notify.AudienceStaff},
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Recipient.Email)
	}

	require.Len(t, sender.sent, 2)
	byTo := make(map[string]Message, 2)
	for _, m := range sender.sent {
		byTo[m.To] = m
	}
	assert.Equal(t, "Order Confirmed - Karuwa Takeaway", byTo["asha@example.com"].Subject)
	assert.Contains(t, byTo["asha@example.com"].HTML, "Thanks Asha Gurung, order #1234")
	assert.Equal(t, "New Order #1234", byTo["kitchen@karuwa.com"].Subject)
}

func TestDispatcher_Notify_StatusUpdate(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender)

	ev := notify.Event{
		Kind:    notify.EventStatusChanged,
		OrderID: "o1",
		Vars: map[string]string{
			"orderStatus":   "READY",
			"statusMessage": "Your order is ready! Our driver is on the way!",
		},
	}

	results := d.Notify(context.Background(), ev, []notify.Recipient{
		{Email: "asha@example.com", Audience: notify.AudienceCustomer},
	})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Order READY", sender.sent[0].Subject)
}

// One failed recipient does not block the others.
func TestDispatcher_Notify_PartialFailure(t *testing.T) {
	sender := &fakeSender{failTo: map[string]error{
		"down@example.com": errors.New("connection refused"),
	}}
	d := newTestDispatcher(t, sender)

	results := d.Notify(context.Background(), testEvent(), []notify.Recipient{
		{Email: "down@example.com", Audience: notify.AudienceCustomer},
		{Email: "kitchen@karuwa.com", Audience: notify.AudienceStaff},
	})

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "kitchen@karuwa.com", sender.sent[0].To)
}

func TestDispatcher_Notify_InactiveTemplate(t *testing.T) {
	sender := &fakeSender{}
	templates := testTemplates()
	templates.templates[notify.TemplateOrderConfirmation].Active = false
	d := NewDispatcher(sender, templates, &fakeSettings{email: settings.DefaultEmail()}, zaptest.NewLogger(t))

	results := d.Notify(context.Background(), testEvent(), []notify.Recipient{
		{Email: "asha@example.com", Audience: notify.AudienceCustomer},
	})

	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, notify.ErrTemplateNotFound)
	assert.Empty(t, sender.sent)
}

func TestDispatcher_Notify_SettingsError(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, testTemplates(),
		&fakeSettings{err: errors.New("db down")}, zaptest.NewLogger(t))

	results := d.Notify(context.Background(), testEvent(), []notify.Recipient{
		{Email: "asha@example.com", Audience: notify.AudienceCustomer},
	})

	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
	assert.Empty(t, sender.sent)
}

func TestBuildRaw(t *testing.T) {
	cfg := settings.DefaultEmail()
	raw := string(buildRaw(cfg, Message{
		To:      "asha@example.com",
		Subject: "Order Confirmed",
		HTML:    "<p>hi</p>",
	}))

	assert.Contains(t, raw, "From: Karuwa Takeaway <restaurant@karuwa.com>\r\n")
	assert.Contains(t, raw, "To: asha@example.com\r\n")
	assert.Contains(t, raw, "Subject: Order Confirmed\r\n")
	assert.Contains(t, raw, "Content-Type: text/html")
	assert.Contains(t, raw, "\r\n\r\n<p>hi</p>")
}
