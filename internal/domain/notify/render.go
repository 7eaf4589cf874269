package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Template identifiers. Each maps to a row in email_templates.
const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderStatusUpdate = "order_status_update"
	TemplateStaffNewOrder     = "staff_new_order"
)

// ErrTemplateNotFound is returned when a template id is unknown or inactive.
var ErrTemplateNotFound = errors.New("email template not found")

// Template is a stored email template. Variables is the closed list of
// placeholder names the template may reference; Render substitutes only
// declared names and nothing is inferred at runtime.
type Template struct {
	ID          string
	Name        string
	Subject     string
	HTMLContent string
	Variables   []string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateRepository provides storage for email templates.
type TemplateRepository interface {
	GetTemplate(ctx context.Context, id string) (*Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)
	UpdateTemplate(ctx context.Context, t *Template) error
}

// Render substitutes {{name}} placeholders in text with values from vars.
// Placeholders with no matching key are left untouched. Pure function;
// callable on subjects and bodies alike.
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// RenderTemplate renders subject and body against the template's declared
// variable list. Undeclared keys in vars are ignored so a caller bug cannot
// leak unexpected values into operator-authored templates.
func RenderTemplate(t *Template, vars map[string]string) (subject, body string) {
	declared := make(map[string]string, len(t.Variables))
	for _, name := range t.Variables {
		if v, ok := vars[name]; ok {
			declared[name] = v
		} else {
			declared[name] = ""
		}
	}
	return Render(t.Subject, declared), Render(t.HTMLContent, declared)
}

// OrderLine is the slice of order data the templates need per item.
type OrderLine struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// OrderInfo carries the flattened order fields used to build template
// variables. The order service populates it from the persisted order.
type OrderInfo struct {
	ID        string
	Customer  string
	Phone     string
	Address   string
	Lines     []OrderLine
	Total     decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// OrderItemsHTML renders the line items fragment substituted for
// {{orderItems}}.
func OrderItemsHTML(lines []OrderLine) string {
	var b strings.Builder
	for _, l := range lines {
		lineTotal := l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).StringFixed(2)
		fmt.Fprintf(&b,
			`<div class="item"><span><strong>%dx</strong> %s</span><span>£%s</span></div>`,
			l.Quantity, html.EscapeString(l.Name), lineTotal)
	}
	return b.String()
}

// orderNumber is the short reference shown to customers: the last four
// characters of the order id.
func orderNumber(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[len(id)-4:]
}

// statusMessage returns the customer-facing blurb shown in the status update
// email. Collection orders get pickup wording on "ready".
func statusMessage(status, address string) string {
	switch status {
	case "preparing":
		return "Our chefs are preparing your delicious meal!"
	case "ready":
		if strings.Contains(address, "Collection") {
			return "Your order is ready! You can pick it up now."
		}
		return "Your order is ready! Our driver is on the way!"
	case "delivered":
		return "Your order has been delivered. Enjoy your meal!"
	default:
		return "Your order status has been updated."
	}
}

// ConfirmationVars builds the variable map for the order confirmation and
// staff alert templates.
func ConfirmationVars(restaurantName string, o OrderInfo) map[string]string {
	return map[string]string{
		"restaurantName":  restaurantName,
		"customerName":    o.Customer,
		"customerPhone":   o.Phone,
		"orderNumber":     orderNumber(o.ID),
		"orderTime":       o.CreatedAt.Format("02 Jan 2006 15:04"),
		"orderItems":      OrderItemsHTML(o.Lines),
		"orderTotal":      o.Total.StringFixed(2),
		"deliveryAddress": o.Address,
		"currentYear":     fmt.Sprintf("%d", o.CreatedAt.Year()),
	}
}

// StatusVars builds the variable map for the status update template.
func StatusVars(restaurantName string, o OrderInfo) map[string]string {
	return map[string]string{
		"restaurantName": restaurantName,
		"customerName":   o.Customer,
		"orderNumber":    orderNumber(o.ID),
		"orderStatus":    strings.ToUpper(o.Status),
		"statusMessage":  statusMessage(o.Status, o.Address),
		"currentYear":    fmt.Sprintf("%d", time.Now().Year()),
	}
}
