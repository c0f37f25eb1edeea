package notify

import (
	"fmt"
	"strings"

	"github.com/rahulraj2608/gadget-store/internal/orders"
)

func OrderPlacedEmail(firstName string, p orders.OrderPlacedPayload) (subject, html string) {
	subject = fmt.Sprintf("Order #%d confirmed - Gadget Store", p.OrderID)

	var rows strings.Builder
	for _, it := range p.Items {
		rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>$%s</td></tr>",
			it.ProductName, it.Quantity, it.PerUnitPrice.StringFixed(2)))
	}

	html = fmt.Sprintf(`<h2>Thanks for your order, %s!</h2>
<p>Your order <strong>#%d</strong> has been received and is now pending.</p>
<table border="1" cellpadding="6">
<tr><th>Product</th><th>Qty</th><th>Unit Price</th></tr>
%s
</table>
<p>Payment method: %s</p>
<p><strong>Total: $%s</strong></p>
<p>We will email you again when the order status changes.</p>`,
		firstName, p.OrderID, rows.String(), p.PaymentMethod, p.TotalAmount.StringFixed(2))
	return subject, html
}

func StatusChangedEmail(firstName string, p orders.OrderStatusChangedPayload) (subject, html string) {
	subject = fmt.Sprintf("Order #%d is now %s - Gadget Store", p.OrderID, p.NewStatus)
	html = fmt.Sprintf(`<h2>Hi %s,</h2>
<p>The status of your order <strong>#%d</strong> changed to <strong>%s</strong>.</p>
<p>Thank you for shopping with Gadget Store.</p>`,
		firstName, p.OrderID, p.NewStatus)
	return subject, html
}
