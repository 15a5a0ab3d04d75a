package email

import "fmt"

// LowStockAlert carries the fields rendered into a low-stock email
type LowStockAlert struct {
	ProductID         string
	WarehouseID       string
	LocationID        string
	Quantity          int
	ReservedQuantity  int
	AvailableQuantity int
	ReorderPoint      int
}

// BuildLowStockAlertBody builds the HTML body for a low-stock alert email
func BuildLowStockAlertBody(alert LowStockAlert) string {
	location := alert.LocationID
	if location == "" {
		location = "-"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #c0392b; padding: 20px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 20px;">Low stock alert</h1>
	</div>

	<div style="background: #fff; padding: 24px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Available stock has dropped to or below the reorder point.</p>

		<table style="width: 100%%; border-collapse: collapse; margin: 16px 0;">
			<tr><td style="padding: 8px; color: #666;">Product</td><td style="padding: 8px; font-family: monospace;">%s</td></tr>
			<tr><td style="padding: 8px; color: #666;">Warehouse</td><td style="padding: 8px; font-family: monospace;">%s</td></tr>
			<tr><td style="padding: 8px; color: #666;">Location</td><td style="padding: 8px; font-family: monospace;">%s</td></tr>
			<tr><td style="padding: 8px; color: #666;">On hand</td><td style="padding: 8px;">%d</td></tr>
			<tr><td style="padding: 8px; color: #666;">Reserved</td><td style="padding: 8px;">%d</td></tr>
			<tr><td style="padding: 8px; color: #666;">Available</td><td style="padding: 8px; font-weight: bold;">%d</td></tr>
			<tr><td style="padding: 8px; color: #666;">Reorder point</td><td style="padding: 8px;">%d</td></tr>
		</table>

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This message was sent automatically by the back-office stock monitor.
		</p>
	</div>
</body>
</html>`,
		alert.ProductID, alert.WarehouseID, location,
		alert.Quantity, alert.ReservedQuantity, alert.AvailableQuantity, alert.ReorderPoint)
}
