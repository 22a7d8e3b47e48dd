package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatActivityOrg renders an Activity as an Org-mode block with the
// structured facts in a PROPERTIES drawer.
func FormatActivityOrg(a Activity) string {
	heading := fmt.Sprintf("** %s %s %s (%s)", strings.ToUpper(string(a.Side)), a.Symbol, a.Status, shortID(a.OrderID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", a.ID))
	b.WriteString(fmt.Sprintf(":ORDER_ID: %s\n", a.OrderID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", a.Symbol))
	b.WriteString(fmt.Sprintf(":TYPE: %s\n", a.Type))
	b.WriteString(fmt.Sprintf(":SOURCE: %s\n", a.Source))
	b.WriteString(fmt.Sprintf(":MODE: %s\n", a.Mode))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", a.Time.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":FILL_QTY: %s\n", a.FillQty.String()))
	b.WriteString(fmt.Sprintf(":FILL_PRICE: %s\n", a.FillPrice.StringFixed(4)))
	b.WriteString(fmt.Sprintf(":CASH_DELTA: %s\n", a.CashDelta.StringFixed(2)))
	if a.Reason != "" {
		b.WriteString(fmt.Sprintf(":REASON: %s\n", a.Reason))
	}
	if a.Fingerprint != "" {
		b.WriteString(fmt.Sprintf(":FINGERPRINT: %s\n", a.Fingerprint))
	}
	b.WriteString(":END:\n")

	return b.String()
}

// FormatActivitiesOrg renders multiple records separated by blank lines.
func FormatActivitiesOrg(recs []Activity) string {
	var b strings.Builder
	for i, a := range recs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatActivityOrg(a))
	}
	return b.String()
}

// shortID keeps the random tail of a ULID; the leading characters are
// the timestamp and repeat across orders placed together.
func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
