package notifier

import (
	"fmt"
	"strings"
	"time"

	"TouchSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatAlert formats an alert as the plain-text console block.
func FormatAlert(a *model.Alert) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	b.WriteString("\n" + rule + "\n")
	b.WriteString(fmt.Sprintf("ALERT! [%s]\n", a.DetectedAt.Format(timeLayout)))
	b.WriteString(fmt.Sprintf("  Stock:    %s\n", a.Ticker))
	b.WriteString(fmt.Sprintf("  Timeframe:%s\n", a.Timeframe))
	b.WriteString(fmt.Sprintf("  Bar:      %s\n", a.Time.Format(timeLayout)))
	b.WriteString("  Signal:   Price touched 200 EMA.\n")
	b.WriteString(fmt.Sprintf("  Details:  Low (%.2f) <= EMA (%.2f) <= High (%.2f)\n", a.Low, a.EMA, a.High))
	b.WriteString(fmt.Sprintf("  Close:    %.2f\n", a.Close))
	b.WriteString(rule + "\n")
	return b.String()
}

// FormatAlertHTML formats an alert for Telegram's HTML parse mode.
func FormatAlertHTML(a *model.Alert) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📍 <b>EMA touch</b> | %s\n\n", a.Ticker))
	b.WriteString(fmt.Sprintf("Timeframe: %s\n", a.Timeframe))
	b.WriteString(fmt.Sprintf("Bar: %s\n", a.Time.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Low %.2f ≤ EMA %.2f ≤ High %.2f\n", a.Low, a.EMA, a.High))
	b.WriteString(fmt.Sprintf("Close: %.2f\n", a.Close))
	return b.String()
}

// FormatProgress renders the in-place progress line.
func FormatProgress(done, total int) string {
	return fmt.Sprintf("\rProgress: %d/%d checks completed...", done, total)
}

// FormatCycleSummary describes a finished scan cycle.
func FormatCycleSummary(s *model.CycleSummary) string {
	return fmt.Sprintf("[%s] Scan complete. Duration: %s | checks=%d alerts=%d skipped=%d failures=%d",
		s.FinishedAt.Format(timeLayout), s.Duration().Round(10*time.Millisecond), s.Checks, s.Alerts, s.Skipped, s.Failures)
}
