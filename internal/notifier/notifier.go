package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"TouchSentinel/internal/model"
)

// Notifier delivers fired alerts.
type Notifier interface {
	Notify(ctx context.Context, alert *model.Alert) error
}

// ConsoleNotifier writes alerts and scan progress to a terminal.
type ConsoleNotifier struct {
	Out io.Writer
}

// NewConsoleNotifier writes to stdout.
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{Out: os.Stdout}
}

func (c *ConsoleNotifier) Notify(_ context.Context, alert *model.Alert) error {
	_, err := io.WriteString(c.Out, FormatAlert(alert))
	return err
}

// Progress overwrites the current line with the running check count and
// ends the line once the cycle is complete.
func (c *ConsoleNotifier) Progress(done, total int) {
	line := FormatProgress(done, total)
	if done >= total {
		line += "\n"
	}
	io.WriteString(c.Out, line)
}

// Multi fans an alert out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alert *model.Alert) error {
	var errs []string
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(errs, "; "))
	}
	return nil
}
