package console

import (
	"fmt"
	"strings"

	"github.com/aretw0/todobot"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/fatih/color"
)

var labels = map[string]string{
	domain.ActionConfirm:          "✓ confirm",
	domain.ActionCancel:           "✗ cancel",
	domain.ActionNext:             "next →",
	domain.ActionBack:             "← back",
	domain.ActionTaskCompleted:    "done",
	domain.ActionDeleteTask:       "delete",
	domain.ActionAddTask:          "add task",
	domain.ActionListTasks:        "my tasks",
	domain.ActionUsePlatformLogin: "use my handle",
}

// Controls returns a colored ControlFormatter. Colors are disabled automatically
// when stdout is not a terminal.
func Controls() todobot.ControlFormatter {
	return func(c *domain.Control) string {
		var b strings.Builder
		if c.Kind == domain.ControlNavigation && c.Total > 0 {
			b.WriteString(color.New(color.FgHiBlack).Sprintf("(%d/%d) ", c.Cursor, c.Total))
		}
		for i, action := range c.Actions() {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(color.New(color.FgCyan).Sprintf("[%d]", i+1))
			b.WriteString(" ")
			b.WriteString(actionColor(action).Sprint(label(action)))
		}
		return b.String()
	}
}

func label(action string) string {
	if l, ok := labels[action]; ok {
		return l
	}
	return action
}

func actionColor(action string) *color.Color {
	switch action {
	case domain.ActionConfirm, domain.ActionTaskCompleted:
		return color.New(color.FgHiGreen)
	case domain.ActionCancel, domain.ActionDeleteTask:
		return color.New(color.FgRed)
	}
	return color.New(color.FgWhite)
}

// Status formats a one-line status message the way the CLI prints them.
func Status(ok bool, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if ok {
		return color.New(color.FgHiGreen).Sprintf("✓ %s", msg)
	}
	return color.New(color.FgYellow).Sprintf("⚠ %s", msg)
}
