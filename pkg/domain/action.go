package domain

// ControlKind names the interactive control attached to a reply.
type ControlKind string

const (
	// ControlConfirm asks for confirm/cancel.
	ControlConfirm ControlKind = "confirm"

	// ControlMenu offers the main menu entries (add_task, list_tasks).
	ControlMenu ControlKind = "menu"

	// ControlNavigation offers task navigation showing Cursor/Total.
	ControlNavigation ControlKind = "navigation"

	// ControlPlatformLogin offers the use_platform_login shortcut.
	ControlPlatformLogin ControlKind = "platform_login"
)

// Control describes an interactive control. Transports decide how it looks.
type Control struct {
	Kind   ControlKind `json:"kind"`
	Cursor int         `json:"cursor,omitempty"`
	Total  int         `json:"total,omitempty"`
}

// Actions returns the button payloads the control can produce.
func (c Control) Actions() []string {
	switch c.Kind {
	case ControlConfirm:
		return []string{ActionConfirm, ActionCancel}
	case ControlMenu:
		return []string{ActionAddTask, ActionListTasks}
	case ControlNavigation:
		return []string{ActionTaskCompleted, ActionDeleteTask, ActionBack, ActionNext}
	case ControlPlatformLogin:
		return []string{ActionUsePlatformLogin}
	}
	return nil
}

// Reply is one outbound message for a user.
type Reply struct {
	Text    string   `json:"text"`
	Control *Control `json:"control,omitempty"`
}

// Confirmation attaches a confirm/cancel control.
func Confirmation(text string) Reply {
	return Reply{Text: text, Control: &Control{Kind: ControlConfirm}}
}

// Navigation attaches a task navigation control.
func Navigation(text string, cursor, total int) Reply {
	return Reply{Text: text, Control: &Control{Kind: ControlNavigation, Cursor: cursor, Total: total}}
}

// Menu attaches the main menu control.
func Menu(text string) Reply {
	return Reply{Text: text, Control: &Control{Kind: ControlMenu}}
}

// Plain is a reply without controls.
func Plain(text string) Reply {
	return Reply{Text: text}
}
