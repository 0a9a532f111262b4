package domain

// Scratch keys. Flows go through the typed drafts below instead of using them directly.
const (
	KeyUserName        = "user_name"
	KeyLogin           = "login"
	KeyTaskTitle       = "task_title"
	KeyTaskDescription = "task_description"
	KeyCursor          = "current_task_number"
	KeyTotal           = "last_task_number"
	KeyPendingDeleteID = "task_id_to_delete"
)

// RegistrationDraft accumulates the registration dialog.
type RegistrationDraft struct {
	Name  string `mapstructure:"user_name" json:"user_name,omitempty"`
	Login string `mapstructure:"login" json:"login,omitempty"`
}

// TaskDraft accumulates the task creation dialog.
type TaskDraft struct {
	Title       string `mapstructure:"task_title" json:"task_title,omitempty"`
	Description string `mapstructure:"task_description" json:"task_description,omitempty"`
}

// BrowseCursor is the pagination position of the browsing dialog.
// Index is 1-based.
type BrowseCursor struct {
	Index           int   `mapstructure:"current_task_number" json:"current_task_number,omitempty"`
	Total           int   `mapstructure:"last_task_number" json:"last_task_number,omitempty"`
	PendingDeleteID int64 `mapstructure:"task_id_to_delete" json:"task_id_to_delete,omitempty"`
}

// Clamp returns the cursor with Index forced into [1, total] and Total set to total.
// With total == 0 the Index becomes 0.
func (c BrowseCursor) Clamp(total int) BrowseCursor {
	c.Total = total
	if total <= 0 {
		c.Index = 0
		return c
	}
	if c.Index < 1 {
		c.Index = 1
	}
	if c.Index > total {
		c.Index = total
	}
	return c
}

// Next advances without wrapping.
func (c BrowseCursor) Next() BrowseCursor {
	c.Index = min(c.Index+1, c.Total)
	return c
}

// Back steps back without wrapping.
func (c BrowseCursor) Back() BrowseCursor {
	c.Index = max(c.Index-1, 1)
	return c
}
