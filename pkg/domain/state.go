package domain

// State is the conversation state tag of a single user.
// The zero value (StateNone) means the user never interacted.
type State string

const (
	StateNone State = ""

	// Base states.
	StateDefault State = "DEFAULT"
	StateInMenu  State = "IN_MENU"

	// Registration states.
	StateWaitForName  State = "WAIT_FOR_NAME"
	StateSubmitName   State = "SUBMIT_NAME"
	StateWaitForLogin State = "WAIT_FOR_LOGIN"
	StateSubmitLogin  State = "SUBMIT_LOGIN"

	// Task states.
	StateWaitForTaskTitle       State = "WAIT_FOR_TASK_TITLE"
	StateSubmitTitle            State = "SUBMIT_TITLE"
	StateWaitForTaskDescription State = "WAIT_FOR_TASK_DESCRIPTION"
	StateSubmitDescription      State = "SUBMIT_DESCRIPTION"
	StateLookAtTasks            State = "LOOK_AT_TASKS"
	StateSubmitDeleteTask       State = "SUBMIT_DELETE_TASK"
)

// AllStates lists every valid state, grouped by flow family.
var AllStates = []State{
	StateDefault, StateInMenu,
	StateWaitForName, StateSubmitName, StateWaitForLogin, StateSubmitLogin,
	StateWaitForTaskTitle, StateSubmitTitle, StateWaitForTaskDescription, StateSubmitDescription,
	StateLookAtTasks, StateSubmitDeleteTask,
}

// Valid reports whether s belongs to the closed set of states.
// StateNone is not valid: it marks the absence of a state.
func (s State) Valid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// Confirming reports whether s awaits a confirm/cancel answer.
func (s State) Confirming() bool {
	switch s {
	case StateSubmitName, StateSubmitLogin, StateSubmitTitle, StateSubmitDescription, StateSubmitDeleteTask:
		return true
	}
	return false
}

func (s State) String() string {
	if s == StateNone {
		return "NONE"
	}
	return string(s)
}
