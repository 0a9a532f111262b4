package flow

import (
	"fmt"
	"os"

	"github.com/aretw0/todobot/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Messages is the text shown to users. Fields with a %s/%q verb receive one argument.
type Messages struct {
	Greeting      string `yaml:"greeting"`
	NotRegistered string `yaml:"not_registered"`
	Menu          string `yaml:"menu"`
	Failure       string `yaml:"failure"`

	AskName      string `yaml:"ask_name"`
	InvalidName  string `yaml:"invalid_name"`
	ConfirmName  string `yaml:"confirm_name"`
	AskLogin     string `yaml:"ask_login"`
	InvalidLogin string `yaml:"invalid_login"`
	LoginTaken   string `yaml:"login_taken"`
	ConfirmLogin string `yaml:"confirm_login"`
	Registered   string `yaml:"registered"`

	AskTitle       string `yaml:"ask_title"`
	InvalidTitle   string `yaml:"invalid_title"`
	TitleTooLong   string `yaml:"title_too_long"`
	ConfirmTitle   string `yaml:"confirm_title"`
	AskDescription string `yaml:"ask_description"`
	ConfirmTask    string `yaml:"confirm_task"`
	TaskCreated    string `yaml:"task_created"`

	NoTasks         string `yaml:"no_tasks"`
	TaskCard        string `yaml:"task_card"`
	TaskCompleted   string `yaml:"task_completed"`
	ConfirmDelete   string `yaml:"confirm_delete"`
	TaskDeleted     string `yaml:"task_deleted"`
	TaskGone        string `yaml:"task_gone"`
	DeleteCancelled string `yaml:"delete_cancelled"`
}

// DefaultMessages returns the built-in English texts.
func DefaultMessages() Messages {
	return Messages{
		Greeting:      "Hi! I am your to-do bot. I keep track of your tasks.",
		NotRegistered: "You are not registered yet.",
		Menu:          "Main menu. What would you like to do?",
		Failure:       "Something went wrong. Please try again.",

		AskName:      "What is your name?",
		InvalidName:  "The name cannot be empty. What is your name?",
		ConfirmName:  "Your name is %s. Is that right?",
		AskLogin:     "Choose a login, or use your platform login.",
		InvalidLogin: "The login cannot be empty. Choose a login.",
		LoginTaken:   "The login %s is already taken. Choose another one.",
		ConfirmLogin: "Your login will be %s. Is that right?",
		Registered:   "Registration complete, %s!",

		AskTitle:       fmt.Sprintf("Enter the task title (up to %d characters).", domain.MaxTitleLength),
		InvalidTitle:   "The title cannot be empty. Enter the task title.",
		TitleTooLong:   fmt.Sprintf("The title is longer than %d characters. Enter a shorter one.", domain.MaxTitleLength),
		ConfirmTitle:   "Task title: %s. Is that right?",
		AskDescription: "Enter the task description.",
		ConfirmTask:    "%s\n\nSave this task?",
		TaskCreated:    "Task saved.",

		NoTasks:         "You have no open tasks.",
		TaskCard:        "Task: %s\n\nDescription: %s",
		TaskCompleted:   "Task marked as completed.",
		ConfirmDelete:   "Delete the task %q?",
		TaskDeleted:     "Task deleted.",
		TaskGone:        "This task no longer exists.",
		DeleteCancelled: "Deletion cancelled.",
	}
}

// LoadMessages overlays the YAML file at path onto the defaults.
// Keys missing from the file keep their default text.
func LoadMessages(path string) (Messages, error) {
	msgs := DefaultMessages()
	data, err := os.ReadFile(path)
	if err != nil {
		return msgs, fmt.Errorf("failed to read messages file: %w", err)
	}
	if err := yaml.Unmarshal(data, &msgs); err != nil {
		return msgs, fmt.Errorf("failed to parse messages file: %w", err)
	}
	return msgs, nil
}

// Card renders a task the way browsing and confirmations show it.
func (m Messages) Card(title, description string) string {
	return fmt.Sprintf(m.TaskCard, title, description)
}
