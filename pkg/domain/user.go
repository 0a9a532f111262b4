package domain

import (
	"strconv"
	"time"
)

// UserID is the opaque per-user handle shared by transports, the state store and storage.
type UserID int64

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses the decimal form produced by String.
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(v), nil
}

// User is a registered user.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Login    string `json:"login"`
	Identity UserID `json:"identity"`
}

// UserQuery selects a user by one key. The first non-zero field wins,
// in the order ID, Identity, Login.
type UserQuery struct {
	ID       int64
	Identity UserID
	Login    string
}

// ByIdentity builds a query on the identity key.
func ByIdentity(id UserID) UserQuery { return UserQuery{Identity: id} }

// ByLogin builds a query on the login key.
func ByLogin(login string) UserQuery { return UserQuery{Login: login} }

// Empty reports whether no key is set.
func (q UserQuery) Empty() bool {
	return q.ID == 0 && q.Identity == 0 && q.Login == ""
}

// MaxTitleLength bounds a task title, in runes.
const MaxTitleLength = 80

// Task is a to-do item owned by a user.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Deleted     bool      `json:"deleted"`
	Owner       UserID    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}

// Open reports whether the task shows up in browsing lists.
func (t Task) Open() bool {
	return !t.Completed && !t.Deleted
}
