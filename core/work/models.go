package work

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/csbssync/portal/core"
)

// States
const (
	StateNotStarted = "not yet started"
	StateDoing      = "doing"
	StateCompleted  = "completed"
)

var States = []string{StateNotStarted, StateDoing, StateCompleted}

func IsValidState(state string) bool {
	for _, s := range States {
		if s == state {
			return true
		}
	}
	return false
}

// Work is an assignment and the progress every user reported on it.
type Work struct {
	ID          string        `json:"id"`
	Subject     string        `json:"subject"`
	Description string        `json:"work"`
	Deadline    core.Date     `json:"deadline"`
	FileURL     string        `json:"fileUrl"`
	AddedBy     string        `json:"addedBy"`
	Status      []StatusEntry `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"` // UTC
	UpdatedAt   time.Time     `json:"updatedAt"` // UTC
}

// StatusEntry is one user's progress on a Work. Username and Email are copies refreshed on every upsert.
type StatusEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	State    string `json:"state"`
}

// SetStatus replaces the entry of entry.UserID in place, or appends it.
// It reports whether an existing entry was replaced.
func (w *Work) SetStatus(entry StatusEntry) bool {
	for i := range w.Status {
		if w.Status[i].UserID == entry.UserID {
			w.Status[i] = entry
			return true
		}
	}
	w.Status = append(w.Status, entry)
	return false
}

// StatusOf returns the entry of the given user, if any.
func (w *Work) StatusOf(userID string) (StatusEntry, bool) {
	for _, e := range w.Status {
		if e.UserID == userID {
			return e, true
		}
	}
	return StatusEntry{}, false
}

// NewWork contains information needed to create a new Work.
type NewWork struct {
	Subject     string `json:"subject" validate:"notblank"`
	Description string `json:"work" validate:"notblank"`
	Deadline    string `json:"deadline" validate:"required,date"`
	FileURL     string `json:"fileUrl"`
	FileBase64  string `json:"fileBase64"`
	AddedBy     string `json:"addedBy"`
}

func (nw *NewWork) Validate(validate *validator.Validate) error {
	nw.Subject = core.CleanString(nw.Subject)
	nw.Description = core.CleanString(nw.Description)
	nw.Deadline = core.CleanString(nw.Deadline)
	nw.FileURL = core.CleanString(nw.FileURL)
	nw.AddedBy = core.CleanString(nw.AddedBy)
	return validate.Struct(nw)
}

// UpdateStatus is a user's status report on a Work.
type UpdateStatus struct {
	UserID   string `json:"userId" validate:"required"`
	Username string `json:"username"`
	Email    string `json:"email"`
	State    string `json:"state" validate:"required,workstate"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.UserID = core.CleanString(us.UserID)
	us.Username = core.CleanString(us.Username)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.State = core.CleanString(us.State, true /* lower */)
	return validate.Struct(us)
}

func (us UpdateStatus) entry() StatusEntry {
	return StatusEntry{
		UserID:   us.UserID,
		Username: us.Username,
		Email:    us.Email,
		State:    us.State,
	}
}
