// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/announcement"
	"github.com/csbssync/portal/core/user"
	"github.com/csbssync/portal/core/work"
	"github.com/csbssync/portal/storage/database"
)

// NewValidator returns a validator with every custom tag of the app registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	work.InitValidators(validate, translator)
	announcement.InitValidators(validate, translator)
	return validate, translator
}

// OpenRepositories opens a bolt database in a temp dir, closed when the test ends.
func OpenRepositories(t *testing.T) *database.Repositories {
	t.Helper()
	repos, err := database.OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenRepositories() failed: %v", err)
	}
	t.Cleanup(func() { _ = repos.Close(context.Background()) })
	return repos
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, email1, pwd, role string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if role == "" {
		role = user.RoleUser
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		Email1:    email1,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateWork(t *testing.T, repo work.Repository, subject, description, deadline string, createdAt ...time.Time) work.Work {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	d, err := core.ParseDate(deadline)
	if err != nil {
		t.Fatalf("createWork() failed: %v", err)
	}
	w, err := repo.CreateWork(context.Background(), work.Work{
		Subject:     subject,
		Description: description,
		Deadline:    d,
		Status:      []work.StatusEntry{},
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("createWork() failed: %v", err)
	}
	return w
}

// UploadedFile is a file received by MemoryStorage.
type UploadedFile struct {
	Folder      string
	Name        string
	ContentType string
	Content     []byte
}

// MemoryStorage is a core.FileStorage keeping uploads in memory.
type MemoryStorage struct {
	mu    sync.Mutex
	files []UploadedFile
	Err   error // returned by Upload when set
}

func (s *MemoryStorage) Upload(_ context.Context, folder string, f core.File) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f.Content); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, UploadedFile{Folder: folder, Name: f.Name, ContentType: f.ContentType, Content: buf.Bytes()})
	return "https://files.test/" + folder + "/" + f.Name, nil
}

func (s *MemoryStorage) Files() []UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UploadedFile(nil), s.files...)
}
