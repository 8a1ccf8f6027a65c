package notice_test

import (
	"context"
	"log"
	"net/http"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csbssync/portal/core"
	"github.com/csbssync/portal/core/notice"
	"github.com/csbssync/portal/core/user"
	emailsvc "github.com/csbssync/portal/services/email"
	testutil "github.com/csbssync/portal/tests"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestMain(m *testing.M) {
	if err := core.ParseEmailTemplates(true); err != nil {
		log.Fatal(err)
	}
	os.Exit(m.Run())
}

func TestService_Broadcast(t *testing.T) {
	ctx := context.Background()
	validate, _ := testutil.NewValidator()
	conf := core.NewTestConfig()
	repos := testutil.OpenRepositories(t)
	users := user.NewService(repos.Users, validate)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, nopLogger{})
	svc := notice.NewService(users, mailSvc, validate)

	t.Run("invalid notice", func(t *testing.T) {
		_, err := svc.Broadcast(ctx, notice.Notice{Subject: " ", Message: "hi"})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("no recipients", func(t *testing.T) {
		results, err := svc.Broadcast(ctx, notice.Notice{Subject: "Exam", Message: "Room 4"})
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
		assert.Empty(t, mailSvc.SentMessages())
	})

	testutil.CreateUser(t, repos.Users, "alice", "alice@test.test", "alice@notify.test", "", "")
	testutil.CreateUser(t, repos.Users, "bob", "bob@test.test", "bob@notify.test", "", "")
	testutil.CreateUser(t, repos.Users, "carol", "carol@test.test", "", "", "")

	t.Run("mail not configured", func(t *testing.T) {
		_, err := notice.NewService(users, nil, validate).Broadcast(ctx, notice.Notice{Subject: "Exam", Message: "Room 4"})
		assert.Equal(t, notice.ErrMailNotConfigured, err)
	})

	t.Run("one result per recipient", func(t *testing.T) {
		mailSvc.Reset()
		results, err := svc.Broadcast(ctx, notice.Notice{Subject: "Exam", Message: "Room 4\n\n<b>Bring a pen</b>"})
		require.NoError(t, err)

		emails := make([]string, 0, len(results))
		for _, res := range results {
			assert.Equal(t, http.StatusAccepted, res.Status)
			emails = append(emails, res.Email)
		}
		assert.ElementsMatch(t, []string{"alice@notify.test", "bob@notify.test"}, emails)

		sent := mailSvc.SentMessages()
		require.Len(t, sent, 2)
		for _, msg := range sent {
			assert.Equal(t, "Exam", msg.Subject)
			assert.Contains(t, msg.TextContent, "Room 4")
			assert.Contains(t, msg.HTMLContent, "&lt;b&gt;Bring a pen&lt;/b&gt;")
		}
	})
}
