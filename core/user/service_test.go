package user_test

import (
	"context"
	"testing"

	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/user"
	emailsvc "github.com/kursly/backend/services/email"
	dummydb "github.com/kursly/backend/storage/database/dummy"
	testutil "github.com/kursly/backend/tests"
)

func newService(t *testing.T) (user.Service, user.Repository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("newService() failed: %v", err)
	}
	repo := dummydb.NewUserRepository(db)
	conf := testutil.NewConfig()
	return user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf), repo
}

func Test_service_Register(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	emailsvc.ClearSentMessages()

	usr, err := svc.Register(ctx, user.NewUser{Username: "awe", Email: "awe@test.cd", Password: "LeP@ssword"})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if !usr.IsActive {
		t.Error("new user must be active")
	}
	if usr.IsSuperuser {
		t.Error("new user must not be a superuser")
	}
	if err = usr.CheckPassword("LeP@ssword"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	// an empty profile comes attached
	prof, err := repo.GetProfileByUserID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("profile was not created: %v", err)
	}
	if prof.FullName != "" || prof.Address.Valid {
		t.Errorf("profile must start empty; got %+v", prof)
	}

	// and a welcome mail goes out
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if len(msg.To) != 1 || msg.To[0].Address != usr.Email {
		t.Errorf("welcome mail recipients = %v", msg.To)
	}
}

func Test_service_CheckUniqueness(t *testing.T) {
	svc, repo := newService(t)

	usr := testutil.CreateUser(t, repo, "awe", "awe@test.cd", "", false, true)

	if err := svc.CheckUniqueness("king", "king@test.cd"); err != nil {
		t.Errorf("CheckUniqueness() err = %v; want nil", err)
	}

	err := svc.CheckUniqueness("awe", "king@test.cd")
	if vErr, ok := err.(*core.ValidationError); !ok || vErr.Fields[0].Field != "username" {
		t.Errorf("CheckUniqueness() err = %v; want a username field error", err)
	}

	err = svc.CheckUniqueness("king", "awe@test.cd")
	if vErr, ok := err.(*core.ValidationError); !ok || vErr.Fields[0].Field != "email" {
		t.Errorf("CheckUniqueness() err = %v; want an email field error", err)
	}

	// the record under edit is excluded from the check
	if err := svc.CheckUniqueness("awe", "awe@test.cd", usr); err != nil {
		t.Errorf("CheckUniqueness() err = %v; want nil", err)
	}
}

func Test_service_SetLastLogin(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "awe", "awe@test.cd", "", false, true)
	if !usr.LastLogin.IsZero() {
		t.Fatal("lastLogin must start unset")
	}

	if _, err := svc.SetLastLogin(ctx, usr); err != nil {
		t.Fatalf("SetLastLogin() failed: %v", err)
	}

	refreshed, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.LastLogin.IsZero() {
		t.Error("lastLogin was not persisted")
	}
}
