package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/course"
	"github.com/kursly/backend/core/engage"
	"github.com/kursly/backend/core/user"
)

// NewConfig returns the app configuration tuned for tests.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = true
	conf.TestMode = true
	return conf
}

// NewLogger returns a silent core.Logger. Tests never report to an
// external tracker; the rollbar service mutates package-level state.
func NewLogger() core.Logger {
	return &testLogger{std: log.New(io.Discard, "", 0)}
}

type testLogger struct {
	std *log.Logger
}

func (l testLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l testLogger) Debug(msg string, args ...interface{}) { l.print(msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.print(msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.print(msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.print(msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.print(msg, args) }

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd string,
	isSuperuser, isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:    uname,
		Email:       email,
		IsSuperuser: isSuperuser,
		IsActive:    isActive,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProfile(t *testing.T, repo user.Repository, usr user.User) user.Profile {
	prof, err := repo.CreateProfile(context.Background(), user.Profile{UserID: usr.ID})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return prof
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	author user.User,
	name string,
	createdAt ...time.Time,
) course.Course {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		AuthorID:  null.StringFrom(author.ID),
		Name:      name,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateLesson(
	t *testing.T,
	repo course.Repository,
	crs course.Course,
	author user.User,
	title string,
	createdAt ...time.Time,
) course.Lesson {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	lsn, err := repo.CreateLesson(context.Background(), course.Lesson{
		AuthorID:  null.StringFrom(author.ID),
		CourseID:  crs.ID,
		Title:     title,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return lsn
}

func CreateVideo(
	t *testing.T,
	repo course.Repository,
	lsn course.Lesson,
	author user.User,
	title, file string,
	uploadedAt ...time.Time,
) course.Video {
	tstamp := time.Now().UTC()
	if len(uploadedAt) > 0 {
		tstamp = uploadedAt[0].UTC()
	}
	vid, err := repo.CreateVideo(context.Background(), course.Video{
		AuthorID:   null.StringFrom(author.ID),
		LessonID:   lsn.ID,
		Title:      title,
		File:       file,
		UploadedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateVideo() failed: %v", err)
	}
	return vid
}

func CreateComment(
	t *testing.T,
	repo engage.Repository,
	vid course.Video,
	author user.User,
	content string,
	createdAt ...time.Time,
) engage.Comment {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	cmt := engage.Comment{
		VideoID:   vid.ID,
		Content:   content,
		CreatedAt: tstamp,
	}
	cmt.AuthorID.SetValid(author.ID)
	cmt, err := repo.CreateComment(context.Background(), cmt)
	if err != nil {
		t.Fatalf("CreateComment() failed: %v", err)
	}
	return cmt
}

func CreateReaction(
	t *testing.T,
	repo engage.Repository,
	vid course.Video,
	usr user.User,
	kind engage.ReactionKind,
) engage.Reaction {
	r, err := repo.CreateReaction(context.Background(), engage.Reaction{
		VideoID:   vid.ID,
		UserID:    usr.ID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateReaction() failed: %v", err)
	}
	return r
}

func CreateFollow(
	t *testing.T,
	repo engage.Repository,
	follower, followed user.User,
	createdAt ...time.Time,
) engage.Follow {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	f, err := repo.CreateFollow(context.Background(), engage.Follow{
		FollowerID: follower.ID,
		FollowedID: followed.ID,
		CreatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateFollow() failed: %v", err)
	}
	return f
}
