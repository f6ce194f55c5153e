package engage_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/course"
	"github.com/kursly/backend/core/engage"
	"github.com/kursly/backend/core/user"
	emailsvc "github.com/kursly/backend/services/email"
	dummydb "github.com/kursly/backend/storage/database/dummy"
	testutil "github.com/kursly/backend/tests"
)

type fixture struct {
	usrRepo    user.Repository
	courseRepo course.Repository
	engageRepo engage.Repository
	svc        engage.Service

	bob, carol user.User
	video      course.Video
}

func newFixture(t *testing.T) *fixture {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("newFixture() failed: %v", err)
	}

	f := &fixture{
		usrRepo:    dummydb.NewUserRepository(db),
		courseRepo: dummydb.NewCourseRepository(db),
		engageRepo: dummydb.NewEngageRepository(db),
	}

	conf := testutil.NewConfig()
	usrSvc := user.NewService(f.usrRepo, emailsvc.NewConsoleServiceMock(conf), conf)
	f.svc = engage.NewService(f.engageRepo, usrSvc, f.courseRepo)

	f.bob = testutil.CreateUser(t, f.usrRepo, "bob", "bob@test.cd", "", false, true)
	f.carol = testutil.CreateUser(t, f.usrRepo, "carol", "carol@test.cd", "", false, true)
	crs := testutil.CreateCourse(t, f.courseRepo, f.bob, "Goat Herding 101")
	lsn := testutil.CreateLesson(t, f.courseRepo, crs, f.bob, "Feeding")
	f.video = testutil.CreateVideo(t, f.courseRepo, lsn, f.bob, "Hay time", "hay.mp4")
	return f
}

func Test_service_reactionToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.carol.Actor()

	// neutral -> liked
	res, err := f.svc.ToggleLike(ctx, actor, f.video.ID)
	if err != nil {
		t.Fatalf("ToggleLike() failed: %v", err)
	}
	if !res.Created || res.Reaction.Kind != engage.KindLike {
		t.Fatalf("ToggleLike() = %+v; want a created like", res)
	}

	// liked -> disliked keeps a single row
	res, err = f.svc.ToggleDislike(ctx, actor, f.video.ID)
	if err != nil {
		t.Fatalf("ToggleDislike() failed: %v", err)
	}
	if !res.Created || res.Reaction.Kind != engage.KindDislike {
		t.Fatalf("ToggleDislike() = %+v; want a created dislike", res)
	}
	likes, err := f.engageRepo.QueryReactionsByVideo(ctx, f.video.ID, engage.KindLike)
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 0 {
		t.Errorf("len(likes) = %d; the like must have been cleared", len(likes))
	}

	// disliked -> neutral
	res, err = f.svc.ToggleDislike(ctx, actor, f.video.ID)
	if err != nil {
		t.Fatalf("ToggleDislike() failed: %v", err)
	}
	if res.Created {
		t.Fatalf("ToggleDislike() = %+v; want a removal", res)
	}
	if _, err = f.engageRepo.GetReaction(ctx, f.video.ID, f.carol.ID); err != engage.ErrReactionNotFound {
		t.Errorf("reaction must be gone; err = %v", err)
	}

	// different users react independently
	if _, err = f.svc.ToggleLike(ctx, f.bob.Actor(), f.video.ID); err != nil {
		t.Fatalf("ToggleLike() failed: %v", err)
	}
	if _, err = f.svc.ToggleLike(ctx, actor, f.video.ID); err != nil {
		t.Fatalf("ToggleLike() failed: %v", err)
	}
	likes, err = f.engageRepo.QueryReactionsByVideo(ctx, f.video.ID, engage.KindLike)
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 2 {
		t.Errorf("len(likes) = %d; want 2", len(likes))
	}
}

func Test_service_reactionToggle_unknownVideo(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ToggleLike(context.Background(), f.carol.Actor(), "nope")
	if !core.IsNotFound(err) {
		t.Errorf("ToggleLike() err = %v; want not found", err)
	}
}

func Test_service_follow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	follow, err := f.svc.Follow(ctx, f.carol.Actor(), engage.NewFollow{FollowedID: f.bob.ID})
	if err != nil {
		t.Fatalf("Follow() failed: %v", err)
	}

	// twice is a conflict
	if _, err = f.svc.Follow(ctx, f.carol.Actor(), engage.NewFollow{FollowedID: f.bob.ID}); err != engage.ErrAlreadyFollowing {
		t.Errorf("Follow() err = %v; want ErrAlreadyFollowing", err)
	}

	// unknown target
	if _, err = f.svc.Follow(ctx, f.carol.Actor(), engage.NewFollow{FollowedID: "nope"}); !core.IsNotFound(err) {
		t.Errorf("Follow() err = %v; want not found", err)
	}

	// fan-out directory
	addrs, err := f.svc.FollowerEmails(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("FollowerEmails() failed: %v", err)
	}
	if len(addrs) != 1 || addrs[0].Address != f.carol.Email {
		t.Errorf("FollowerEmails() = %v; want carol only", addrs)
	}

	// only the follower may unfollow
	if err = f.svc.Unfollow(ctx, f.bob.Actor(), follow.ID); err != core.ErrPermissionDenied {
		t.Errorf("Unfollow() err = %v; want ErrPermissionDenied", err)
	}
	if err = f.svc.Unfollow(ctx, f.carol.Actor(), follow.ID); err != nil {
		t.Fatalf("Unfollow() failed: %v", err)
	}

	addrs, err = f.svc.FollowerEmails(ctx, f.bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 0 {
		t.Errorf("FollowerEmails() = %v; want none", addrs)
	}
}

// Followers come back oldest follow first, for listings and fan-out alike.
func Test_service_followerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dave := testutil.CreateUser(t, f.usrRepo, "dave", "dave@test.cd", "", false, true)
	now := time.Now().UTC()
	testutil.CreateFollow(t, f.engageRepo, f.carol, f.bob, now.Add(-2*time.Minute))
	testutil.CreateFollow(t, f.engageRepo, dave, f.bob, now.Add(-time.Minute))

	infos, err := f.svc.Followers(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("Followers() failed: %v", err)
	}
	want := []engage.FollowerInfo{{Username: "carol"}, {Username: "dave"}}
	if !reflect.DeepEqual(infos, want) {
		t.Errorf("Followers() = %v; want %v", infos, want)
	}

	addrs, err := f.svc.FollowerEmails(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("FollowerEmails() failed: %v", err)
	}
	if len(addrs) != 2 || addrs[0].Address != f.carol.Email || addrs[1].Address != dave.Email {
		t.Errorf("FollowerEmails() = %v; want carol then dave", addrs)
	}
}
