package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	. "github.com/kursly/backend/apps/api/echo"
	"github.com/kursly/backend/core/course"
	"github.com/kursly/backend/core/engage"
	emailsvc "github.com/kursly/backend/services/email"
	testutil "github.com/kursly/backend/tests"
)

func Test_videoApi_create(t *testing.T) {
	app := setup(t)

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "", false, true)
	eve := testutil.CreateUser(t, usrRepo, "eve", "eve@test.cd", "", false, true)
	crs := testutil.CreateCourse(t, courseRepo, bob, "Goat Herding 101")
	lsn := testutil.CreateLesson(t, courseRepo, crs, bob, "Feeding")

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, course.NewVideo{LessonID: lsn.ID, Title: "Hay time", File: "hay.mp4"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "File format is checked", token: getToken(t, bob),
			body:     marchallObj(t, course.NewVideo{LessonID: lsn.ID, Title: "Hay time", File: "hay.txt"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"video": "unsupported video format; allowed formats: mp4, avi, mov, mkv"}),
		},
		{
			name: "Unknown lesson is a 404", token: getToken(t, bob),
			body:     marchallObj(t, course.NewVideo{LessonID: "nope", Title: "Hay time", File: "hay.mp4"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "lesson not found"}),
		},
		{
			name: "Only the course owner may add videos", token: getToken(t, eve),
			body:     marchallObj(t, course.NewVideo{LessonID: lsn.ID, Title: "Hay time", File: "hay.mp4"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/videos", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Lesson author's followers are notified", func(t *testing.T) {
		carol := testutil.CreateUser(t, usrRepo, "carol", "carol@test.cd", "", false, true)
		testutil.CreateFollow(t, engageRepo, carol, bob)
		emailsvc.ClearSentMessages()

		body := marchallObj(t, course.NewVideo{LessonID: lsn.ID, Title: "Hay time", File: "hay.mp4"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/videos", getToken(t, bob), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if msg.Subject != "A user you follow added a new video" {
			t.Errorf("subject = %q", msg.Subject)
		}
		if len(msg.To) != 1 || msg.To[0].Address != "carol@test.cd" {
			t.Errorf("recipients = %v; want carol only", msg.To)
		}
		if !strings.Contains(msg.BodyStr, lsn.Title) {
			t.Errorf("body %q must mention the lesson title %q", msg.BodyStr, lsn.Title)
		}
	})
}

func Test_videoApi_retrieve(t *testing.T) {
	app := setup(t)

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "", false, true)
	carol := testutil.CreateUser(t, usrRepo, "carol", "carol@test.cd", "", false, true)
	crs := testutil.CreateCourse(t, courseRepo, bob, "Goat Herding 101")
	lsn := testutil.CreateLesson(t, courseRepo, crs, bob, "Feeding")
	vid := testutil.CreateVideo(t, courseRepo, lsn, bob, "Hay time", "hay.mp4")

	like := testutil.CreateReaction(t, engageRepo, vid, carol, engage.KindLike)
	dislike := testutil.CreateReaction(t, engageRepo, vid, bob, engage.KindDislike)
	cmt := testutil.CreateComment(t, engageRepo, vid, carol, "so soothing")

	tt := httpTest{
		token: getToken(t, carol), wantCode: http.StatusOK,
		wantData: marchallObj(t, VideoDetail{
			Video:         vid,
			Likes:         []engage.Reaction{like},
			LikesCount:    1,
			Dislikes:      []engage.Reaction{dislike},
			DislikesCount: 1,
			Comments:      []engage.Comment{cmt},
			CommentsCount: 1,
		}),
	}
	req, rec := newAuthRequest(http.MethodGet, "/v1/videos/"+vid.ID, tt.token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func Test_videoApi_reactionToggles(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "", false, true)
	carol := testutil.CreateUser(t, usrRepo, "carol", "carol@test.cd", "", false, true)
	crs := testutil.CreateCourse(t, courseRepo, bob, "Goat Herding 101")
	lsn := testutil.CreateLesson(t, courseRepo, crs, bob, "Feeding")
	vid := testutil.CreateVideo(t, courseRepo, lsn, bob, "Hay time", "hay.mp4")

	carolToken := getToken(t, carol)
	likePath := "/v1/videos/" + vid.ID + "/like"
	dislikePath := "/v1/videos/" + vid.ID + "/dislike"

	t.Run("Unknown video is a 404", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "video not found"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/videos/nope/like", carolToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Neutral to liked", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, likePath, carolToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}
		var r engage.Reaction
		if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
			t.Fatal(err)
		}
		if r.Kind != engage.KindLike {
			t.Errorf("kind = %q; want %q", r.Kind, engage.KindLike)
		}
	})

	t.Run("Liked to disliked switches the single row", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, dislikePath, carolToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}

		r, err := engageRepo.GetReaction(ctx, vid.ID, carol.ID)
		if err != nil {
			t.Fatal(err)
		}
		if r.Kind != engage.KindDislike {
			t.Errorf("kind = %q; want %q", r.Kind, engage.KindDislike)
		}

		likes, err := engageRepo.QueryReactionsByVideo(ctx, vid.ID, engage.KindLike)
		if err != nil {
			t.Fatal(err)
		}
		if len(likes) != 0 {
			t.Errorf("len(likes) = %d; a like and a dislike cannot coexist", len(likes))
		}
	})

	t.Run("Disliked again goes back to neutral", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, dislikePath, carolToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}
		if _, err := engageRepo.GetReaction(ctx, vid.ID, carol.ID); err != engage.ErrReactionNotFound {
			t.Errorf("reaction must be gone; err = %v", err)
		}
	})
}
