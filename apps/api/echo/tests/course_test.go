package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/course"
	testutil "github.com/kursly/backend/tests"
)

func Test_courseApi_create(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "", false, true)

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, course.NewCourse{Name: "Goat Herding 101"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Name is required", body: marchallObj(t, course.NewCourse{}), token: getToken(t, usr),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/courses", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("ok", func(t *testing.T) {
		body := marchallObj(t, course.NewCourse{Name: "Goat Herding 101", Description: "From kid to GOAT"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, usr), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}

		courses, err := courseRepo.QueryCoursesByAuthor(context.Background(), usr.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(courses) != 1 {
			t.Fatalf("len(courses) = %d; want 1", len(courses))
		}
		crs := courses[0]
		if crs.Name != "Goat Herding 101" {
			t.Errorf("name = %q", crs.Name)
		}
		if crs.AuthorID.String != usr.ID {
			t.Errorf("author = %q; want %q", crs.AuthorID.String, usr.ID)
		}
	})
}

func Test_courseApi_update(t *testing.T) {
	app := setup(t)

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "", false, true)
	eve := testutil.CreateUser(t, usrRepo, "eve", "eve@test.cd", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "admin", "admin@test.cd", "", true, true)
	crs := testutil.CreateCourse(t, courseRepo, bob, "Goat Herding 101")

	t.Run("Strangers are denied and the record stays put", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}
		body := marchallObj(t, course.UpdateCourse{Name: "Hijacked"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID, getToken(t, eve), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		orig, err := courseRepo.GetCourseByID(context.Background(), crs.ID)
		if err != nil {
			t.Fatal(err)
		}
		if orig.Name != crs.Name {
			t.Errorf("name = %q; want it untouched", orig.Name)
		}
	})

	t.Run("Owner can update", func(t *testing.T) {
		body := marchallObj(t, course.UpdateCourse{Name: "Goat Herding 102"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID, getToken(t, bob), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}
		updated, err := courseRepo.GetCourseByID(context.Background(), crs.ID)
		if err != nil {
			t.Fatal(err)
		}
		if updated.Name != "Goat Herding 102" {
			t.Errorf("name = %q", updated.Name)
		}
	})

	t.Run("Superusers can update anything", func(t *testing.T) {
		desc := "now state approved"
		body := marchallObj(t, course.UpdateCourse{Description: &desc})
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID, getToken(t, admin), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}
	})
}

func Test_courseApi_destroy(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "", false, true)
	crs := testutil.CreateCourse(t, courseRepo, bob, "Goat Herding 101")
	lsn := testutil.CreateLesson(t, courseRepo, crs, bob, "Feeding")
	vid := testutil.CreateVideo(t, courseRepo, lsn, bob, "Hay time", "hay.mp4")

	req, rec := newAuthRequest(http.MethodDelete, "/v1/courses/"+crs.ID, getToken(t, bob))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
	}

	// the whole hierarchy goes down with the course
	if _, err := courseRepo.GetCourseByID(ctx, crs.ID); !core.IsNotFound(err) {
		t.Errorf("course must be gone; err = %v", err)
	}
	if _, err := courseRepo.GetLessonByID(ctx, lsn.ID); !core.IsNotFound(err) {
		t.Errorf("lesson must be gone; err = %v", err)
	}
	if _, err := courseRepo.GetVideoByID(ctx, vid.ID); !core.IsNotFound(err) {
		t.Errorf("video must be gone; err = %v", err)
	}
}

func Test_courseApi_search(t *testing.T) {
	app := setup(t)

	now := time.Now().UTC()
	bob := testutil.CreateUser(t, usrRepo, "bob", "bob@test.cd", "", false, true)
	goats := testutil.CreateCourse(t, courseRepo, bob, "Goat Herding 101", now)
	chess := testutil.CreateCourse(t, courseRepo, bob, "Chess Openings", now.Add(time.Second))
	feeding := testutil.CreateLesson(t, courseRepo, goats, bob, "Feeding your goat")
	gambit := testutil.CreateLesson(t, courseRepo, chess, bob, "The queen's gambit")
	hay := testutil.CreateVideo(t, courseRepo, feeding, bob, "Hay time for goats", "hay.mp4")

	token := getToken(t, bob)
	path := func(q string) string { return "/v1/courses/search?q=" + url.QueryEscape(q) }

	tests := []httpTest{
		{
			name: "No match comes back empty", path: path("calculus"), token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, course.SearchResult{
				Courses: []course.Course{}, Lessons: []course.Lesson{}, Videos: []course.Video{},
			}),
		},
		{
			name: "Match is case-insensitive across all three levels", path: path("GOAT"), token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, course.SearchResult{
				Courses: []course.Course{goats}, Lessons: []course.Lesson{feeding}, Videos: []course.Video{hay},
			}),
		},
		{
			name: "Lesson-only match", path: path("gambit"), token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, course.SearchResult{
				Courses: []course.Course{}, Lessons: []course.Lesson{gambit}, Videos: []course.Video{},
			}),
		},
		{
			// the static /search segment must not swallow retrieval by id
			name: "Retrieval by id is unaffected", path: "/v1/courses/" + chess.ID, token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, chess),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
