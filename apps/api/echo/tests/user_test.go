package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	. "github.com/kursly/backend/apps/api/echo"
	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/user"
	emailsvc "github.com/kursly/backend/services/email"
	testutil "github.com/kursly/backend/tests"
)

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	t.Run("field errors", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/register",
			body:     marchallObj(t, user.NewUser{Password: "GravityIsALie!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"email":    "this field is required",
			}),
		}
		req, rec := newRequest(tt.method, tt.path, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("password policy", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/register",
			body:     marchallObj(t, user.NewUser{Username: "newtonx", Email: "newton@test.cd", Password: "12345678"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		}
		req, rec := newRequest(tt.method, tt.path, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("ok", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{Username: "newtonx", Email: "newton@test.cd", Password: "GravityIsALie!"})
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusCreated, rec.Body.String())
		}

		usr, err := usrRepo.GetUserByUsernameOrEmail(ctx, "newtonx")
		if err != nil {
			t.Fatalf("user was not persisted: %v", err)
		}
		if !usr.IsActive {
			t.Error("new user must be active")
		}
		if usr.IsSuperuser {
			t.Error("new user must not be a superuser")
		}
		if err := usr.CheckPassword("GravityIsALie!"); err != nil {
			t.Errorf("password was not hashed properly: %v", err)
		}

		// an empty profile is attached on registration
		prof, err := usrRepo.GetProfileByUserID(ctx, usr.ID)
		if err != nil {
			t.Fatalf("profile was not created: %v", err)
		}
		if prof.FullName != "" {
			t.Errorf("profile must start empty; got fullname %q", prof.FullName)
		}

		// a welcome mail goes out
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if len(msg.To) != 1 || msg.To[0].Address != "newton@test.cd" {
			t.Errorf("welcome mail recipients = %v", msg.To)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/register",
			body:     marchallObj(t, user.NewUser{Username: "newtonx", Email: "other@test.cd", Password: "GravityIsALie!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		}
		req, rec := newRequest(tt.method, tt.path, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "LeP@ssword", false, true)
	testutil.CreateUser(t, usrRepo, "ghost", "ghost@test.cd", "LeP@ssword", false, false)

	tests := []httpTest{
		{
			name: "Fields are required", body: marchallObj(t, LoginRequest{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "Unknown user fails", body: marchallObj(t, LoginRequest{Username: "nobody", Password: "LeP@ssword"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Wrong password fails", body: marchallObj(t, LoginRequest{Username: "awe", Password: "oops"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Deactivated account fails", body: marchallObj(t, LoginRequest{Username: "ghost", Password: "LeP@ssword"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Login by username or email", func(t *testing.T) {
		for _, uname := range []string{"awe", "AWE@test.cd"} {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", marchallObj(t, LoginRequest{Username: uname, Password: "LeP@ssword"}))
			app.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
			}
			var res LoginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("unmarshalling LoginResponse: %v", err)
			}
			if res.Token == "" {
				t.Error("token must not be empty")
			}
		}

		// lastLogin is stamped
		usr, err := usrRepo.GetUserByUsernameOrEmail(context.Background(), "awe")
		if err != nil {
			t.Fatal(err)
		}
		if usr.LastLogin.IsZero() {
			t.Error("lastLogin was not set")
		}
	})
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "LeP@ssword", false, true)

	t.Run("Auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}
		var res LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling LoginResponse: %v", err)
		}
		if res.Token == "" {
			t.Error("token must not be empty")
		}
	})
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	path := func(search string, isActive *bool, createdFrom, createdTo time.Time) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if !createdFrom.IsZero() {
			v.Add("created_from", createdFrom.Format(time.RFC3339))
		}
		if !createdTo.IsZero() {
			v.Add("created_to", createdTo.Format(time.RFC3339))
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	// RFC3339 query params carry second precision only
	now := time.Now().Truncate(time.Second)
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)

	usr1 := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "", false, true, t1)
	usr2 := testutil.CreateUser(t, usrRepo, "king", "king@test.cd", "", false, true, t2)
	admin := testutil.CreateUser(t, usrRepo, "admin", "admin@test.cd", "", true, true, t3)
	naughty := testutil.CreateUser(t, usrRepo, "ndog", "ndog@test.cd", "", false, false) // 😂

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, usr1),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, admin, usr2, usr1, naughty),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", nil, time.Time{}, time.Time{}), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{
			name: "search matches username or email", path: path("KING", nil, time.Time{}, time.Time{}),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, usr2),
		},
		{
			name: "is_active=false", path: path("", bPtr(false), time.Time{}, time.Time{}),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, naughty),
		},
		{
			name: "created_from", path: path("", nil, t2, time.Time{}),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, usr2, admin),
		},
		{
			name: "created_from - created_to", path: path("", nil, t1, t2),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, usr1, usr2),
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

func Test_userApi_userDetail(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "", false, true)
	other := testutil.CreateUser(t, usrRepo, "king", "king@test.cd", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "admin", "admin@test.cd", "", true, true)

	usrToken := getToken(t, usr)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/users/" + usr.ID,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Users can retrieve themselves", method: http.MethodGet, path: "/v1/users/" + usr.ID,
			token: usrToken, wantCode: http.StatusOK, wantData: marchallObj(t, usr),
		},
		{
			name: "Other users' records are a 404", method: http.MethodGet, path: "/v1/users/" + other.ID,
			token: usrToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Admins can retrieve anyone", method: http.MethodGet, path: "/v1/users/" + other.ID,
			token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
		{
			name: "Update requires admin", method: http.MethodPut, path: "/v1/users/" + usr.ID,
			body:  marchallObj(t, user.UpdateUser{Username: "renamed"}),
			token: usrToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Admins can update anyone", func(t *testing.T) {
		bFalse := false
		body := marchallObj(t, user.UpdateUser{Username: "renamed", IsActive: &bFalse})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+usr.ID, adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}
		updated, err := usrRepo.GetUserByID(context.Background(), usr.ID)
		if err != nil {
			t.Fatal(err)
		}
		if updated.Username != "renamed" {
			t.Errorf("username = %q; want %q", updated.Username, "renamed")
		}
		if updated.IsActive {
			t.Error("user must be deactivated")
		}
	})
}

func Test_userApi_userDestroy(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "", false, true)
	other := testutil.CreateUser(t, usrRepo, "king", "king@test.cd", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "admin", "admin@test.cd", "", true, true)
	adminToken := getToken(t, admin)

	t.Run("Delete requires admin", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+usr.ID, getToken(t, usr))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Admins cannot delete themselves", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Admins can delete others", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+usr.ID, adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}
		if _, err := usrRepo.GetUserByID(ctx, usr.ID); !core.IsNotFound(err) {
			t.Errorf("user must be gone; err = %v", err)
		}
	})

	t.Run("Bulk delete skips nobody but self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users?id="+other.ID+"&id="+admin.ID, adminToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}
		checkCodeAndData(t, tt, rec)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/users?id="+other.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; data = %v", rec.Code, rec.Body.String())
		}
		if _, err := usrRepo.GetUserByID(ctx, other.ID); !core.IsNotFound(err) {
			t.Errorf("user must be gone; err = %v", err)
		}
	})
}
