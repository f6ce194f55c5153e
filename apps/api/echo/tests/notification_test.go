package tests

import (
	"net/http"
	"testing"

	. "github.com/kursly/backend/apps/api/echo"
	emailsvc "github.com/kursly/backend/services/email"
	testutil "github.com/kursly/backend/tests"
)

func Test_notificationApi_broadcast(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "", false, true)
	other := testutil.CreateUser(t, usrRepo, "king", "king@test.cd", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "admin", "admin@test.cd", "", true, true)
	adminToken := getToken(t, admin)

	body := marchallObj(t, BroadcastRequest{Subject: "Maintenance", Body: "We will be down tonight."})

	tests := []httpTest{
		{
			name: "Auth required", body: body,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", body: body, token: getToken(t, usr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "Subject and body are required", body: marchallObj(t, BroadcastRequest{}), token: adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"subject": "this field is required", "body": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Every registered user gets the mail", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: "Notification dispatched to all users."}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", adminToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if msg.Subject != "Maintenance" {
			t.Errorf("subject = %q", msg.Subject)
		}
		got := make(map[string]bool, len(msg.To))
		for _, addr := range msg.To {
			got[addr.Address] = true
		}
		for _, want := range []string{usr.Email, other.Email, admin.Email} {
			if !got[want] {
				t.Errorf("missing recipient %q in %v", want, msg.To)
			}
		}
	})
}
