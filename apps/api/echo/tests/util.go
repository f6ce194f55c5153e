package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/kursly/backend/apps/api/echo"
	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/course"
	"github.com/kursly/backend/core/engage"
	"github.com/kursly/backend/core/user"
	emailsvc "github.com/kursly/backend/services/email"
	dummydb "github.com/kursly/backend/storage/database/dummy"
	testutil "github.com/kursly/backend/tests"
)

var (
	conf *core.Config

	usrRepo    user.Repository
	courseRepo course.Repository
	engageRepo engage.Repository

	usrSvc    user.Service
	courseSvc course.Service
	engageSvc engage.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

// setup rebuilds the whole app on a fresh in-memory database.
func setup(t *testing.T) Server {
	conf = testutil.NewConfig()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	courseRepo = dummydb.NewCourseRepository(db)
	engageRepo = dummydb.NewEngageRepository(db)

	logger := testutil.NewLogger()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	emailsvc.ClearSentMessages()

	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	engageSvc = engage.NewService(engageRepo, usrSvc, courseRepo)
	courseSvc = course.NewService(courseRepo, usrSvc, engageSvc, mailSvc, logger)

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator(enLocale.Locale())
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	return NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		MailSvc:    mailSvc,
		UserSvc:    usrSvc,
		CourseSvc:  courseSvc,
		EngageSvc:  engageSvc,
		Validate:   validate,
		Translator: translator,
	})
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
