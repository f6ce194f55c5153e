package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/user"
)

type notificationApi struct {
	usrSvc   user.Service
	mailSvc  core.EmailService
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := notificationApi{
		usrSvc:   deps.UserSvc,
		mailSvc:  deps.MailSvc,
		validate: deps.Validate,
	}

	g.POST("/notifications", api.broadcast, jwt, adminMiddleware())
}

type BroadcastRequest struct {
	Subject string `json:"subject" validate:"required,max=255"`
	Body    string `json:"body" validate:"required"`
}

func (br *BroadcastRequest) Validate(validate *validator.Validate) error {
	br.Subject = core.CleanString(br.Subject)
	br.Body = core.CleanString(br.Body)
	return validate.Struct(br)
}

// broadcast mails every registered user the given subject and body.
func (api *notificationApi) broadcast(ctx echo.Context) error {
	var data BroadcastRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BroadcastRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	addrs, err := api.usrSvc.AllEmails(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying user emails")
	}

	api.mailSvc.SendMessages(&core.EmailMessage{
		To:      addrs,
		Subject: data.Subject,
		BodyStr: data.Body,
	})
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Notification dispatched to all users."})
}
