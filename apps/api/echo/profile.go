package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kursly/backend/core/course"
	"github.com/kursly/backend/core/engage"
	"github.com/kursly/backend/core/user"
)

type profileApi struct {
	usrSvc    user.Service
	courseSvc course.Service
	engageSvc engage.Service
	validate  *validator.Validate
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := profileApi{
		usrSvc:    deps.UserSvc,
		courseSvc: deps.CourseSvc,
		engageSvc: deps.EngageSvc,
		validate:  deps.Validate,
	}

	pg := g.Group("/profiles", jwt)
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
}

// ProfileDetail is the enriched read of a Profile: everything its owner
// authored plus their engagement footprint.
type ProfileDetail struct {
	Profile        user.Profile          `json:"profile"`
	Username       string                `json:"username"`
	Email          string                `json:"email"`
	Courses        []course.Course       `json:"courses"`
	Lessons        []course.Lesson       `json:"lessons"`
	Videos         []course.Video        `json:"videos"`
	Comments       []engage.Comment      `json:"comments"`
	LikesCount     int                   `json:"likes_count"`
	DislikesCount  int                   `json:"dislikes_count"`
	FollowersCount int                   `json:"followers_count"`
	Followers      []engage.FollowerInfo `json:"followers"`
}

func (api *profileApi) query(ctx echo.Context) error {
	profs, err := api.usrSvc.QueryProfiles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profs == nil {
		profs = []user.Profile{}
	}
	return ctx.JSON(http.StatusOK, profs)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	prof, err := api.usrSvc.GetProfile(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	owner, err := api.usrSvc.GetByID(reqCtx, prof.UserID)
	if err != nil {
		return errors.Wrap(err, "getting profile owner")
	}

	detail := ProfileDetail{
		Profile:  prof,
		Username: owner.Username,
		Email:    owner.Email,
	}
	if detail.Courses, err = api.courseSvc.CoursesByAuthor(reqCtx, owner.ID); err != nil {
		return errors.Wrap(err, "querying authored courses")
	}
	if detail.Lessons, err = api.courseSvc.LessonsByAuthor(reqCtx, owner.ID); err != nil {
		return errors.Wrap(err, "querying authored lessons")
	}
	if detail.Videos, err = api.courseSvc.VideosByAuthor(reqCtx, owner.ID); err != nil {
		return errors.Wrap(err, "querying authored videos")
	}
	if detail.Comments, err = api.engageSvc.CommentsByAuthor(reqCtx, owner.ID); err != nil {
		return errors.Wrap(err, "querying authored comments")
	}
	if detail.LikesCount, err = api.engageSvc.ReactionCountByUser(reqCtx, owner.ID, engage.KindLike); err != nil {
		return errors.Wrap(err, "counting likes")
	}
	if detail.DislikesCount, err = api.engageSvc.ReactionCountByUser(reqCtx, owner.ID, engage.KindDislike); err != nil {
		return errors.Wrap(err, "counting dislikes")
	}
	if detail.Followers, err = api.engageSvc.Followers(reqCtx, owner.ID); err != nil {
		return errors.Wrap(err, "querying followers")
	}
	detail.FollowersCount = len(detail.Followers)

	if detail.Courses == nil {
		detail.Courses = []course.Course{}
	}
	if detail.Lessons == nil {
		detail.Lessons = []course.Lesson{}
	}
	if detail.Videos == nil {
		detail.Videos = []course.Video{}
	}
	if detail.Comments == nil {
		detail.Comments = []engage.Comment{}
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *profileApi) update(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prof, err := api.usrSvc.UpdateUserProfile(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err := api.usrSvc.DeleteUserProfile(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
