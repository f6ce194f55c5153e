package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kursly/backend/core/engage"
)

type engageApi struct {
	svc      engage.Service
	validate *validator.Validate
}

func registerEngageAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := engageApi{
		svc:      deps.EngageSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/comments", jwt)
	cg.POST("", api.createComment)
	cg.GET("", api.queryComments)
	cg.GET("/:id", api.retrieveComment)
	cg.PUT("/:id", api.updateComment)
	cg.DELETE("/:id", api.destroyComment)

	fg := g.Group("/follows", jwt)
	fg.POST("", api.follow)
	fg.DELETE("/:id", api.unfollow)

	g.GET("/users/:id/followers", api.followers, jwt)
}

// Comments

func (api *engageApi) createComment(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data engage.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cmt, err := api.svc.CreateComment(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cmt)
}

func (api *engageApi) queryComments(ctx echo.Context) error {
	var comments []engage.Comment
	var err error

	if videoID := ctx.QueryParam("video"); videoID != "" {
		comments, err = api.svc.CommentsByVideo(ctx.Request().Context(), videoID)
	} else {
		comments, err = api.svc.QueryComments(ctx.Request().Context())
	}
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if comments == nil {
		comments = []engage.Comment{}
	}
	return ctx.JSON(http.StatusOK, comments)
}

func (api *engageApi) retrieveComment(ctx echo.Context) error {
	cmt, err := api.svc.GetComment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting comment")
	}
	return ctx.JSON(http.StatusOK, cmt)
}

func (api *engageApi) updateComment(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data engage.UpdateComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateComment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cmt, err := api.svc.UpdateUserComment(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cmt)
}

func (api *engageApi) destroyComment(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteUserComment(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Follows

func (api *engageApi) follow(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data engage.NewFollow
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFollow")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.Follow(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *engageApi) unfollow(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Unfollow(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *engageApi) followers(ctx echo.Context) error {
	infos, err := api.svc.Followers(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying followers")
	}
	if infos == nil {
		infos = []engage.FollowerInfo{}
	}
	return ctx.JSON(http.StatusOK, infos)
}
