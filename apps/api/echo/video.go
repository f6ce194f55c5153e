package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kursly/backend/core/course"
	"github.com/kursly/backend/core/engage"
)

type videoApi struct {
	svc       course.Service
	engageSvc engage.Service
	validate  *validator.Validate
}

func registerVideoAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := videoApi{
		svc:       deps.CourseSvc,
		engageSvc: deps.EngageSvc,
		validate:  deps.Validate,
	}

	vg := g.Group("/videos", jwt)
	vg.POST("", api.create)
	vg.GET("", api.query)
	vg.GET("/:id", api.retrieve)
	vg.PUT("/:id", api.update)
	vg.DELETE("/:id", api.destroy)

	// reaction toggles
	vg.POST("/:id/like", api.like)
	vg.POST("/:id/dislike", api.dislike)
}

// VideoDetail is the enriched read of a Video with its engagement.
type VideoDetail struct {
	Video         course.Video      `json:"video"`
	Likes         []engage.Reaction `json:"likes"`
	LikesCount    int               `json:"likes_count"`
	Dislikes      []engage.Reaction `json:"dislikes"`
	DislikesCount int               `json:"dislikes_count"`
	Comments      []engage.Comment  `json:"comments"`
	CommentsCount int               `json:"comments_count"`
}

func (api *videoApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data course.NewVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVideo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	vid, err := api.svc.CreateVideo(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, vid)
}

func (api *videoApi) query(ctx echo.Context) error {
	videos, err := api.svc.QueryVideos(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying videos")
	}
	if videos == nil {
		videos = []course.Video{}
	}
	return ctx.JSON(http.StatusOK, videos)
}

func (api *videoApi) retrieve(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	vid, err := api.svc.GetVideo(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting video")
	}

	detail := VideoDetail{Video: vid}
	if detail.Likes, err = api.engageSvc.VideoReactions(reqCtx, vid.ID, engage.KindLike); err != nil {
		return errors.Wrap(err, "querying likes")
	}
	if detail.Dislikes, err = api.engageSvc.VideoReactions(reqCtx, vid.ID, engage.KindDislike); err != nil {
		return errors.Wrap(err, "querying dislikes")
	}
	if detail.Comments, err = api.engageSvc.CommentsByVideo(reqCtx, vid.ID); err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if detail.Likes == nil {
		detail.Likes = []engage.Reaction{}
	}
	if detail.Dislikes == nil {
		detail.Dislikes = []engage.Reaction{}
	}
	if detail.Comments == nil {
		detail.Comments = []engage.Comment{}
	}
	detail.LikesCount = len(detail.Likes)
	detail.DislikesCount = len(detail.Dislikes)
	detail.CommentsCount = len(detail.Comments)

	return ctx.JSON(http.StatusOK, detail)
}

func (api *videoApi) update(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVideo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	vid, err := api.svc.UpdateVideo(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, vid)
}

func (api *videoApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteVideo(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *videoApi) like(ctx echo.Context) error {
	return api.toggle(ctx, engage.KindLike)
}

func (api *videoApi) dislike(ctx echo.Context) error {
	return api.toggle(ctx, engage.KindDislike)
}

func (api *videoApi) toggle(ctx echo.Context, kind engage.ReactionKind) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var res engage.ToggleResult
	if kind == engage.KindLike {
		res, err = api.engageSvc.ToggleLike(ctx.Request().Context(), actor, ctx.Param("id"))
	} else {
		res, err = api.engageSvc.ToggleDislike(ctx.Request().Context(), actor, ctx.Param("id"))
	}
	if err != nil {
		return err
	}

	if !res.Created {
		// back to neutral
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.JSON(http.StatusCreated, res.Reaction)
}
