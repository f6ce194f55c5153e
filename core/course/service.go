package course

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/kursly/backend/core"
	"github.com/kursly/backend/core/user"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("course")
	ErrLessonNotFound = core.NewNotFoundError("lesson")
	ErrVideoNotFound  = core.NewNotFoundError("video")

	newLessonSubject = "A user you follow added a new lesson"
	newVideoSubject  = "A user you follow added a new video"
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		QueryCoursesByAuthor(ctx context.Context, authorID string) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		// DeleteCourse cascades to the course's lessons and their videos.
		DeleteCourse(ctx context.Context, id string) error

		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		QueryAllLessons(ctx context.Context) ([]Lesson, error)
		QueryLessonsByAuthor(ctx context.Context, authorID string) ([]Lesson, error)
		GetLessonByID(ctx context.Context, id string) (Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) error

		CreateVideo(ctx context.Context, vid Video) (Video, error)
		QueryAllVideos(ctx context.Context) ([]Video, error)
		QueryVideosByAuthor(ctx context.Context, authorID string) ([]Video, error)
		QueryVideosByLesson(ctx context.Context, lessonID string) ([]Video, error)
		GetVideoByID(ctx context.Context, id string) (Video, error)
		UpdateVideo(ctx context.Context, vid Video) (Video, error)
		DeleteVideo(ctx context.Context, id string) error

		// SearchContent does a case-insensitive substring match of q against
		// Course.Name, Lesson.Title and Video.Title independently.
		// An empty q matches everything.
		SearchContent(ctx context.Context, q string) (SearchResult, error)
	}

	// UserGetter resolves author identities for notification bodies.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service interface {
		CreateCourse(ctx context.Context, actor core.Actor, nc NewCourse) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		CoursesByAuthor(ctx context.Context, authorID string) ([]Course, error)
		LessonsByAuthor(ctx context.Context, authorID string) ([]Lesson, error)
		VideosByAuthor(ctx context.Context, authorID string) ([]Video, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, actor core.Actor, id string, uc UpdateCourse) (Course, error)
		DeleteCourse(ctx context.Context, actor core.Actor, id string) error

		CreateLesson(ctx context.Context, actor core.Actor, nl NewLesson) (Lesson, error)
		QueryLessons(ctx context.Context) ([]Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		GetLessonDetail(ctx context.Context, id string) (LessonDetail, error)
		UpdateLesson(ctx context.Context, actor core.Actor, id string, ul UpdateLesson) (Lesson, error)
		DeleteLesson(ctx context.Context, actor core.Actor, id string) error

		CreateVideo(ctx context.Context, actor core.Actor, nv NewVideo) (Video, error)
		QueryVideos(ctx context.Context) ([]Video, error)
		GetVideo(ctx context.Context, id string) (Video, error)
		UpdateVideo(ctx context.Context, actor core.Actor, id string, uv UpdateVideo) (Video, error)
		DeleteVideo(ctx context.Context, actor core.Actor, id string) error

		Search(ctx context.Context, q string) (SearchResult, error)
	}

	service struct {
		repo      Repository
		users     UserGetter
		followers core.FollowerDirectory
		mailSvc   core.EmailService
		logger    core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users UserGetter, followers core.FollowerDirectory, mailSvc core.EmailService, logger core.Logger) *service {
	return &service{
		repo:      repo,
		users:     users,
		followers: followers,
		mailSvc:   mailSvc,
		logger:    logger,
	}
}

// Courses

func (svc *service) CreateCourse(ctx context.Context, actor core.Actor, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		AuthorID:    null.StringFrom(actor.ID),
		Name:        nc.Name,
		Description: null.NewString(nc.Description, nc.Description != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

// By-author reads serving the profile detail aggregate.

func (svc *service) CoursesByAuthor(ctx context.Context, authorID string) ([]Course, error) {
	return svc.repo.QueryCoursesByAuthor(ctx, authorID)
}

func (svc *service) LessonsByAuthor(ctx context.Context, authorID string) ([]Lesson, error) {
	return svc.repo.QueryLessonsByAuthor(ctx, authorID)
}

func (svc *service) VideosByAuthor(ctx context.Context, authorID string) ([]Video, error) {
	return svc.repo.QueryVideosByAuthor(ctx, authorID)
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) UpdateCourse(ctx context.Context, actor core.Actor, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !actor.Can(EffectiveOwner(crs)) {
		return Course{}, core.ErrPermissionDenied
	}

	if uc.Name != "" {
		crs.Name = uc.Name
	}
	if uc.Description != nil {
		crs.Description.SetValid(*uc.Description)
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) DeleteCourse(ctx context.Context, actor core.Actor, id string) error {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Can(EffectiveOwner(crs)) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteCourse(ctx, id)
}

// Lessons

// CreateLesson requires the actor to own the target course (or be a
// superuser). On success the course author's followers are notified.
func (svc *service) CreateLesson(ctx context.Context, actor core.Actor, nl NewLesson) (Lesson, error) {
	crs, err := svc.repo.GetCourseByID(ctx, nl.CourseID)
	if err != nil {
		return Lesson{}, err
	}
	if !actor.Can(EffectiveOwner(crs)) {
		return Lesson{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	lsn := Lesson{
		AuthorID:  null.StringFrom(actor.ID),
		CourseID:  crs.ID,
		Title:     nl.Title,
		Content:   null.NewString(nl.Content, nl.Content != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	lsn, err = svc.repo.CreateLesson(ctx, lsn)
	if err != nil {
		return Lesson{}, err
	}

	svc.notifyLessonCreated(ctx, crs, lsn)
	return lsn, nil
}

func (svc *service) QueryLessons(ctx context.Context) ([]Lesson, error) {
	return svc.repo.QueryAllLessons(ctx)
}

func (svc *service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *service) GetLessonDetail(ctx context.Context, id string) (LessonDetail, error) {
	lsn, err := svc.repo.GetLessonByID(ctx, id)
	if err != nil {
		return LessonDetail{}, err
	}
	videos, err := svc.repo.QueryVideosByLesson(ctx, id)
	if err != nil {
		return LessonDetail{}, err
	}
	if videos == nil {
		videos = []Video{}
	}
	return LessonDetail{Lesson: lsn, VideosCount: len(videos), Videos: videos}, nil
}

func (svc *service) UpdateLesson(ctx context.Context, actor core.Actor, id string, ul UpdateLesson) (Lesson, error) {
	lsn, err := svc.repo.GetLessonByID(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if err = svc.checkLessonOwner(ctx, actor, lsn); err != nil {
		return Lesson{}, err
	}

	if ul.Title != "" {
		lsn.Title = ul.Title
	}
	if ul.Content != nil {
		lsn.Content.SetValid(*ul.Content)
	}
	lsn.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLesson(ctx, lsn)
}

func (svc *service) DeleteLesson(ctx context.Context, actor core.Actor, id string) error {
	lsn, err := svc.repo.GetLessonByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.checkLessonOwner(ctx, actor, lsn); err != nil {
		return err
	}
	return svc.repo.DeleteLesson(ctx, id)
}

// Videos

// CreateVideo requires the actor to own the target lesson's course (or be a
// superuser). On success the lesson author's followers are notified.
func (svc *service) CreateVideo(ctx context.Context, actor core.Actor, nv NewVideo) (Video, error) {
	lsn, err := svc.repo.GetLessonByID(ctx, nv.LessonID)
	if err != nil {
		return Video{}, err
	}
	if err = svc.checkLessonOwner(ctx, actor, lsn); err != nil {
		return Video{}, err
	}

	vid := Video{
		AuthorID:    null.StringFrom(actor.ID),
		LessonID:    lsn.ID,
		Title:       nv.Title,
		Description: null.NewString(nv.Description, nv.Description != ""),
		File:        nv.File,
		UploadedAt:  time.Now().UTC(),
	}
	vid, err = svc.repo.CreateVideo(ctx, vid)
	if err != nil {
		return Video{}, err
	}

	svc.notifyVideoCreated(ctx, lsn)
	return vid, nil
}

func (svc *service) QueryVideos(ctx context.Context) ([]Video, error) {
	return svc.repo.QueryAllVideos(ctx)
}

func (svc *service) GetVideo(ctx context.Context, id string) (Video, error) {
	return svc.repo.GetVideoByID(ctx, id)
}

func (svc *service) UpdateVideo(ctx context.Context, actor core.Actor, id string, uv UpdateVideo) (Video, error) {
	vid, err := svc.repo.GetVideoByID(ctx, id)
	if err != nil {
		return Video{}, err
	}
	if err = svc.checkVideoOwner(ctx, actor, vid); err != nil {
		return Video{}, err
	}

	if uv.Title != "" {
		vid.Title = uv.Title
	}
	if uv.Description != nil {
		vid.Description.SetValid(*uv.Description)
	}
	if uv.File != "" {
		vid.File = uv.File
	}
	return svc.repo.UpdateVideo(ctx, vid)
}

func (svc *service) DeleteVideo(ctx context.Context, actor core.Actor, id string) error {
	vid, err := svc.repo.GetVideoByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.checkVideoOwner(ctx, actor, vid); err != nil {
		return err
	}
	return svc.repo.DeleteVideo(ctx, id)
}

func (svc *service) Search(ctx context.Context, q string) (SearchResult, error) {
	res, err := svc.repo.SearchContent(ctx, core.CleanString(q))
	if err != nil {
		return SearchResult{}, err
	}
	if res.Courses == nil {
		res.Courses = []Course{}
	}
	if res.Lessons == nil {
		res.Lessons = []Lesson{}
	}
	if res.Videos == nil {
		res.Videos = []Video{}
	}
	return res, nil
}

// ownership chain checks

func (svc *service) checkLessonOwner(ctx context.Context, actor core.Actor, lsn Lesson) error {
	crs, err := svc.repo.GetCourseByID(ctx, lsn.CourseID)
	if err != nil {
		return err
	}
	if !actor.Can(EffectiveOwner(crs)) {
		return core.ErrPermissionDenied
	}
	return nil
}

func (svc *service) checkVideoOwner(ctx context.Context, actor core.Actor, vid Video) error {
	lsn, err := svc.repo.GetLessonByID(ctx, vid.LessonID)
	if err != nil {
		return err
	}
	return svc.checkLessonOwner(ctx, actor, lsn)
}

// notification fan-out; best-effort, never fails the triggering create

func (svc *service) notifyLessonCreated(ctx context.Context, crs Course, lsn Lesson) {
	author, err := svc.users.GetByID(ctx, crs.AuthorID.String)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("resolving course author for fan-out: %v", err), err)
		return
	}
	recipients, err := svc.followers.FollowerEmails(ctx, author.ID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("resolving followers for fan-out: %v", err), err)
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      recipients,
		Subject: newLessonSubject,
		BodyStr: fmt.Sprintf("Author username: %s, email: %s,\nlesson title: %s", author.Username, author.Email, lsn.Title),
	})
}

func (svc *service) notifyVideoCreated(ctx context.Context, lsn Lesson) {
	author, err := svc.users.GetByID(ctx, lsn.AuthorID.String)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("resolving lesson author for fan-out: %v", err), err)
		return
	}
	recipients, err := svc.followers.FollowerEmails(ctx, author.ID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("resolving followers for fan-out: %v", err), err)
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      recipients,
		Subject: newVideoSubject,
		BodyStr: fmt.Sprintf("Username: %s, email: %s\nLesson title: %s\nUpdated at: %s", author.Username, author.Email, lsn.Title, lsn.UpdatedAt),
	})
}
