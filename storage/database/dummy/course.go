package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kursly/backend/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) queryCourses() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) queryLessons() []course.Lesson {
	lessons := make([]course.Lesson, 0, len(repo.db.lessons))
	for _, l := range repo.db.lessons {
		lessons = append(lessons, *l)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].CreatedAt.After(lessons[j].CreatedAt) })
	return lessons
}

func (repo *courseRepository) queryVideos() []course.Video {
	videos := make([]course.Video, 0, len(repo.db.videos))
	for _, v := range repo.db.videos {
		videos = append(videos, *v)
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].UploadedAt.After(videos[j].UploadedAt) })
	return videos
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryCourses(), nil
}

func (repo *courseRepository) QueryCoursesByAuthor(ctx context.Context, authorID string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var courses []course.Course
	for _, c := range repo.queryCourses() {
		if c.AuthorID.Valid && c.AuthorID.String == authorID {
			courses = append(courses, c)
		}
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for lid, lsn := range repo.db.lessons {
		if lsn.CourseID == id {
			repo.db.deleteLessonRefs(lid)
			delete(repo.db.lessons, lid)
		}
	}
	delete(repo.db.courses, id)
	return nil
}

// Lessons

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lsn.ID = uuid.New().String()
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) QueryAllLessons(ctx context.Context) ([]course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryLessons(), nil
}

func (repo *courseRepository) QueryLessonsByAuthor(ctx context.Context, authorID string) ([]course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var lessons []course.Lesson
	for _, l := range repo.queryLessons() {
		if l.AuthorID.Valid && l.AuthorID.String == authorID {
			lessons = append(lessons, l)
		}
	}
	return lessons, nil
}

func (repo *courseRepository) GetLessonByID(ctx context.Context, id string) (course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lsn, ok := repo.db.lessons[id]; ok {
		return *lsn, nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.lessons[lsn.ID]; !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.deleteLessonRefs(id)
	delete(repo.db.lessons, id)
	return nil
}

// Videos

func (repo *courseRepository) CreateVideo(ctx context.Context, vid course.Video) (course.Video, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	vid.ID = uuid.New().String()
	repo.db.videos[vid.ID] = &vid
	return vid, nil
}

func (repo *courseRepository) QueryAllVideos(ctx context.Context) ([]course.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryVideos(), nil
}

func (repo *courseRepository) QueryVideosByAuthor(ctx context.Context, authorID string) ([]course.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var videos []course.Video
	for _, v := range repo.queryVideos() {
		if v.AuthorID.Valid && v.AuthorID.String == authorID {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

func (repo *courseRepository) QueryVideosByLesson(ctx context.Context, lessonID string) ([]course.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var videos []course.Video
	for _, v := range repo.queryVideos() {
		if v.LessonID == lessonID {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

func (repo *courseRepository) GetVideoByID(ctx context.Context, id string) (course.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if vid, ok := repo.db.videos[id]; ok {
		return *vid, nil
	}
	return course.Video{}, course.ErrVideoNotFound
}

func (repo *courseRepository) UpdateVideo(ctx context.Context, vid course.Video) (course.Video, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.videos[vid.ID]; !ok {
		return course.Video{}, course.ErrVideoNotFound
	}
	repo.db.videos[vid.ID] = &vid
	return vid, nil
}

func (repo *courseRepository) DeleteVideo(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.deleteVideoRefs(id)
	delete(repo.db.videos, id)
	return nil
}

func (repo *courseRepository) SearchContent(ctx context.Context, q string) (course.SearchResult, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	q = strings.ToLower(q)
	var res course.SearchResult

	for _, c := range repo.queryCourses() {
		if strings.Contains(strings.ToLower(c.Name), q) {
			res.Courses = append(res.Courses, c)
		}
	}
	for _, l := range repo.queryLessons() {
		if strings.Contains(strings.ToLower(l.Title), q) {
			res.Lessons = append(res.Lessons, l)
		}
	}
	for _, v := range repo.queryVideos() {
		if strings.Contains(strings.ToLower(v.Title), q) {
			res.Videos = append(res.Videos, v)
		}
	}
	return res, nil
}
