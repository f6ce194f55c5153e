package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kursly/backend/core/course"
)

type courseRow struct {
	ID          string      `db:"id"`
	AuthorID    null.String `db:"author_id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r courseRow) model() course.Course {
	return course.Course{
		ID:          r.ID,
		AuthorID:    r.AuthorID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type lessonRow struct {
	ID        string      `db:"id"`
	AuthorID  null.String `db:"author_id"`
	CourseID  string      `db:"course_id"`
	Title     string      `db:"title"`
	Content   null.String `db:"content"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r lessonRow) model() course.Lesson {
	return course.Lesson{
		ID:        r.ID,
		AuthorID:  r.AuthorID,
		CourseID:  r.CourseID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type videoRow struct {
	ID          string      `db:"id"`
	AuthorID    null.String `db:"author_id"`
	LessonID    string      `db:"lesson_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	File        string      `db:"file"`
	UploadedAt  time.Time   `db:"uploaded_at"`
}

func (r videoRow) model() course.Video {
	return course.Video{
		ID:          r.ID,
		AuthorID:    r.AuthorID,
		LessonID:    r.LessonID,
		Title:       r.Title,
		Description: r.Description,
		File:        r.File,
		UploadedAt:  r.UploadedAt,
	}
}

func unpackCourses(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.model())
	}
	return courses
}

func unpackLessons(rows []lessonRow) []course.Lesson {
	lessons := make([]course.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.model())
	}
	return lessons
}

func unpackVideos(rows []videoRow) []course.Video {
	videos := make([]course.Video, 0, len(rows))
	for _, r := range rows {
		videos = append(videos, r.model())
	}
	return videos
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

// Courses

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO course (id, author_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		crs.ID, crs.AuthorID, crs.Name, crs.Description, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return unpackCourses(rows), nil
}

func (repo courseRepository) QueryCoursesByAuthor(ctx context.Context, authorID string) ([]course.Course, error) {
	var rows []courseRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course WHERE author_id = $1 ORDER BY created_at DESC`, authorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses by author")
	}
	return unpackCourses(rows), nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course")
	}
	return row.model(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE course SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		crs.ID, crs.Name, crs.Description, crs.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	// lessons and videos go down with it via FK cascades
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

// Lessons

func (repo courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	lsn.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO lesson (id, author_id, course_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		lsn.ID, lsn.AuthorID, lsn.CourseID, lsn.Title, lsn.Content, lsn.CreatedAt.UTC(), lsn.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return lsn, nil
}

func (repo courseRepository) QueryAllLessons(ctx context.Context) ([]course.Lesson, error) {
	var rows []lessonRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM lesson ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	return unpackLessons(rows), nil
}

func (repo courseRepository) QueryLessonsByAuthor(ctx context.Context, authorID string) ([]course.Lesson, error) {
	var rows []lessonRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM lesson WHERE author_id = $1 ORDER BY created_at DESC`, authorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons by author")
	}
	return unpackLessons(rows), nil
}

func (repo courseRepository) GetLessonByID(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM lesson WHERE id = $1`, id); err != nil {
		return course.Lesson{}, trapNoRowsErr(err, course.ErrLessonNotFound, "getting lesson")
	}
	return row.model(), nil
}

func (repo courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE lesson SET title = $2, content = $3, updated_at = $4 WHERE id = $1`,
		lsn.ID, lsn.Title, lsn.Content, lsn.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return lsn, nil
}

func (repo courseRepository) DeleteLesson(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM lesson WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return nil
}

// Videos

func (repo courseRepository) CreateVideo(ctx context.Context, vid course.Video) (course.Video, error) {
	vid.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO video (id, author_id, lesson_id, title, description, file, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		vid.ID, vid.AuthorID, vid.LessonID, vid.Title, vid.Description, vid.File, vid.UploadedAt.UTC(),
	)
	if err != nil {
		return course.Video{}, errors.Wrap(err, "inserting video")
	}
	return vid, nil
}

func (repo courseRepository) QueryAllVideos(ctx context.Context) ([]course.Video, error) {
	var rows []videoRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM video ORDER BY uploaded_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	return unpackVideos(rows), nil
}

func (repo courseRepository) QueryVideosByAuthor(ctx context.Context, authorID string) ([]course.Video, error) {
	var rows []videoRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM video WHERE author_id = $1 ORDER BY uploaded_at DESC`, authorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying videos by author")
	}
	return unpackVideos(rows), nil
}

func (repo courseRepository) QueryVideosByLesson(ctx context.Context, lessonID string) ([]course.Video, error) {
	var rows []videoRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM video WHERE lesson_id = $1 ORDER BY uploaded_at DESC`, lessonID)
	if err != nil {
		return nil, errors.Wrap(err, "querying videos by lesson")
	}
	return unpackVideos(rows), nil
}

func (repo courseRepository) GetVideoByID(ctx context.Context, id string) (course.Video, error) {
	var row videoRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM video WHERE id = $1`, id); err != nil {
		return course.Video{}, trapNoRowsErr(err, course.ErrVideoNotFound, "getting video")
	}
	return row.model(), nil
}

func (repo courseRepository) UpdateVideo(ctx context.Context, vid course.Video) (course.Video, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE video SET title = $2, description = $3, file = $4 WHERE id = $1`,
		vid.ID, vid.Title, vid.Description, vid.File,
	)
	if err != nil {
		return course.Video{}, errors.Wrap(err, "updating video")
	}
	return vid, nil
}

func (repo courseRepository) DeleteVideo(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM video WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting video")
	}
	return nil
}

// SearchContent matches q as a case-insensitive substring of course names,
// lesson titles and video titles independently.
func (repo courseRepository) SearchContent(ctx context.Context, q string) (course.SearchResult, error) {
	val := "%" + q + "%"
	var res course.SearchResult

	var courses []courseRow
	if err := repo.db.SelectContext(ctx, &courses, `SELECT * FROM course WHERE name ILIKE $1 ORDER BY created_at DESC`, val); err != nil {
		return course.SearchResult{}, errors.Wrap(err, "searching courses")
	}
	var lessons []lessonRow
	if err := repo.db.SelectContext(ctx, &lessons, `SELECT * FROM lesson WHERE title ILIKE $1 ORDER BY created_at DESC`, val); err != nil {
		return course.SearchResult{}, errors.Wrap(err, "searching lessons")
	}
	var videos []videoRow
	if err := repo.db.SelectContext(ctx, &videos, `SELECT * FROM video WHERE title ILIKE $1 ORDER BY uploaded_at DESC`, val); err != nil {
		return course.SearchResult{}, errors.Wrap(err, "searching videos")
	}

	res.Courses = unpackCourses(courses)
	res.Lessons = unpackLessons(lessons)
	res.Videos = unpackVideos(videos)
	return res, nil
}
