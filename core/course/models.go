package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kursly/backend/core"
)

type Course struct {
	ID          string      `json:"id"`
	AuthorID    null.String `json:"author"` // null once the author is deleted
	Name        string      `json:"name"`
	Description null.String `json:"description"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

type Lesson struct {
	ID        string      `json:"id"`
	AuthorID  null.String `json:"author"`
	CourseID  string      `json:"course"`
	Title     string      `json:"title"`
	Content   null.String `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type Video struct {
	ID          string      `json:"id"`
	AuthorID    null.String `json:"author"`
	LessonID    string      `json:"lesson"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	File        string      `json:"video"` // storage reference, upload is external
	UploadedAt  time.Time   `json:"upload_date"`
}

// EffectiveOwner returns the user deemed authorized to modify a Course and
// everything under it. The course's own author field is authoritative for
// the whole hierarchy: a Lesson is owned by its course's author and a Video
// by its lesson's course's author, regardless of who authored the child.
// Returns "" when the author was deleted; "" matches no actor but a superuser.
func EffectiveOwner(c Course) string {
	return c.AuthorID.String
}

// LessonDetail is the enriched read of a Lesson.
type LessonDetail struct {
	Lesson      Lesson  `json:"lesson"`
	VideosCount int     `json:"videos_count"`
	Videos      []Video `json:"videos"`
}

// SearchResult holds the three parallel result lists of a content search.
type SearchResult struct {
	Courses []Course `json:"courses"`
	Lessons []Lesson `json:"lessons"`
	Videos  []Video  `json:"videos"`
}

type NewCourse struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type NewLesson struct {
	CourseID string `json:"course" validate:"required"`
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	return validate.Struct(nl)
}

type NewVideo struct {
	LessonID    string `json:"lesson" validate:"required"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	File        string `json:"video" validate:"required,videoext"`
}

func (nv *NewVideo) Validate(validate *validator.Validate) error {
	nv.Title = core.CleanString(nv.Title)
	nv.File = core.CleanString(nv.File)
	return validate.Struct(nv)
}

// Update inputs; nil/empty fields keep their current values.

type UpdateCourse struct {
	Name        string  `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}

type UpdateLesson struct {
	Title   string  `json:"title" validate:"omitempty,max=255"`
	Content *string `json:"content"`
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	ul.Title = core.CleanString(ul.Title)
	return validate.Struct(ul)
}

type UpdateVideo struct {
	Title       string  `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	File        string  `json:"video" validate:"omitempty,videoext"`
}

func (uv *UpdateVideo) Validate(validate *validator.Validate) error {
	uv.Title = core.CleanString(uv.Title)
	uv.File = core.CleanString(uv.File)
	return validate.Struct(uv)
}
