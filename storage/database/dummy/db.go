// Package dummydb provides in-memory repositories for tests and DEV runs
// without a Postgres instance. Cross-table effects that Postgres enforces
// with FK actions (cascades, SET NULL on author refs) are emulated by hand.
package dummydb

import (
	"sync"

	"github.com/kursly/backend/core/course"
	"github.com/kursly/backend/core/engage"
	"github.com/kursly/backend/core/user"
)

type DB struct {
	sync.RWMutex

	users    map[string]*user.User
	profiles map[string]*user.Profile

	courses map[string]*course.Course
	lessons map[string]*course.Lesson
	videos  map[string]*course.Video

	comments  map[string]*engage.Comment
	reactions map[string]*engage.Reaction
	follows   map[string]*engage.Follow
}

func Open() (*DB, error) {
	db := &DB{
		users:     make(map[string]*user.User),
		profiles:  make(map[string]*user.Profile),
		courses:   make(map[string]*course.Course),
		lessons:   make(map[string]*course.Lesson),
		videos:    make(map[string]*course.Video),
		comments:  make(map[string]*engage.Comment),
		reactions: make(map[string]*engage.Reaction),
		follows:   make(map[string]*engage.Follow),
	}
	return db, nil
}

// deleteVideoRefs drops the comments and reactions attached to a video.
// Callers must hold the write lock.
func (db *DB) deleteVideoRefs(videoID string) {
	for id, cmt := range db.comments {
		if cmt.VideoID == videoID {
			delete(db.comments, id)
		}
	}
	for id, r := range db.reactions {
		if r.VideoID == videoID {
			delete(db.reactions, id)
		}
	}
}

// deleteLessonRefs drops a lesson's videos and everything under them.
// Callers must hold the write lock.
func (db *DB) deleteLessonRefs(lessonID string) {
	for id, vid := range db.videos {
		if vid.LessonID == lessonID {
			db.deleteVideoRefs(id)
			delete(db.videos, id)
		}
	}
}
