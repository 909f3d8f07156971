// Package forum implements per-course discussion boards: one forum per
// course, threaded messages, likes and pins, with tombstones instead of
// hard deletes wherever a thread would otherwise lose its replies.
package forum

import (
	"time"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
)

// Forum is the discussion board attached to exactly one course.
type Forum struct {
	ID        int64
	CourseID  int64
	IsActive  bool
	CreatedAt time.Time
}

// Resource converts the forum into its access-control representation; the
// parent course supplies department and teaching professor.
func (f Forum) Resource(course courses.Course) access.Forum {
	return access.Forum{
		ID:       f.ID,
		Course:   course.Resource(),
		IsActive: f.IsActive,
	}
}

// Message is a single forum post, optionally replying to another post.
// Guest posts carry AuthorID zero.
type Message struct {
	ID         int64
	ForumID    int64
	AuthorID   int64
	AuthorName string
	Content    string
	ReplyTo    *int64
	Pinned     bool
	Edited     bool
	IsDeleted  bool
	HasReplies bool
	LikeCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Resource converts the message into its access-control representation.
func (m Message) Resource(f Forum, course courses.Course) access.ForumMessage {
	return access.ForumMessage{
		ID:         m.ID,
		Forum:      f.Resource(course),
		AuthorID:   m.AuthorID,
		HasReplies: m.HasReplies,
		IsDeleted:  m.IsDeleted,
	}
}
