// Package files stores uploaded material: course attachments visible to
// the course's audience, and forum images which are public once uploaded.
package files

import (
	"time"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
)

// File is an uploaded blob's metadata row. CourseID nil marks a forum
// image; those are public and carry no course scope.
type File struct {
	ID          int64
	CourseID    *int64
	UploaderID  int64
	Name        string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	Public      bool
	CreatedAt   time.Time
}

// ForumImage reports whether the file is a public forum image.
func (f File) ForumImage() bool { return f.CourseID == nil }

// Resource converts the file into its access-control representation. The
// parent course is nil for forum images.
func (f File) Resource(course *courses.Course) access.File {
	res := access.File{
		ID:         f.ID,
		UploaderID: f.UploaderID,
		Public:     f.Public,
	}
	if course != nil {
		c := course.Resource()
		res.Course = &c
	}
	return res
}
