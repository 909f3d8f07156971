package access

// Kind identifies a resource variant.
type Kind string

// Resource variants the engine can authorize against.
const (
	KindCourse       Kind = "course"
	KindForum        Kind = "forum"
	KindForumMessage Kind = "forum_message"
	KindFile         Kind = "file"
	KindUserAccount  Kind = "user_account"
)

// Resource is the polymorphic target of an authorization check. Owner
// returns the owning principal id where the variant has one; implemented
// once per variant instead of ad hoc lookups per route.
type Resource interface {
	Kind() Kind
	Owner() (int64, bool)
}

// Course is a teachable unit owned by its teaching professor and scoped to
// a department.
type Course struct {
	ID          int64
	Department  string
	ProfessorID int64
	IsActive    bool
}

// Kind implements Resource.
func (Course) Kind() Kind { return KindCourse }

// Owner returns the teaching professor.
func (c Course) Owner() (int64, bool) { return c.ProfessorID, c.ProfessorID != 0 }

// Forum is the discussion board attached 1:1 to a course.
type Forum struct {
	ID       int64
	Course   Course
	IsActive bool
}

// Kind implements Resource.
func (Forum) Kind() Kind { return KindForum }

// Owner returns the professor teaching the parent course.
func (f Forum) Owner() (int64, bool) { return f.Course.Owner() }

// ForumMessage is a single post inside a forum, optionally replying to
// another message.
type ForumMessage struct {
	ID         int64
	Forum      Forum
	AuthorID   int64
	HasReplies bool
	IsDeleted  bool
}

// Kind implements Resource.
func (ForumMessage) Kind() Kind { return KindForumMessage }

// Owner returns the message author.
func (m ForumMessage) Owner() (int64, bool) { return m.AuthorID, m.AuthorID != 0 }

// File is an uploaded file record. Course-scoped files carry their parent
// course; forum images have no course and are publicly readable.
type File struct {
	ID         int64
	Course     *Course
	UploaderID int64
	Public     bool
}

// Kind implements Resource.
func (File) Kind() Kind { return KindFile }

// Owner returns the uploader.
func (f File) Owner() (int64, bool) { return f.UploaderID, f.UploaderID != 0 }

// ForumImage reports whether the file is a public forum image rather than
// a course attachment.
func (f File) ForumImage() bool { return f.Course == nil }

// UserAccount is a user record when targeted by management actions.
type UserAccount struct {
	ID         int64
	Role       Role
	Department string
}

// Kind implements Resource.
func (UserAccount) Kind() Kind { return KindUserAccount }

// Owner returns the account holder.
func (u UserAccount) Owner() (int64, bool) { return u.ID, u.ID != 0 }

// Collection stands in for an absent resource on collection-level actions
// such as "create course"; the engine decides on role policy alone.
type Collection struct {
	Of Kind
}

// Kind implements Resource.
func (c Collection) Kind() Kind { return c.Of }

// Owner implements Resource; collections have no owner.
func (Collection) Owner() (int64, bool) { return 0, false }
