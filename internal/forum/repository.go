package forum

import (
	"context"
	"errors"

	"github.com/atheneum-portal/atheneum-portal/internal/shared"
)

var (
	// ErrForumNotFound indicates a missing forum.
	ErrForumNotFound = errors.New("forum: not found")
	// ErrMessageNotFound indicates a missing message.
	ErrMessageNotFound = errors.New("forum: message not found")
	// ErrForumExists indicates the course already has its forum.
	ErrForumExists = errors.New("forum: course already has a forum")
)

// CreateMessageParams carries the fields needed to insert a post. AuthorID
// zero records a guest post.
type CreateMessageParams struct {
	ForumID    int64
	AuthorID   int64
	AuthorName string
	Content    string
	ReplyTo    *int64
}

// Repository defines persistence operations for forums and their messages.
type Repository interface {
	CreateForum(ctx context.Context, courseID int64) (Forum, error)
	GetForum(ctx context.Context, id int64) (Forum, error)
	GetForumByCourse(ctx context.Context, courseID int64) (Forum, error)
	SetForumActive(ctx context.Context, id int64, active bool) error

	ListMessages(ctx context.Context, forumID int64, page shared.Pagination) ([]Message, error)
	GetMessage(ctx context.Context, id int64) (Message, error)
	CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error)
	UpdateMessageContent(ctx context.Context, id int64, content string) (Message, error)
	TombstoneMessage(ctx context.Context, id int64) error
	DeleteMessage(ctx context.Context, id int64) error
	SetPinned(ctx context.Context, id int64, pinned bool) error

	Like(ctx context.Context, messageID, userID int64) error
	Unlike(ctx context.Context, messageID, userID int64) error
}
