package forum

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atheneum-portal/atheneum-portal/internal/shared"
)

// messageColumns joins like counts and the reply flag in one pass so list
// and detail reads stay a single query.
const messageColumns = `
	m.id, m.forum_id, m.author_id, COALESCE(u.name, 'Guest'), m.content, m.reply_to,
	m.pinned, m.edited, m.is_deleted,
	EXISTS (SELECT 1 FROM forum_messages r WHERE r.reply_to = m.id),
	(SELECT COUNT(*) FROM forum_message_likes l WHERE l.message_id = m.id),
	m.created_at, m.updated_at`

const messageFrom = ` FROM forum_messages m LEFT JOIN users u ON u.id = m.author_id`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateForum opens the discussion board for a course. The unique index on
// course_id enforces the one-forum-per-course rule.
func (r *PGRepository) CreateForum(ctx context.Context, courseID int64) (Forum, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO forums (course_id, is_active, created_at)
		VALUES ($1, TRUE, now())
		RETURNING id, course_id, is_active, created_at`, courseID)
	forum, err := scanForum(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Forum{}, ErrForumExists
		}
		return Forum{}, err
	}
	return forum, nil
}

// GetForum fetches a forum by id.
func (r *PGRepository) GetForum(ctx context.Context, id int64) (Forum, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, course_id, is_active, created_at FROM forums WHERE id = $1`, id)
	forum, err := scanForum(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Forum{}, ErrForumNotFound
		}
		return Forum{}, err
	}
	return forum, nil
}

// GetForumByCourse fetches the forum attached to a course.
func (r *PGRepository) GetForumByCourse(ctx context.Context, courseID int64) (Forum, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, course_id, is_active, created_at FROM forums WHERE course_id = $1`, courseID)
	forum, err := scanForum(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Forum{}, ErrForumNotFound
		}
		return Forum{}, err
	}
	return forum, nil
}

// SetForumActive toggles whether new posts are accepted.
func (r *PGRepository) SetForumActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE forums SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrForumNotFound
	}
	return nil
}

// ListMessages returns one page of a forum's messages, pinned first then
// oldest first so threads read top to bottom.
func (r *PGRepository) ListMessages(ctx context.Context, forumID int64, page shared.Pagination) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+messageColumns+messageFrom+`
		WHERE m.forum_id = $1
		ORDER BY m.pinned DESC, m.created_at
		LIMIT $2 OFFSET $3`, forumID, page.PerPage, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, msg)
	}
	return list, rows.Err()
}

// GetMessage fetches one message with its reply flag and like count.
func (r *PGRepository) GetMessage(ctx context.Context, id int64) (Message, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+messageColumns+messageFrom+` WHERE m.id = $1`, id)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, ErrMessageNotFound
		}
		return Message{}, err
	}
	return msg, nil
}

// CreateMessage inserts a post. A zero author id is stored as NULL and read
// back as a guest post.
func (r *PGRepository) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	var author any
	if params.AuthorID != 0 {
		author = params.AuthorID
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO forum_messages (forum_id, author_id, content, reply_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id`,
		params.ForumID, author, params.Content, params.ReplyTo).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Message{}, ErrMessageNotFound
		}
		return Message{}, err
	}
	return r.GetMessage(ctx, id)
}

// UpdateMessageContent rewrites the body and marks the post edited.
func (r *PGRepository) UpdateMessageContent(ctx context.Context, id int64, content string) (Message, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE forum_messages SET content = $2, edited = TRUE, updated_at = now()
		WHERE id = $1 AND NOT is_deleted`, id, content)
	if err != nil {
		return Message{}, err
	}
	if tag.RowsAffected() == 0 {
		return Message{}, ErrMessageNotFound
	}
	return r.GetMessage(ctx, id)
}

// TombstoneMessage blanks the body and flags the post deleted, keeping the
// row so replies stay attached.
func (r *PGRepository) TombstoneMessage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE forum_messages SET content = '', is_deleted = TRUE, pinned = FALSE, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// DeleteMessage removes a post outright; only safe for posts without
// replies.
func (r *PGRepository) DeleteMessage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM forum_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// SetPinned toggles the pinned flag.
func (r *PGRepository) SetPinned(ctx context.Context, id int64, pinned bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE forum_messages SET pinned = $2, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id, pinned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Like records a like; liking twice is a no-op.
func (r *PGRepository) Like(ctx context.Context, messageID, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO forum_message_likes (message_id, user_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING`, messageID, userID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrMessageNotFound
	}
	return err
}

// Unlike removes a like if present.
func (r *PGRepository) Unlike(ctx context.Context, messageID, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM forum_message_likes WHERE message_id = $1 AND user_id = $2`, messageID, userID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForum(row rowScanner) (Forum, error) {
	var f Forum
	if err := row.Scan(&f.ID, &f.CourseID, &f.IsActive, &f.CreatedAt); err != nil {
		return Forum{}, err
	}
	return f, nil
}

func scanMessage(row rowScanner) (Message, error) {
	var m Message
	var author *int64
	err := row.Scan(&m.ID, &m.ForumID, &author, &m.AuthorName, &m.Content, &m.ReplyTo,
		&m.Pinned, &m.Edited, &m.IsDeleted, &m.HasReplies, &m.LikeCount,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Message{}, err
	}
	if author != nil {
		m.AuthorID = *author
	}
	return m, nil
}

var _ Repository = (*PGRepository)(nil)
