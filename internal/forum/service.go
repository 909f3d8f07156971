package forum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
	"github.com/atheneum-portal/atheneum-portal/internal/shared"
)

var (
	// ErrInvalidInput indicates a rejected forum mutation.
	ErrInvalidInput = errors.New("forum: invalid input")
	// ErrForumClosed indicates the forum or its course no longer accepts posts.
	ErrForumClosed = errors.New("forum: closed for posting")
)

// CourseStore resolves a message's parent course so scope checks see the
// department and teaching professor.
type CourseStore interface {
	Get(ctx context.Context, id int64) (courses.Course, error)
}

// AlertRecorder receives moderation alerts raised by the posting path. The
// background job queue implements it; tests use a stub.
type AlertRecorder interface {
	RecordSuspiciousMessage(ctx context.Context, forumID, messageID, authorID int64, excerpt string) error
}

// suspiciousTerms trips a moderation alert when found in a post. Matching
// is case-insensitive substring; false positives are reviewed by hand.
var suspiciousTerms = []string{
	"exam answers",
	"leaked exam",
	"answer key",
	"for sale",
	"paypal",
}

// Service wraps the discussion-board rules.
type Service struct {
	repo     Repository
	catalog  CourseStore
	engine   *access.Engine
	recorder AlertRecorder
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, catalog CourseStore, engine *access.Engine, recorder AlertRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, engine: engine, recorder: recorder, logger: logger}
}

// forumContext bundles a forum with its parent course.
type forumContext struct {
	forum  Forum
	course courses.Course
}

func (s *Service) loadForum(ctx context.Context, forumID int64) (forumContext, error) {
	forum, err := s.repo.GetForum(ctx, forumID)
	if err != nil {
		return forumContext{}, err
	}
	course, err := s.catalog.Get(ctx, forum.CourseID)
	if err != nil {
		return forumContext{}, fmt.Errorf("forum: load course %d: %w", forum.CourseID, err)
	}
	return forumContext{forum: forum, course: course}, nil
}

// Open creates the discussion board for a course. Each course has at most
// one forum.
func (s *Service) Open(ctx context.Context, actor access.Principal, courseID int64) (Forum, error) {
	course, err := s.catalog.Get(ctx, courseID)
	if err != nil {
		return Forum{}, err
	}
	target := access.Forum{Course: course.Resource(), IsActive: true}
	if d := s.engine.Authorize(actor, access.ActionCreate, target); !d.Allow {
		return Forum{}, d.Err()
	}
	forum, err := s.repo.CreateForum(ctx, courseID)
	if err != nil {
		return Forum{}, err
	}
	s.logger.Info("forum opened", slog.Int64("actor", actor.ID), slog.Int64("course", courseID), slog.Int64("forum", forum.ID))
	return forum, nil
}

// ForCourse fetches the forum of a course, if the actor may read it.
func (s *Service) ForCourse(ctx context.Context, actor access.Principal, courseID int64) (Forum, error) {
	forum, err := s.repo.GetForumByCourse(ctx, courseID)
	if err != nil {
		return Forum{}, err
	}
	course, err := s.catalog.Get(ctx, courseID)
	if err != nil {
		return Forum{}, err
	}
	if d := s.engine.Authorize(actor, access.ActionRead, forum.Resource(course)); !d.Allow {
		return Forum{}, d.Err()
	}
	return forum, nil
}

// SetActive opens or closes a forum for new posts.
func (s *Service) SetActive(ctx context.Context, actor access.Principal, forumID int64, active bool) error {
	fc, err := s.loadForum(ctx, forumID)
	if err != nil {
		return err
	}
	if d := s.engine.Authorize(actor, access.ActionUpdate, fc.forum.Resource(fc.course)); !d.Allow {
		return d.Err()
	}
	return s.repo.SetForumActive(ctx, forumID, active)
}

// Messages returns one page of a forum's messages.
func (s *Service) Messages(ctx context.Context, actor access.Principal, forumID int64, page shared.Pagination) ([]Message, error) {
	fc, err := s.loadForum(ctx, forumID)
	if err != nil {
		return nil, err
	}
	if d := s.engine.Authorize(actor, access.ActionRead, fc.forum.Resource(fc.course)); !d.Allow {
		return nil, d.Err()
	}
	return s.repo.ListMessages(ctx, forumID, page)
}

// PostInput carries a new message.
type PostInput struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
	ReplyTo *int64 `json:"reply_to"`
}

// Post writes a message to the forum. Posting requires an open forum on an
// active course; the reply target, when given, must live in the same forum.
func (s *Service) Post(ctx context.Context, actor access.Principal, forumID int64, input PostInput) (Message, error) {
	fc, err := s.loadForum(ctx, forumID)
	if err != nil {
		return Message{}, err
	}

	// The create check carries no author: ownership must not bypass the
	// course-scope rule for a message that does not exist yet.
	target := access.ForumMessage{Forum: fc.forum.Resource(fc.course)}
	if d := s.engine.Authorize(actor, access.ActionCreate, target); !d.Allow {
		return Message{}, d.Err()
	}
	if !fc.forum.IsActive || !fc.course.IsActive {
		return Message{}, ErrForumClosed
	}

	if input.ReplyTo != nil {
		parent, err := s.repo.GetMessage(ctx, *input.ReplyTo)
		if err != nil {
			return Message{}, err
		}
		if parent.ForumID != forumID {
			return Message{}, fmt.Errorf("%w: reply target in another forum", ErrInvalidInput)
		}
	}

	msg, err := s.repo.CreateMessage(ctx, CreateMessageParams{
		ForumID:  forumID,
		AuthorID: actor.ID,
		Content:  strings.TrimSpace(input.Content),
		ReplyTo:  input.ReplyTo,
	})
	if err != nil {
		return Message{}, err
	}
	s.flagIfSuspicious(ctx, msg)
	return msg, nil
}

// Edit rewrites a message's body. Tombstones cannot be edited.
func (s *Service) Edit(ctx context.Context, actor access.Principal, messageID int64, content string) (Message, error) {
	msg, fc, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return Message{}, err
	}
	if d := s.engine.Authorize(actor, access.ActionUpdate, msg.Resource(fc.forum, fc.course)); !d.Allow {
		return Message{}, d.Err()
	}
	if msg.IsDeleted {
		return Message{}, fmt.Errorf("%w: message is deleted", ErrInvalidInput)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, fmt.Errorf("%w: content required", ErrInvalidInput)
	}
	updated, err := s.repo.UpdateMessageContent(ctx, messageID, content)
	if err != nil {
		return Message{}, err
	}
	s.flagIfSuspicious(ctx, updated)
	return updated, nil
}

// Delete removes a message. Posts with replies become tombstones so the
// thread below them survives; deleting a tombstone again is a no-op.
func (s *Service) Delete(ctx context.Context, actor access.Principal, messageID int64) error {
	msg, fc, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	d := s.engine.Authorize(actor, access.ActionDelete, msg.Resource(fc.forum, fc.course))
	if !d.Allow {
		return d.Err()
	}
	if d.SoftDelete {
		return s.repo.TombstoneMessage(ctx, messageID)
	}
	s.logger.Info("message removed", slog.Int64("actor", actor.ID), slog.Int64("message", messageID))
	return s.repo.DeleteMessage(ctx, messageID)
}

// Pin marks a message pinned or unpinned; a moderation action.
func (s *Service) Pin(ctx context.Context, actor access.Principal, messageID int64, pinned bool) error {
	msg, fc, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if d := s.engine.Authorize(actor, access.ActionModerate, msg.Resource(fc.forum, fc.course)); !d.Allow {
		return d.Err()
	}
	return s.repo.SetPinned(ctx, messageID, pinned)
}

// Like records the actor's like on a message. Guests cannot like.
func (s *Service) Like(ctx context.Context, actor access.Principal, messageID int64) error {
	return s.setLike(ctx, actor, messageID, true)
}

// Unlike withdraws the actor's like.
func (s *Service) Unlike(ctx context.Context, actor access.Principal, messageID int64) error {
	return s.setLike(ctx, actor, messageID, false)
}

func (s *Service) setLike(ctx context.Context, actor access.Principal, messageID int64, like bool) error {
	if actor.Role == access.RoleGuest {
		return access.Denied(access.ReasonGuestRestricted).Err()
	}
	msg, fc, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if d := s.engine.Authorize(actor, access.ActionRead, msg.Resource(fc.forum, fc.course)); !d.Allow {
		return d.Err()
	}
	if like {
		return s.repo.Like(ctx, messageID, actor.ID)
	}
	return s.repo.Unlike(ctx, messageID, actor.ID)
}

func (s *Service) loadMessage(ctx context.Context, messageID int64) (Message, forumContext, error) {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return Message{}, forumContext{}, err
	}
	fc, err := s.loadForum(ctx, msg.ForumID)
	if err != nil {
		return Message{}, forumContext{}, err
	}
	return msg, fc, nil
}

// flagIfSuspicious raises a moderation alert for posts matching the term
// list. Failure to record is logged, never surfaced to the poster.
func (s *Service) flagIfSuspicious(ctx context.Context, msg Message) {
	if s.recorder == nil {
		return
	}
	lower := strings.ToLower(msg.Content)
	for _, term := range suspiciousTerms {
		if strings.Contains(lower, term) {
			if err := s.recorder.RecordSuspiciousMessage(ctx, msg.ForumID, msg.ID, msg.AuthorID, excerptOf(msg.Content)); err != nil {
				s.logger.Error("record moderation alert", slog.Any("error", err), slog.Int64("message", msg.ID))
			}
			return
		}
	}
}

// excerptOf shortens alert excerpts on a rune boundary so multibyte
// content is never cut mid-character.
func excerptOf(content string) string {
	const limit = 120
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
