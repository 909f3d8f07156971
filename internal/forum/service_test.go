package forum

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
	"github.com/atheneum-portal/atheneum-portal/internal/shared"
)

type memoryForumRepo struct {
	forums    map[int64]Forum
	messages  map[int64]Message
	likes     map[int64]map[int64]bool
	nextForum int64
	nextMsg   int64
}

func newMemoryForumRepo() *memoryForumRepo {
	return &memoryForumRepo{
		forums:    make(map[int64]Forum),
		messages:  make(map[int64]Message),
		likes:     make(map[int64]map[int64]bool),
		nextForum: 1,
		nextMsg:   1,
	}
}

func (r *memoryForumRepo) CreateForum(ctx context.Context, courseID int64) (Forum, error) {
	for _, f := range r.forums {
		if f.CourseID == courseID {
			return Forum{}, ErrForumExists
		}
	}
	f := Forum{ID: r.nextForum, CourseID: courseID, IsActive: true, CreatedAt: time.Now()}
	r.nextForum++
	r.forums[f.ID] = f
	return f, nil
}

func (r *memoryForumRepo) GetForum(ctx context.Context, id int64) (Forum, error) {
	f, ok := r.forums[id]
	if !ok {
		return Forum{}, ErrForumNotFound
	}
	return f, nil
}

func (r *memoryForumRepo) GetForumByCourse(ctx context.Context, courseID int64) (Forum, error) {
	for _, f := range r.forums {
		if f.CourseID == courseID {
			return f, nil
		}
	}
	return Forum{}, ErrForumNotFound
}

func (r *memoryForumRepo) SetForumActive(ctx context.Context, id int64, active bool) error {
	f, ok := r.forums[id]
	if !ok {
		return ErrForumNotFound
	}
	f.IsActive = active
	r.forums[id] = f
	return nil
}

func (r *memoryForumRepo) ListMessages(ctx context.Context, forumID int64, page shared.Pagination) ([]Message, error) {
	var out []Message
	for _, m := range r.messages {
		if m.ForumID == forumID {
			out = append(out, r.withDerived(m))
		}
	}
	return out, nil
}

func (r *memoryForumRepo) GetMessage(ctx context.Context, id int64) (Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return Message{}, ErrMessageNotFound
	}
	return r.withDerived(m), nil
}

func (r *memoryForumRepo) withDerived(m Message) Message {
	m.HasReplies = false
	for _, other := range r.messages {
		if other.ReplyTo != nil && *other.ReplyTo == m.ID {
			m.HasReplies = true
			break
		}
	}
	m.LikeCount = len(r.likes[m.ID])
	return m
}

func (r *memoryForumRepo) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	m := Message{
		ID:        r.nextMsg,
		ForumID:   params.ForumID,
		AuthorID:  params.AuthorID,
		Content:   params.Content,
		ReplyTo:   params.ReplyTo,
		CreatedAt: time.Now(),
	}
	r.nextMsg++
	r.messages[m.ID] = m
	return m, nil
}

func (r *memoryForumRepo) UpdateMessageContent(ctx context.Context, id int64, content string) (Message, error) {
	m, ok := r.messages[id]
	if !ok || m.IsDeleted {
		return Message{}, ErrMessageNotFound
	}
	m.Content = content
	m.Edited = true
	r.messages[id] = m
	return r.withDerived(m), nil
}

func (r *memoryForumRepo) TombstoneMessage(ctx context.Context, id int64) error {
	m, ok := r.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	m.Content = ""
	m.IsDeleted = true
	m.Pinned = false
	r.messages[id] = m
	return nil
}

func (r *memoryForumRepo) DeleteMessage(ctx context.Context, id int64) error {
	if _, ok := r.messages[id]; !ok {
		return ErrMessageNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *memoryForumRepo) SetPinned(ctx context.Context, id int64, pinned bool) error {
	m, ok := r.messages[id]
	if !ok || m.IsDeleted {
		return ErrMessageNotFound
	}
	m.Pinned = pinned
	r.messages[id] = m
	return nil
}

func (r *memoryForumRepo) Like(ctx context.Context, messageID, userID int64) error {
	if _, ok := r.messages[messageID]; !ok {
		return ErrMessageNotFound
	}
	if r.likes[messageID] == nil {
		r.likes[messageID] = make(map[int64]bool)
	}
	r.likes[messageID][userID] = true
	return nil
}

func (r *memoryForumRepo) Unlike(ctx context.Context, messageID, userID int64) error {
	delete(r.likes[messageID], userID)
	return nil
}

var _ Repository = (*memoryForumRepo)(nil)

type stubCourseStore map[int64]courses.Course

func (s stubCourseStore) Get(ctx context.Context, id int64) (courses.Course, error) {
	c, ok := s[id]
	if !ok {
		return courses.Course{}, courses.ErrNotFound
	}
	return c, nil
}

type recordedAlert struct {
	forumID, messageID, authorID int64
	excerpt                      string
}

type stubRecorder struct {
	alerts []recordedAlert
}

func (s *stubRecorder) RecordSuspiciousMessage(ctx context.Context, forumID, messageID, authorID int64, excerpt string) error {
	s.alerts = append(s.alerts, recordedAlert{forumID, messageID, authorID, excerpt})
	return nil
}

func electivesCourse() courses.Course {
	return courses.Course{
		ID: 1, Code: "EE201", Name: "Circuits", Department: courses.DeptElectrical,
		ProfessorID: 10, IsActive: true, ForumEnabled: true,
	}
}

func testSetup(cfg access.Config) (*Service, *memoryForumRepo, *stubRecorder) {
	repo := newMemoryForumRepo()
	recorder := &stubRecorder{}
	store := stubCourseStore{1: electivesCourse()}
	svc := NewService(repo, store, access.NewEngine(cfg), recorder, slog.Default())
	return svc, repo, recorder
}

func principal(id int64, role access.Role, department string) access.Principal {
	return access.Principal{ID: id, Role: role, Department: department, IsActive: true}
}

func mustOpen(t *testing.T, svc *Service) Forum {
	t.Helper()
	forum, err := svc.Open(context.Background(), principal(10, access.RoleProfessor, "electrical"), 1)
	require.NoError(t, err)
	return forum
}

func TestOpenForumOncePerCourse(t *testing.T) {
	svc, _, _ := testSetup(access.Config{})
	mustOpen(t, svc)

	_, err := svc.Open(context.Background(), principal(10, access.RoleProfessor, "electrical"), 1)
	require.ErrorIs(t, err, ErrForumExists)
}

func TestStudentCannotOpenForum(t *testing.T) {
	svc, _, _ := testSetup(access.Config{})

	_, err := svc.Open(context.Background(), principal(3, access.RoleStudent, "electrical"), 1)
	denied, ok := access.AsDenied(err)
	require.True(t, ok, "expected a denial, got %v", err)
	require.Equal(t, access.ReasonInsufficientRole, denied.Decision.Reason)
}

func TestStudentPostsInOwnDepartment(t *testing.T) {
	svc, _, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)

	msg, err := svc.Post(context.Background(), principal(3, access.RoleStudent, "electrical"), forum.ID, PostInput{Content: "When is the lab due?"})
	require.NoError(t, err)
	require.Equal(t, int64(3), msg.AuthorID)
}

func TestStudentCannotPostAcrossDepartments(t *testing.T) {
	svc, _, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)

	_, err := svc.Post(context.Background(), principal(4, access.RoleStudent, "chemical"), forum.ID, PostInput{Content: "hello"})
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonOutOfScope, denied.Decision.Reason)
}

func TestClosedForumRejectsPosts(t *testing.T) {
	svc, repo, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)
	require.NoError(t, repo.SetForumActive(context.Background(), forum.ID, false))

	_, err := svc.Post(context.Background(), principal(3, access.RoleStudent, "electrical"), forum.ID, PostInput{Content: "anyone here?"})
	require.ErrorIs(t, err, ErrForumClosed)
}

func TestGuestPosting(t *testing.T) {
	svc, _, _ := testSetup(access.Config{GuestViewEnabled: true})
	forum := mustOpen(t, svc)
	guest := access.GuestPrincipal()

	_, err := svc.Post(context.Background(), guest, forum.ID, PostInput{Content: "hi"})
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonGuestRestricted, denied.Decision.Reason)

	svcOn, _, _ := testSetup(access.Config{GuestViewEnabled: true, GuestPostEnabled: true})
	forumOn := mustOpen(t, svcOn)
	msg, err := svcOn.Post(context.Background(), guest, forumOn.ID, PostInput{Content: "hi"})
	require.NoError(t, err)
	require.Zero(t, msg.AuthorID)
}

func TestGuestReadRespectsViewSwitch(t *testing.T) {
	svc, _, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)
	guest := access.GuestPrincipal()

	_, err := svc.Messages(context.Background(), guest, forum.ID, shared.NewPagination(1, 50, 0))
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonGuestRestricted, denied.Decision.Reason)

	svcOn, _, _ := testSetup(access.Config{GuestViewEnabled: true})
	forumOn := mustOpen(t, svcOn)
	_, err = svcOn.Messages(context.Background(), guest, forumOn.ID, shared.NewPagination(1, 50, 0))
	require.NoError(t, err)
}

func TestDeleteWithRepliesBecomesTombstone(t *testing.T) {
	svc, repo, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)
	student := principal(3, access.RoleStudent, "electrical")

	parent, err := svc.Post(context.Background(), student, forum.ID, PostInput{Content: "original"})
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), student, forum.ID, PostInput{Content: "a reply", ReplyTo: &parent.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), student, parent.ID))
	got, err := repo.GetMessage(context.Background(), parent.ID)
	require.NoError(t, err)
	require.True(t, got.IsDeleted)
	require.Empty(t, got.Content)

	// Deleting a tombstone again is an allowed no-op.
	require.NoError(t, svc.Delete(context.Background(), student, parent.ID))
}

func TestDeleteWithoutRepliesIsHard(t *testing.T) {
	svc, repo, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)
	student := principal(3, access.RoleStudent, "electrical")

	msg, err := svc.Post(context.Background(), student, forum.ID, PostInput{Content: "oops"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), student, msg.ID))

	_, err = repo.GetMessage(context.Background(), msg.ID)
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestStudentCannotDeleteOthersMessage(t *testing.T) {
	svc, _, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)

	msg, err := svc.Post(context.Background(), principal(3, access.RoleStudent, "electrical"), forum.ID, PostInput{Content: "mine"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), principal(4, access.RoleStudent, "electrical"), msg.ID)
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonOutOfScope, denied.Decision.Reason)
}

func TestProfessorModeratesOwnCourseForum(t *testing.T) {
	svc, repo, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)
	prof := principal(10, access.RoleProfessor, "electrical")

	msg, err := svc.Post(context.Background(), principal(3, access.RoleStudent, "electrical"), forum.ID, PostInput{Content: "spam"})
	require.NoError(t, err)

	require.NoError(t, svc.Pin(context.Background(), prof, msg.ID, true))
	got, _ := repo.GetMessage(context.Background(), msg.ID)
	require.True(t, got.Pinned)

	require.NoError(t, svc.Delete(context.Background(), prof, msg.ID))
}

func TestStudentCannotPin(t *testing.T) {
	svc, _, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)
	student := principal(3, access.RoleStudent, "electrical")

	msg, err := svc.Post(context.Background(), student, forum.ID, PostInput{Content: "pin me"})
	require.NoError(t, err)

	err = svc.Pin(context.Background(), student, msg.ID, true)
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonInsufficientRole, denied.Decision.Reason)
}

func TestReplyMustStayInForum(t *testing.T) {
	svc, repo, _ := testSetup(access.Config{})
	forum := mustOpen(t, svc)
	other, err := repo.CreateForum(context.Background(), 99)
	require.NoError(t, err)
	stray, err := repo.CreateMessage(context.Background(), CreateMessageParams{ForumID: other.ID, AuthorID: 5, Content: "elsewhere"})
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), principal(3, access.RoleStudent, "electrical"), forum.ID, PostInput{Content: "re", ReplyTo: &stray.ID})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSuspiciousPostRaisesAlert(t *testing.T) {
	svc, _, recorder := testSetup(access.Config{})
	forum := mustOpen(t, svc)

	msg, err := svc.Post(context.Background(), principal(3, access.RoleStudent, "electrical"), forum.ID, PostInput{Content: "selling the ANSWER KEY, dm me"})
	require.NoError(t, err)
	require.Len(t, recorder.alerts, 1)
	require.Equal(t, msg.ID, recorder.alerts[0].messageID)
	require.Equal(t, int64(3), recorder.alerts[0].authorID)
}

func TestAlertExcerptKeepsRunesIntact(t *testing.T) {
	svc, _, recorder := testSetup(access.Config{})
	forum := mustOpen(t, svc)

	content := "أجوبة الامتحان للبيع: answer key " + strings.Repeat("امتحان ", 40)
	msg, err := svc.Post(context.Background(), principal(3, access.RoleStudent, "electrical"), forum.ID, PostInput{Content: content})
	require.NoError(t, err)

	require.Len(t, recorder.alerts, 1)
	excerpt := recorder.alerts[0].excerpt
	require.Equal(t, msg.ID, recorder.alerts[0].messageID)
	require.True(t, utf8.ValidString(excerpt))
	require.Equal(t, string([]rune(content)[:120]), excerpt)
}

func TestLikes(t *testing.T) {
	svc, repo, _ := testSetup(access.Config{GuestViewEnabled: true})
	forum := mustOpen(t, svc)
	student := principal(3, access.RoleStudent, "electrical")

	msg, err := svc.Post(context.Background(), student, forum.ID, PostInput{Content: "like this"})
	require.NoError(t, err)

	require.NoError(t, svc.Like(context.Background(), principal(4, access.RoleStudent, "electrical"), msg.ID))
	got, _ := repo.GetMessage(context.Background(), msg.ID)
	require.Equal(t, 1, got.LikeCount)

	err = svc.Like(context.Background(), access.GuestPrincipal(), msg.ID)
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonGuestRestricted, denied.Decision.Reason)

	require.NoError(t, svc.Unlike(context.Background(), principal(4, access.RoleStudent, "electrical"), msg.ID))
	got, _ = repo.GetMessage(context.Background(), msg.ID)
	require.Zero(t, got.LikeCount)
}
