package courses

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
)

type memoryCourseRepo struct {
	courses map[int64]Course
	nextID  int64
}

func newMemoryCourseRepo(seed ...Course) *memoryCourseRepo {
	repo := &memoryCourseRepo{courses: make(map[int64]Course), nextID: 1}
	for _, c := range seed {
		repo.courses[c.ID] = c
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
	}
	return repo
}

func (r *memoryCourseRepo) List(ctx context.Context, filter Filter) ([]Course, error) {
	var out []Course
	for _, c := range r.courses {
		if filter.Department != "" && c.Department != filter.Department {
			continue
		}
		if filter.ProfessorID != 0 && c.ProfessorID != filter.ProfessorID {
			continue
		}
		if filter.ActiveOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryCourseRepo) Get(ctx context.Context, id int64) (Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryCourseRepo) Create(ctx context.Context, params CreateParams) (Course, error) {
	for _, c := range r.courses {
		if c.Code == params.Code {
			return Course{}, ErrCodeTaken
		}
	}
	c := Course{
		ID:           r.nextID,
		Code:         params.Code,
		Name:         params.Name,
		Description:  params.Description,
		Department:   params.Department,
		ProfessorID:  params.ProfessorID,
		Semester:     params.Semester,
		IsActive:     true,
		ForumEnabled: params.ForumEnabled,
	}
	r.nextID++
	r.courses[c.ID] = c
	return c, nil
}

func (r *memoryCourseRepo) Update(ctx context.Context, id int64, params UpdateParams) (Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	c.Name = params.Name
	c.Description = params.Description
	c.ProfessorID = params.ProfessorID
	c.Semester = params.Semester
	c.IsActive = params.IsActive
	c.ForumEnabled = params.ForumEnabled
	r.courses[id] = c
	return c, nil
}

func (r *memoryCourseRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.courses[id]; !ok {
		return ErrNotFound
	}
	delete(r.courses, id)
	return nil
}

var _ Repository = (*memoryCourseRepo)(nil)

type stubDirectory map[int64]access.Role

func (d stubDirectory) RoleOf(ctx context.Context, id int64) (access.Role, error) {
	role, ok := d[id]
	if !ok {
		return "", ErrNotFound
	}
	return role, nil
}

func testService(dir stubDirectory, seed ...Course) (*Service, *memoryCourseRepo) {
	repo := newMemoryCourseRepo(seed...)
	engine := access.NewEngine(access.Config{GuestViewEnabled: true})
	return NewService(repo, dir, engine, slog.Default()), repo
}

func principal(id int64, role access.Role, department string) access.Principal {
	return access.Principal{ID: id, Role: role, Department: department, IsActive: true}
}

func seedCourse(id, professorID int64, department Department) Course {
	return Course{
		ID: id, Code: "C" + string(rune('0'+id)), Name: "Course", Department: department,
		ProfessorID: professorID, Semester: 1, IsActive: true, ForumEnabled: true,
	}
}

func TestProfessorCreatesOwnCourse(t *testing.T) {
	dir := stubDirectory{10: access.RoleProfessor}
	svc, repo := testService(dir)

	course, err := svc.Create(context.Background(), principal(10, access.RoleProfessor, "electrical"), CreateInput{
		Code: "ee201", Name: "Circuits II", Department: "electrical", Semester: 3,
	})
	require.NoError(t, err)
	require.Equal(t, "EE201", course.Code)
	require.Equal(t, int64(10), course.ProfessorID)
	require.Len(t, repo.courses, 1)
}

func TestProfessorCannotCreateForAnotherDepartment(t *testing.T) {
	dir := stubDirectory{10: access.RoleProfessor}
	svc, _ := testService(dir)

	_, err := svc.Create(context.Background(), principal(10, access.RoleProfessor, "electrical"), CreateInput{
		Code: "CH101", Name: "Organic Chemistry", Department: "chemical", Semester: 1,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestProfessorCannotAssignAnotherProfessor(t *testing.T) {
	dir := stubDirectory{10: access.RoleProfessor, 11: access.RoleProfessor}
	svc, _ := testService(dir)

	_, err := svc.Create(context.Background(), principal(10, access.RoleProfessor, "electrical"), CreateInput{
		Code: "EE202", Name: "Signals", Department: "electrical", ProfessorID: 11, Semester: 4,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTeachingAccountMustBeProfessor(t *testing.T) {
	dir := stubDirectory{3: access.RoleStudent}
	svc, _ := testService(dir)

	_, err := svc.Create(context.Background(), principal(1, access.RoleAdmin, ""), CreateInput{
		Code: "EE203", Name: "Fields", Department: "electrical", ProfessorID: 3, Semester: 5,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStudentCannotCreateCourse(t *testing.T) {
	svc, _ := testService(stubDirectory{})

	_, err := svc.Create(context.Background(), principal(3, access.RoleStudent, "civil"), CreateInput{
		Code: "CE101", Name: "Statics", Department: "civil", Semester: 1,
	})
	denied, ok := access.AsDenied(err)
	require.True(t, ok, "expected a denial, got %v", err)
	require.Equal(t, access.ReasonInsufficientRole, denied.Decision.Reason)
}

func TestProfessorUpdatesOnlyOwnCourse(t *testing.T) {
	dir := stubDirectory{10: access.RoleProfessor, 11: access.RoleProfessor}
	svc, _ := testService(dir,
		seedCourse(1, 10, DeptElectrical),
		seedCourse(2, 11, DeptElectrical),
	)
	prof := principal(10, access.RoleProfessor, "electrical")

	_, err := svc.Update(context.Background(), prof, 1, UpdateInput{
		Name: "Renamed", ProfessorID: 10, Semester: 2, IsActive: true, ForumEnabled: true,
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), prof, 2, UpdateInput{
		Name: "Hijacked", ProfessorID: 10, Semester: 2, IsActive: true, ForumEnabled: true,
	})
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonOutOfScope, denied.Decision.Reason)
}

func TestAdminUpdatesAnyCourse(t *testing.T) {
	dir := stubDirectory{10: access.RoleProfessor, 11: access.RoleProfessor}
	svc, repo := testService(dir, seedCourse(1, 10, DeptElectrical))

	updated, err := svc.Update(context.Background(), principal(1, access.RoleAdmin, ""), 1, UpdateInput{
		Name: "Reassigned", ProfessorID: 11, Semester: 2, IsActive: true, ForumEnabled: false,
	})
	require.NoError(t, err)
	require.Equal(t, int64(11), updated.ProfessorID)
	require.Equal(t, int64(11), repo.courses[1].ProfessorID)
}

func TestListScopesByActor(t *testing.T) {
	dir := stubDirectory{10: access.RoleProfessor, 11: access.RoleProfessor}
	inactive := seedCourse(3, 11, DeptChemical)
	inactive.IsActive = false
	svc, _ := testService(dir,
		seedCourse(1, 10, DeptElectrical),
		seedCourse(2, 11, DeptChemical),
		inactive,
	)

	all, err := svc.List(context.Background(), principal(1, access.RoleAdmin, ""))
	require.NoError(t, err)
	require.Len(t, all, 3)

	own, err := svc.List(context.Background(), principal(10, access.RoleProfessor, "electrical"))
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, int64(1), own[0].ID)

	dept, err := svc.List(context.Background(), principal(3, access.RoleStudent, "chemical"))
	require.NoError(t, err)
	require.Len(t, dept, 1)
	require.Equal(t, int64(2), dept[0].ID)

	public, err := svc.List(context.Background(), principal(0, access.RoleGuest, ""))
	require.NoError(t, err)
	require.Len(t, public, 2)
}

func TestStudentCannotDeleteCourse(t *testing.T) {
	dir := stubDirectory{10: access.RoleProfessor}
	svc, _ := testService(dir, seedCourse(1, 10, DeptCivil))

	err := svc.Delete(context.Background(), principal(3, access.RoleStudent, "civil"), 1)
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonInsufficientRole, denied.Decision.Reason)
}

func TestDepartmentDisplayNames(t *testing.T) {
	require.Equal(t, "Electrical Engineering", DeptElectrical.DisplayName())
	require.Equal(t, "Medical Engineering", DeptMedical.DisplayName())
	require.True(t, ValidDepartment("mechanical"))
	require.False(t, ValidDepartment("astral"))
}
