package students

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sekolah-app/sekolah/internal/platform/cache"
	"github.com/sekolah-app/sekolah/internal/shared"
)

type memoryStudentRepo struct {
	students   map[int64]Student
	nextID     int64
	statsCalls int
}

func newMemoryStudentRepo() *memoryStudentRepo {
	return &memoryStudentRepo{students: make(map[int64]Student)}
}

func (r *memoryStudentRepo) List(ctx context.Context, schoolID int64, filters shared.ListFilters) ([]Student, int, error) {
	var list []Student
	for _, s := range r.students {
		if s.SchoolID == schoolID {
			list = append(list, s)
		}
	}
	return list, len(list), nil
}

func (r *memoryStudentRepo) Get(ctx context.Context, id int64) (Student, error) {
	s, ok := r.students[id]
	if !ok {
		return Student{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *memoryStudentRepo) Create(ctx context.Context, student Student) (Student, error) {
	for _, existing := range r.students {
		if existing.SchoolID == student.SchoolID && existing.AdmissionNumber == student.AdmissionNumber {
			return Student{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	student.ID = r.nextID
	student.IsActive = true
	r.students[student.ID] = student
	return student, nil
}

func (r *memoryStudentRepo) Update(ctx context.Context, id int64, student Student) (Student, error) {
	current, ok := r.students[id]
	if !ok {
		return Student{}, shared.ErrNotFound
	}
	student.ID = id
	student.SchoolID = current.SchoolID
	student.AdmissionNumber = current.AdmissionNumber
	r.students[id] = student
	return student, nil
}

func (r *memoryStudentRepo) Deactivate(ctx context.Context, id int64) error {
	s, ok := r.students[id]
	if !ok {
		return shared.ErrNotFound
	}
	s.IsActive = false
	r.students[id] = s
	return nil
}

func (r *memoryStudentRepo) Stats(ctx context.Context, schoolID int64) (Stats, error) {
	r.statsCalls++
	stats := Stats{SchoolID: schoolID}
	for _, s := range r.students {
		if s.SchoolID != schoolID {
			continue
		}
		stats.Total++
		if s.IsActive {
			stats.Active++
		}
	}
	return stats, nil
}

func testStudentsService(t *testing.T) (*Service, *memoryStudentRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryStudentRepo()
	return NewService(repo, cache.NewCache(client, time.Minute)), repo
}

func admin(schoolID int64) *shared.Principal {
	return &shared.Principal{UserID: 1, SchoolID: &schoolID, RoleSlug: "admin"}
}

func systemAdmin() *shared.Principal {
	return &shared.Principal{UserID: 9, RoleSlug: "system_admin"}
}

func enrol(t *testing.T, svc *Service, schoolID int64, admission string) Student {
	t.Helper()
	created, err := svc.Create(context.Background(), admin(schoolID), Student{
		SchoolID:        schoolID,
		AdmissionNumber: admission,
		FirstName:       "Siti",
		EnrolledAt:      time.Now(),
	})
	require.NoError(t, err)
	return created
}

func TestCreateStudentEnforcesSchoolScope(t *testing.T) {
	svc, _ := testStudentsService(t)

	_, err := svc.Create(context.Background(), admin(2), Student{
		SchoolID:        1,
		AdmissionNumber: "A-001",
		FirstName:       "Siti",
	})
	require.ErrorIs(t, err, shared.ErrForbidden)

	// system admin may enrol into any school
	_, err = svc.Create(context.Background(), systemAdmin(), Student{
		SchoolID:        1,
		AdmissionNumber: "A-001",
		FirstName:       "Siti",
	})
	require.NoError(t, err)
}

func TestCreateStudentValidatesRequiredFields(t *testing.T) {
	svc, _ := testStudentsService(t)

	_, err := svc.Create(context.Background(), admin(1), Student{SchoolID: 1, AdmissionNumber: "A-001"})
	require.ErrorIs(t, err, shared.ErrValidationFailed)

	_, err = svc.Create(context.Background(), admin(1), Student{SchoolID: 1, FirstName: "Siti"})
	require.ErrorIs(t, err, shared.ErrValidationFailed)
}

func TestGetStudentFromAnotherSchoolIsForbidden(t *testing.T) {
	svc, _ := testStudentsService(t)
	created := enrol(t, svc, 1, "A-001")

	_, err := svc.Get(context.Background(), admin(2), created.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Get(context.Background(), admin(1), created.ID)
	require.NoError(t, err)
}

func TestUpdatePreservesSchoolAndAdmissionNumber(t *testing.T) {
	svc, repo := testStudentsService(t)
	created := enrol(t, svc, 1, "A-001")

	updated, err := svc.Update(context.Background(), admin(1), created.ID, Student{
		FirstName: "Dewi",
		IsActive:  true,
	})
	require.NoError(t, err)
	require.Equal(t, "Dewi", updated.FirstName)
	require.Equal(t, int64(1), repo.students[created.ID].SchoolID)
	require.Equal(t, "A-001", repo.students[created.ID].AdmissionNumber)
}

func TestStatsAreCachedUntilMutation(t *testing.T) {
	svc, repo := testStudentsService(t)
	enrol(t, svc, 1, "A-001")

	statsCallsAfterEnrol := repo.statsCalls

	first, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)

	_, err = svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, statsCallsAfterEnrol+1, repo.statsCalls)

	// a mutation bumps the cache version, forcing a reload
	enrol(t, svc, 1, "A-002")
	second, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, second.Total)
	require.Equal(t, statsCallsAfterEnrol+2, repo.statsCalls)
}

func TestDeactivateRequiresScope(t *testing.T) {
	svc, repo := testStudentsService(t)
	created := enrol(t, svc, 1, "A-001")

	require.ErrorIs(t, svc.Deactivate(context.Background(), admin(2), created.ID), shared.ErrForbidden)
	require.NoError(t, svc.Deactivate(context.Background(), admin(1), created.ID))
	require.False(t, repo.students[created.ID].IsActive)
}
