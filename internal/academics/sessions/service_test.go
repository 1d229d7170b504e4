package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sekolah-app/sekolah/internal/shared"
)

type memorySessionRepo struct {
	sessions map[int64]AcademicSession
	nextID   int64
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[int64]AcademicSession)}
}

func (r *memorySessionRepo) List(ctx context.Context, schoolID int64) ([]AcademicSession, error) {
	var list []AcademicSession
	for _, s := range r.sessions {
		if s.SchoolID == schoolID {
			list = append(list, s)
		}
	}
	return list, nil
}

func (r *memorySessionRepo) Get(ctx context.Context, id int64) (AcademicSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return AcademicSession{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *memorySessionRepo) Create(ctx context.Context, session AcademicSession) (AcademicSession, error) {
	r.nextID++
	session.ID = r.nextID
	session.IsCurrent = false
	r.sessions[session.ID] = session
	return session, nil
}

func (r *memorySessionRepo) Update(ctx context.Context, id int64, session AcademicSession) (AcademicSession, error) {
	current, ok := r.sessions[id]
	if !ok {
		return AcademicSession{}, shared.ErrNotFound
	}
	current.Name = session.Name
	current.StartDate = session.StartDate
	current.EndDate = session.EndDate
	r.sessions[id] = current
	return current, nil
}

func (r *memorySessionRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.sessions[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepo) SetCurrent(ctx context.Context, schoolID, id int64) error {
	target, ok := r.sessions[id]
	if !ok || target.SchoolID != schoolID {
		return shared.ErrNotFound
	}
	for key, s := range r.sessions {
		if s.SchoolID == schoolID {
			s.IsCurrent = key == id
			r.sessions[key] = s
		}
	}
	return nil
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func admin(schoolID int64) *shared.Principal {
	return &shared.Principal{UserID: 1, SchoolID: &schoolID, RoleSlug: "admin"}
}

func TestCreateSessionValidatesDates(t *testing.T) {
	svc := NewService(newMemorySessionRepo())

	_, err := svc.Create(context.Background(), admin(1), AcademicSession{
		SchoolID:  1,
		Name:      "2025/2026",
		StartDate: date("2026-06-30"),
		EndDate:   date("2025-07-01"),
	})
	require.ErrorIs(t, err, shared.ErrValidationFailed)

	_, err = svc.Create(context.Background(), admin(1), AcademicSession{
		SchoolID:  1,
		StartDate: date("2025-07-01"),
		EndDate:   date("2026-06-30"),
	})
	require.ErrorIs(t, err, shared.ErrValidationFailed)
}

func TestSetCurrentDemotesOtherSessions(t *testing.T) {
	repo := newMemorySessionRepo()
	svc := NewService(repo)

	first, err := svc.Create(context.Background(), admin(1), AcademicSession{
		SchoolID: 1, Name: "2024/2025", StartDate: date("2024-07-01"), EndDate: date("2025-06-30"),
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), admin(1), AcademicSession{
		SchoolID: 1, Name: "2025/2026", StartDate: date("2025-07-01"), EndDate: date("2026-06-30"),
	})
	require.NoError(t, err)

	_, err = svc.SetCurrent(context.Background(), admin(1), first.ID)
	require.NoError(t, err)
	promoted, err := svc.SetCurrent(context.Background(), admin(1), second.ID)
	require.NoError(t, err)

	require.True(t, promoted.IsCurrent)
	require.False(t, repo.sessions[first.ID].IsCurrent)
}

func TestSetCurrentFromAnotherSchoolIsForbidden(t *testing.T) {
	repo := newMemorySessionRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), admin(1), AcademicSession{
		SchoolID: 1, Name: "2025/2026", StartDate: date("2025-07-01"), EndDate: date("2026-06-30"),
	})
	require.NoError(t, err)

	_, err = svc.SetCurrent(context.Background(), admin(2), created.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
}
