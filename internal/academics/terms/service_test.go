package terms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sekolah-app/sekolah/internal/academics/sessions"
	"github.com/sekolah-app/sekolah/internal/shared"
)

type memoryTermRepo struct {
	terms  map[int64]Term
	nextID int64
}

func newMemoryTermRepo() *memoryTermRepo {
	return &memoryTermRepo{terms: make(map[int64]Term)}
}

func (r *memoryTermRepo) ListBySession(ctx context.Context, sessionID int64) ([]Term, error) {
	var list []Term
	for _, t := range r.terms {
		if t.SessionID == sessionID {
			list = append(list, t)
		}
	}
	return list, nil
}

func (r *memoryTermRepo) Get(ctx context.Context, id int64) (Term, error) {
	t, ok := r.terms[id]
	if !ok {
		return Term{}, shared.ErrNotFound
	}
	return t, nil
}

func (r *memoryTermRepo) Create(ctx context.Context, term Term) (Term, error) {
	r.nextID++
	term.ID = r.nextID
	r.terms[term.ID] = term
	return term, nil
}

func (r *memoryTermRepo) Update(ctx context.Context, id int64, term Term) (Term, error) {
	current, ok := r.terms[id]
	if !ok {
		return Term{}, shared.ErrNotFound
	}
	current.Name = term.Name
	current.StartDate = term.StartDate
	current.EndDate = term.EndDate
	r.terms[id] = current
	return current, nil
}

func (r *memoryTermRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.terms[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.terms, id)
	return nil
}

type memorySessionStore struct {
	sessions map[int64]sessions.AcademicSession
}

func (s *memorySessionStore) Get(ctx context.Context, id int64) (sessions.AcademicSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return sessions.AcademicSession{}, shared.ErrNotFound
	}
	return session, nil
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func testTermsService() (*Service, *memoryTermRepo) {
	repo := newMemoryTermRepo()
	store := &memorySessionStore{sessions: map[int64]sessions.AcademicSession{
		10: {ID: 10, SchoolID: 1, Name: "2025/2026", StartDate: date("2025-07-01"), EndDate: date("2026-06-30")},
	}}
	return NewService(repo, store), repo
}

func admin(schoolID int64) *shared.Principal {
	return &shared.Principal{UserID: 1, SchoolID: &schoolID, RoleSlug: "admin"}
}

func TestCreateTermWithinSession(t *testing.T) {
	svc, _ := testTermsService()

	created, err := svc.Create(context.Background(), admin(1), Term{
		SessionID: 10,
		Name:      "Semester 1",
		StartDate: date("2025-07-01"),
		EndDate:   date("2025-12-20"),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestCreateTermRejectsInvertedDates(t *testing.T) {
	svc, _ := testTermsService()

	_, err := svc.Create(context.Background(), admin(1), Term{
		SessionID: 10,
		Name:      "Semester 1",
		StartDate: date("2025-12-20"),
		EndDate:   date("2025-07-01"),
	})
	require.ErrorIs(t, err, shared.ErrValidationFailed)
}

func TestCreateTermRejectsDatesOutsideSession(t *testing.T) {
	svc, _ := testTermsService()

	cases := map[string]Term{
		"starts before session": {SessionID: 10, Name: "T", StartDate: date("2025-06-01"), EndDate: date("2025-12-20")},
		"ends after session":    {SessionID: 10, Name: "T", StartDate: date("2026-01-05"), EndDate: date("2026-07-15")},
	}
	for name, term := range cases {
		_, err := svc.Create(context.Background(), admin(1), term)
		require.ErrorIs(t, err, shared.ErrValidationFailed, name)
	}
}

func TestCreateTermRejectsOtherSchool(t *testing.T) {
	svc, _ := testTermsService()

	_, err := svc.Create(context.Background(), admin(2), Term{
		SessionID: 10,
		Name:      "Semester 1",
		StartDate: date("2025-07-01"),
		EndDate:   date("2025-12-20"),
	})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGetTermEnforcesSchoolScope(t *testing.T) {
	svc, repo := testTermsService()
	repo.terms[1] = Term{ID: 1, SessionID: 10, SchoolID: 1, Name: "Semester 1"}

	_, err := svc.Get(context.Background(), admin(1), 1)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), admin(2), 1)
	require.ErrorIs(t, err, shared.ErrForbidden)

	// system admins see every school
	_, err = svc.Get(context.Background(), &shared.Principal{UserID: 9, RoleSlug: "system_admin"}, 1)
	require.NoError(t, err)
}

func TestUpdateTermRevalidatesAgainstSession(t *testing.T) {
	svc, repo := testTermsService()
	repo.terms[1] = Term{ID: 1, SessionID: 10, SchoolID: 1, Name: "Semester 1",
		StartDate: date("2025-07-01"), EndDate: date("2025-12-20")}

	_, err := svc.Update(context.Background(), admin(1), 1, Term{
		Name:      "Semester 1",
		StartDate: date("2025-07-01"),
		EndDate:   date("2026-08-01"),
	})
	require.ErrorIs(t, err, shared.ErrValidationFailed)
}
