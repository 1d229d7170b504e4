package students

import (
	"context"
	"strconv"

	"github.com/sekolah-app/sekolah/internal/platform/cache"
	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// Service handles student business logic. Stats reads go through the Redis
// cache; every mutation bumps the cache version.
type Service struct {
	repo  Repository
	cache *cache.Cache
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// List returns the students of one school.
func (s *Service) List(ctx context.Context, schoolID int64, filters shared.ListFilters) ([]Student, int, error) {
	return s.repo.List(ctx, schoolID, filters)
}

// Get fetches one student, enforcing the caller's school scope.
func (s *Service) Get(ctx context.Context, principal *shared.Principal, id int64) (Student, error) {
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err := rbac.CheckSchoolScope(principal, student.SchoolID); err != nil {
		return Student{}, err
	}
	return student, nil
}

// Create enrols a student into the principal's school.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, student Student) (Student, error) {
	if err := rbac.CheckSchoolScope(principal, student.SchoolID); err != nil {
		return Student{}, err
	}
	if err := validate(student); err != nil {
		return Student{}, err
	}
	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return Student{}, err
	}
	_ = s.cache.Bump(ctx)
	return created, nil
}

// Update modifies a student within the caller's school scope.
func (s *Service) Update(ctx context.Context, principal *shared.Principal, id int64, student Student) (Student, error) {
	current, err := s.Get(ctx, principal, id)
	if err != nil {
		return Student{}, err
	}
	student.SchoolID = current.SchoolID
	student.AdmissionNumber = current.AdmissionNumber
	if err := validate(student); err != nil {
		return Student{}, err
	}
	updated, err := s.repo.Update(ctx, id, student)
	if err != nil {
		return Student{}, err
	}
	_ = s.cache.Bump(ctx)
	return updated, nil
}

// Deactivate soft-removes a student within the caller's school scope.
func (s *Service) Deactivate(ctx context.Context, principal *shared.Principal, id int64) error {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Bump(ctx)
	return nil
}

// Stats returns the enrolment summary for a school, cached under a versioned key.
func (s *Service) Stats(ctx context.Context, schoolID int64) (Stats, error) {
	key, err := s.cache.BuildKey(ctx, "students", "stats", strconv.FormatInt(schoolID, 10))
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		return s.repo.Stats(ctx, schoolID)
	})
	return stats, err
}
