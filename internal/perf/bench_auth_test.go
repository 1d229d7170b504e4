package perf

import (
	"testing"
	"time"

	"github.com/sekolah-app/sekolah/internal/auth"
	"github.com/sekolah-app/sekolah/internal/rbac"
	"github.com/sekolah-app/sekolah/internal/shared"
)

// Token verification sits on every authenticated request, so regressions
// here show up as global latency.
func BenchmarkAccessTokenVerify(b *testing.B) {
	issuer := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:             "bench-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour,
	})
	schoolID := int64(1)
	token, err := issuer.IssueAccessToken(auth.AccessTokenInput{
		UserID:      1,
		Email:       "guru@example.sch.id",
		SchoolID:    &schoolID,
		RoleIDs:     []int64{3},
		RoleSlug:    rbac.RoleTeacher,
		Permissions: []string{"students:read", "students:write", "levels:read", "branches:read"},
	})
	if err != nil {
		b.Fatalf("issue token: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := issuer.VerifyAccessToken(token); err != nil {
			b.Fatalf("verify token: %v", err)
		}
	}
}

func BenchmarkHasAnyPermission(b *testing.B) {
	schoolID := int64(1)
	principal := &shared.Principal{
		UserID:      1,
		SchoolID:    &schoolID,
		RoleSlug:    rbac.RoleTeacher,
		Permissions: []string{"students:read", "students:write", "levels:read", "branches:read", "sessions:read", "terms:read"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !rbac.HasAnyPermission(principal, "terms:read") {
			b.Fatal("expected permission to match")
		}
	}
}

func BenchmarkPasswordVerify(b *testing.B) {
	hash, err := auth.HashPassword("benchmark-password-123")
	if err != nil {
		b.Fatalf("hash password: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ok, err := auth.VerifyPassword("benchmark-password-123", hash)
		if err != nil || !ok {
			b.Fatalf("verify password: ok=%v err=%v", ok, err)
		}
	}
}
