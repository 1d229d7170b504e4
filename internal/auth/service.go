package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sekolah-app/sekolah/internal/shared"
)

// RoleResolver resolves a user's current roles and flattened permissions,
// already filtered to the user's school scope. Implemented by the rbac
// service; the flow calls it at issuance time only.
type RoleResolver interface {
	ResolvePrincipal(ctx context.Context, userID int64) (*shared.Principal, error)
}

// MfaEnrolment is returned from StartMfaEnrolment; the secret and recovery
// codes are shown to the user exactly once.
type MfaEnrolment struct {
	Secret        string   `json:"secret"`
	OtpauthURL    string   `json:"otpauth_url"`
	RecoveryCodes []string `json:"recovery_codes"`
}

// Service orchestrates the login, MFA and refresh flows.
type Service struct {
	repo       Repository
	roles      RoleResolver
	issuer     *TokenIssuer
	logger     *slog.Logger
	audit      *shared.AuditLogger
	totpIssuer string
}

// NewService constructs a new Service. audit may be nil.
func NewService(repo Repository, roles RoleResolver, issuer *TokenIssuer, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, roles: roles, issuer: issuer, logger: logger, audit: audit, totpIssuer: "Sekolah"}
}

// Login validates credentials and either completes authentication or parks
// the flow behind an MFA temp token. Unknown email, wrong password and an
// inactive account all surface the same ErrInvalidCredentials so the caller
// cannot tell which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// Corrupted stored hash: surface to operators, never to the client.
		s.logError("password hash corrupted", err, slog.Int64("user_id", user.ID))
		s.record(ctx, user, "auth.hash_corrupted", nil)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.record(ctx, user, "auth.login_failed", nil)
		return nil, ErrInvalidCredentials
	}

	if user.MfaEnabled {
		tempToken, err := s.issuer.IssueMfaToken(user.ID, user.Email)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Status: StatusMfaRequired, TempToken: tempToken}, nil
	}
	return s.authenticate(ctx, user)
}

// VerifyMfa completes an MFA login: a valid temp token plus either a correct
// 6-digit TOTP code or a single-use recovery code.
func (s *Service) VerifyMfa(ctx context.Context, tempToken, code string) (*LoginResult, error) {
	claims, err := s.issuer.VerifyMfaToken(tempToken)
	if err != nil {
		return nil, err
	}
	userID, err := SubjectID(claims)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive || !user.MfaEnabled {
		return nil, ErrInvalidCredentials
	}

	switch {
	case IsTOTPCode(code):
		if !VerifyTOTP(user.MfaSecret, code) {
			s.record(ctx, user, "auth.mfa_failed", nil)
			return nil, ErrMfaCodeInvalid
		}
	case IsRecoveryCode(code):
		if err := s.consumeRecoveryCode(ctx, user, code); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("mfa code must be a 6-digit TOTP or recovery code: %w", shared.ErrValidationFailed)
	}
	return s.authenticate(ctx, user)
}

// Refresh exchanges a refresh token for a new pair. The password is not
// re-checked, but roles and permissions are re-resolved: refresh tokens
// intentionally carry no authorization data.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	userID, err := SubjectID(claims)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return s.authenticate(ctx, user)
}

// StartMfaEnrolment generates a TOTP secret and recovery codes for an
// authenticated user. MFA stays disabled until ActivateMfa confirms a code.
func (s *Service) StartMfaEnrolment(ctx context.Context, userID int64) (*MfaEnrolment, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	secret, url, err := GenerateTOTPSecret(s.totpIssuer, user.Email)
	if err != nil {
		return nil, err
	}
	codes, err := GenerateRecoveryCodes()
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		if hashes[i], err = HashRecoveryCode(c); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetMfa(ctx, user.ID, false, secret); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRecoveryCodes(ctx, user.ID, hashes); err != nil {
		return nil, err
	}
	return &MfaEnrolment{Secret: secret, OtpauthURL: url, RecoveryCodes: codes}, nil
}

// ActivateMfa enables MFA once the user proves possession of the secret.
func (s *Service) ActivateMfa(ctx context.Context, userID int64, code string) error {
	if !IsTOTPCode(code) {
		return fmt.Errorf("activation code must be 6 digits: %w", shared.ErrValidationFailed)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MfaSecret == "" {
		return fmt.Errorf("mfa enrolment not started: %w", shared.ErrValidationFailed)
	}
	if !VerifyTOTP(user.MfaSecret, code) {
		return ErrMfaCodeInvalid
	}
	if err := s.repo.SetMfa(ctx, user.ID, true, user.MfaSecret); err != nil {
		return err
	}
	s.record(ctx, user, "auth.mfa_enabled", nil)
	return nil
}

// authenticate is the terminal transition: roles and permissions are resolved
// fresh at this moment, then one access and one refresh token are issued.
func (s *Service) authenticate(ctx context.Context, user *User) (*LoginResult, error) {
	principal, err := s.roles.ResolvePrincipal(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	access, err := s.issuer.IssueAccessToken(AccessTokenInput{
		UserID:      principal.UserID,
		Email:       principal.Email,
		SchoolID:    principal.SchoolID,
		RoleIDs:     principal.RoleIDs,
		RoleSlug:    principal.RoleSlug,
		Permissions: principal.Permissions,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	s.record(ctx, user, "auth.login", nil)
	return &LoginResult{
		Status:    StatusAuthenticated,
		Tokens:    &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"},
		Principal: principal,
	}, nil
}

func (s *Service) consumeRecoveryCode(ctx context.Context, user *User, code string) error {
	codes, err := s.repo.ListUnusedRecoveryCodes(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, stored := range codes {
		if MatchRecoveryCode(code, stored.CodeHash) {
			// Consumption can race a concurrent submit of the same code; the
			// conditional update makes exactly one of them win.
			if err := s.repo.ConsumeRecoveryCode(ctx, stored.ID); err != nil {
				return ErrMfaRecoveryCodeInvalid
			}
			s.record(ctx, user, "auth.mfa_recovery_used", nil)
			return nil
		}
	}
	// Unknown and already-used codes fail identically.
	s.record(ctx, user, "auth.mfa_failed", nil)
	return ErrMfaRecoveryCodeInvalid
}

func (s *Service) logError(msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.Any("error", err))
	for _, a := range attrs {
		args = append(args, a)
	}
	s.logger.Error(msg, args...)
}

func (s *Service) record(ctx context.Context, user *User, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{ActorID: user.ID, SchoolID: user.SchoolID, Action: action, Entity: "user", EntityID: fmt.Sprintf("%d", user.ID), Meta: meta}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
