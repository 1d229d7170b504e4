package auth

import (
	"crypto/rand"
	"regexp"
	"strings"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const recoveryCodeCount = 10

// Crockford-style alphabet without ambiguous characters.
const recoveryAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"

var (
	totpCodePattern     = regexp.MustCompile(`^[0-9]{6}$`)
	recoveryCodePattern = regexp.MustCompile(`^[A-Z2-9]{5}-[A-Z2-9]{5}$`)
)

// GenerateTOTPSecret creates a new TOTP secret for enrolment and returns the
// secret together with its otpauth:// provisioning URL.
func GenerateTOTPSecret(issuer, accountName string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// VerifyTOTP checks a 6-digit code against the user's TOTP secret.
func VerifyTOTP(secret, code string) bool {
	return totp.Validate(code, secret)
}

// IsTOTPCode reports whether the submitted code has the 6-digit TOTP shape.
func IsTOTPCode(code string) bool {
	return totpCodePattern.MatchString(code)
}

// IsRecoveryCode reports whether the submitted code has the XXXXX-XXXXX
// recovery shape.
func IsRecoveryCode(code string) bool {
	return recoveryCodePattern.MatchString(strings.ToUpper(strings.TrimSpace(code)))
}

// GenerateRecoveryCodes mints the plaintext single-use recovery codes shown
// to the user exactly once at enrolment.
func GenerateRecoveryCodes() ([]string, error) {
	codes := make([]string, recoveryCodeCount)
	for i := range codes {
		raw := make([]byte, 10)
		if _, err := rand.Read(raw); err != nil {
			return nil, err
		}
		var b strings.Builder
		for j, c := range raw {
			if j == 5 {
				b.WriteByte('-')
			}
			b.WriteByte(recoveryAlphabet[int(c)%len(recoveryAlphabet)])
		}
		codes[i] = b.String()
	}
	return codes, nil
}

// HashRecoveryCode hashes a recovery code for storage; plaintext codes are
// never persisted.
func HashRecoveryCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(normalizeRecoveryCode(code)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// MatchRecoveryCode compares a submitted code against a stored hash.
func MatchRecoveryCode(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalizeRecoveryCode(code))) == nil
}

func normalizeRecoveryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
