package students

import (
	"fmt"
	"strings"

	"github.com/sekolah-app/sekolah/internal/shared"
)

func validate(s Student) error {
	if strings.TrimSpace(s.FirstName) == "" {
		return fmt.Errorf("first name is required: %w", shared.ErrValidationFailed)
	}
	if strings.TrimSpace(s.AdmissionNumber) == "" {
		return fmt.Errorf("admission number is required: %w", shared.ErrValidationFailed)
	}
	return nil
}
