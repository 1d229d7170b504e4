package schools

import (
	"fmt"
	"strings"

	"github.com/sekolah-app/sekolah/internal/shared"
)

func validate(s School) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("school name is required: %w", shared.ErrValidationFailed)
	}
	if strings.TrimSpace(s.Code) == "" {
		return fmt.Errorf("school code is required: %w", shared.ErrValidationFailed)
	}
	return nil
}
