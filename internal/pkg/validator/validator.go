package validator

import (
	"fmt"
	"strings"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
)

// Validator checks API and CLI requests before they reach the use cases
type Validator struct {
	cfg config.FileUploadConfig
}

func NewValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateUserID rejects requests without an owner
func (v *Validator) ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user_id", entity.ErrMissingField)
	}
	return nil
}
