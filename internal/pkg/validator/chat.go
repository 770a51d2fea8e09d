package validator

import (
	"github.com/futig/docchat/internal/entity"
)

// ValidateChatRequest checks the preconditions answered with a plain error
// instead of a stream. Turn contents are checked by the chat use case.
func (v *Validator) ValidateChatRequest(req *entity.ChatRequest) error {
	if err := v.ValidateUserID(req.UserID); err != nil {
		return err
	}
	if len(req.DocumentIDs) == 0 {
		return entity.ErrNoDocumentsSelected
	}
	return nil
}
