package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxIdentityLength   = 64
	minCredentialLength = 4
	maxCredentialLength = 72 // bcrypt ignores anything longer
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateIdentity checks a user identity. Identities are case-sensitive
// and kept verbatim, so surrounding whitespace is rejected rather than trimmed.
func ValidateIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return ValidationError{Field: "identity", Message: "identity is required"}
	}
	if identity != strings.TrimSpace(identity) {
		return ValidationError{Field: "identity", Message: "identity must not start or end with spaces"}
	}
	if utf8.RuneCountInString(identity) > maxIdentityLength {
		return ValidationError{Field: "identity", Message: fmt.Sprintf("identity must be at most %d characters", maxIdentityLength)}
	}
	for _, r := range identity {
		if unicode.IsControl(r) {
			return ValidationError{Field: "identity", Message: "identity contains control characters"}
		}
	}
	return nil
}

// ValidateCredential checks a credential. When required is false an empty
// credential is accepted (identity-only login).
func ValidateCredential(credential string, required bool) error {
	if credential == "" {
		if required {
			return ValidationError{Field: "credential", Message: "credential is required"}
		}
		return nil
	}
	if len(credential) < minCredentialLength {
		return ValidationError{Field: "credential", Message: fmt.Sprintf("credential must be at least %d characters", minCredentialLength)}
	}
	if len(credential) > maxCredentialLength {
		return ValidationError{Field: "credential", Message: fmt.Sprintf("credential must be at most %d bytes", maxCredentialLength)}
	}
	return nil
}
