package storage

import "errors"

var (
	// ErrCredentialNotFound is returned when a credential is not found
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrPricingRuleNotFound is returned when a pricing rule is not found
	ErrPricingRuleNotFound = errors.New("pricing rule not found")

	// ErrGenerationNotFound is returned when a generation record is not found
	ErrGenerationNotFound = errors.New("generation record not found")

	// ErrAdminUserNotFound is returned when an admin user is not found
	ErrAdminUserNotFound = errors.New("admin user not found")
)
