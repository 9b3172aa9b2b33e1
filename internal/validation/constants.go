package validation

const (
	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything beyond 72 bytes

	// Codes
	RegistrationCodeLength = 5
	ResetCodeLength        = 6
)
