package cache

import "fmt"

type EntityType string

const (
	EntityPrincipal  EntityType = "principal"
	EntityOTPAttempt EntityType = "otp_attempts"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}
