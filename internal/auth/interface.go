package auth

import "finbot/internal/domain/models"

// JWTVerifier validates bearer tokens. The middleware depends on this
// interface so tests can substitute a static verifier.
type JWTVerifier interface {
	// VerifyToken validates a JWT string and returns its claims. Returns
	// domain.ErrUnauthorized for anything invalid, expired, or anonymous.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases verifier resources.
	Close() error
}
