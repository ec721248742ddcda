package operators

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/cueladder/backend/internal/models"
)

// RoleLadderAdmin may rewrite the ladder (onboard, import, manual sweep).
const RoleLadderAdmin = "ladder_admin"

// GetOperator retrieves an operator account by email
func GetOperator(db *sqlx.DB, email string) (*models.Operator, error) {
	var op models.Operator
	err := db.Get(&op, `SELECT id, email, display_name, token_hash, roles, created_at, updated_at FROM operators WHERE email=$1`, email)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// VerifyOperatorToken checks the provided token against the stored hash
func VerifyOperatorToken(hashedToken, plainToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken)) == nil
}

// CreateOperator creates or refreshes an operator account (used for seeding)
func CreateOperator(db *sqlx.DB, email, displayName, plainToken string, roles []string) error {
	hashedToken, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO operators (email, display_name, token_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			updated_at = NOW()
	`, email, displayName, string(hashedToken), pq.Array(roles))

	return err
}

// ValidateOperatorCredentials checks the email + token pair
func ValidateOperatorCredentials(db *sqlx.DB, email, token string) (*models.Operator, error) {
	op, err := GetOperator(db, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("operator account not found")
		}
		log.Printf("[OPERATOR] Database error looking up %s: %v", email, err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyOperatorToken(op.TokenHash, token) {
		log.Printf("[OPERATOR] Token verification failed for %s", email)
		return nil, fmt.Errorf("invalid token")
	}

	return op, nil
}

// HasRole reports whether the operator holds the given role
func HasRole(op *models.Operator, role string) bool {
	for _, r := range op.Roles {
		if r == role {
			return true
		}
	}
	return false
}
