package admin

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// GetAdminAccount retrieves an admin account by email
func GetAdminAccount(db *sqlx.DB, email string) (*models.Admin, error) {
	var admin models.Admin
	err := db.Get(&admin, `SELECT id, email, display_name, token_hash, roles, created_at FROM admins WHERE email=$1`, email)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// VerifyAdminToken checks if the provided token matches the stored hash
func VerifyAdminToken(hashedToken, plainToken string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken))
	return err == nil
}

// CreateAdminAccount creates or replaces an admin account (used for seeding)
func CreateAdminAccount(db *sqlx.DB, email, displayName, plainToken, roles string) error {
	hashedToken, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO admins (email, display_name, token_hash, roles, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (email) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles
	`, email, displayName, string(hashedToken), roles)

	return err
}

// ValidateAdminEmailAndToken validates email + token combination
func ValidateAdminEmailAndToken(db *sqlx.DB, email, token string) (*models.Admin, error) {
	admin, err := GetAdminAccount(db, email)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[ADMIN] No admin account found for email: %s", email)
			return nil, fmt.Errorf("admin account not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyAdminToken(admin.TokenHash, token) {
		log.Printf("[ADMIN] Token verification failed for email: %s", email)
		return nil, fmt.Errorf("invalid token")
	}

	return admin, nil
}
