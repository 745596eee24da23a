package admin

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/blinko/backend/internal/models"
)

var (
	ErrAdminNotFound = errors.New("admin account not found")
	ErrInvalidToken  = errors.New("invalid admin token")
	ErrIPNotAllowed  = errors.New("ip not allowed for admin")
)

// Role granted to accounts that may read the round ledger.
const RoleAuditor = "auditor"

// GetAdminAccount retrieves an admin account by username
func GetAdminAccount(db *sqlx.DB, username string) (*models.AdminAccount, error) {
	var acc models.AdminAccount
	err := db.Get(&acc, `SELECT username, display_name, token_hash, roles, allowed_ips, created_at, updated_at FROM admin_accounts WHERE username=$1`, username)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// HashToken bcrypt-hashes a plain admin token.
func HashToken(plainToken string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hashed), nil
}

// VerifyToken checks if the provided token matches the stored hash
func VerifyToken(hashedToken, plainToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken)) == nil
}

// UpsertAdminAccount creates or replaces an admin account (used by seed-admin)
func UpsertAdminAccount(db *sqlx.DB, username, displayName, plainToken string, roles, allowedIPs []string) error {
	hashed, err := HashToken(plainToken)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO admin_accounts (username, display_name, token_hash, roles, allowed_ips, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (username) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			allowed_ips = EXCLUDED.allowed_ips,
			updated_at = NOW()
	`, username, displayName, hashed, pq.Array(roles), pq.Array(allowedIPs))

	return err
}

// HasRole reports whether the account carries role.
func HasRole(acc *models.AdminAccount, role string) bool {
	for _, r := range acc.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IPAllowed reports whether ip may use the account. An empty list allows any IP.
func IPAllowed(acc *models.AdminAccount, ip string) bool {
	if len(acc.AllowedIPs) == 0 {
		return true
	}
	for _, allowed := range acc.AllowedIPs {
		if allowed == ip {
			return true
		}
	}
	return false
}

// Authenticate validates username + token from ip.
func Authenticate(db *sqlx.DB, username, token, ip string) (*models.AdminAccount, error) {
	acc, err := GetAdminAccount(db, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ADMIN] No admin account for %s", username)
			return nil, ErrAdminNotFound
		}
		log.Printf("[ADMIN] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyToken(acc.TokenHash, token) {
		log.Printf("[ADMIN] Token verification failed for %s", username)
		return nil, ErrInvalidToken
	}
	if !IPAllowed(acc, ip) {
		log.Printf("[ADMIN] %s rejected from ip %s", username, ip)
		return nil, ErrIPNotAllowed
	}
	return acc, nil
}

// LogAdminAction records an admin action in the audit log
func LogAdminAction(db *sqlx.DB, username, ip, route, action string, details map[string]interface{}, success bool) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil || details == nil {
		detailsJSON = []byte("{}")
	}

	_, err = db.Exec(`
		INSERT INTO admin_audit (admin_username, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, username, ip, route, action, detailsJSON, success)

	if err != nil {
		log.Printf("[ADMIN] Failed to log admin action: %v", err)
	}
	return err
}

// GetAdminAuditLogs retrieves recent admin audit logs with pagination
func GetAdminAuditLogs(db *sqlx.DB, limit, offset int) ([]models.AdminAudit, error) {
	var logs []models.AdminAudit
	err := db.Select(&logs, `
		SELECT id, admin_username, ip, route, action, details, success, created_at
		FROM admin_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return logs, err
}
