package admin

import (
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/models"
)

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(db *sqlx.DB) ([]models.RuntimeConfig, error) {
	var configs []models.RuntimeConfig
	err := db.Select(&configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// ValidateRuntimeValue checks value against the declared value type.
func ValidateRuntimeValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// UpdateRuntimeConfigValue updates a single runtime config value
func UpdateRuntimeConfigValue(db *sqlx.DB, key, value, adminUsername string) error {
	var valueType string
	if err := db.Get(&valueType, `SELECT value_type FROM runtime_config WHERE key=$1`, key); err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}
	if err := ValidateRuntimeValue(valueType, value); err != nil {
		return err
	}
	_, err := db.Exec(`UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3`, value, adminUsername, key)
	return err
}

// ApplyRuntimeConfig overlays DB-stored session settings on cfg. Unknown keys
// and unparsable values are skipped.
func ApplyRuntimeConfig(configs []models.RuntimeConfig, cfg *config.Config) int {
	applied := 0
	cfg.UpdateRuntime(func(r *config.Runtime) {
		for _, c := range configs {
			switch c.Key {
			case "starting_balance":
				if v, err := strconv.ParseFloat(c.Value, 64); err == nil && v >= 0 {
					r.StartingBalance = v
					applied++
				}
			case "default_wager":
				if v, err := strconv.ParseFloat(c.Value, 64); err == nil && v > 0 {
					r.DefaultWager = v
					applied++
				}
			case "idle_timeout_seconds":
				if v, err := strconv.Atoi(c.Value); err == nil && v >= 0 {
					r.IdleTimeoutSecs = v
					applied++
				}
			}
		}
	})
	return applied
}

// LoadRuntimeConfig reads runtime_config and applies it to cfg.
func LoadRuntimeConfig(db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(db)
	if err != nil {
		return err
	}
	n := ApplyRuntimeConfig(configs, cfg)
	log.Printf("[CONFIG] Applied %d runtime config overrides from database", n)
	return nil
}
