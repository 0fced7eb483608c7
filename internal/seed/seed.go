// Package seed loads the development credentials file and ensures the
// corresponding accounts exist. Only used when dev login is enabled.
package seed

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/dairychain-dev/dairychain/internal/auth"
	"github.com/dairychain-dev/dairychain/internal/models"
)

// DevUser is one entry in the development credentials file
type DevUser struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Email    string `yaml:"email" json:"-"`
	FullName string `yaml:"full_name" json:"full_name"`
	Role     string `yaml:"role" json:"role"`
	Portal   string `yaml:"portal" json:"portal"`
	IsAdmin  bool   `yaml:"is_admin" json:"-"`
}

type credentialsFile struct {
	Users []DevUser `yaml:"users"`
}

// LoadCredentials reads the development credentials YAML file
func LoadCredentials(path string) ([]DevUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	for i, u := range file.Users {
		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("credentials entry %d is missing username or password", i)
		}
		if file.Users[i].Role == "" {
			file.Users[i].Role = models.RoleStaff
		}
		if file.Users[i].Email == "" {
			file.Users[i].Email = u.Username + "@dairychain.local"
		}
	}

	return file.Users, nil
}

// EnsureUsers creates any seeded accounts that don't exist yet.
// Existing accounts are left untouched so local password changes survive restarts.
func EnsureUsers(db *gorm.DB, users []DevUser, log zerolog.Logger) error {
	for _, u := range users {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check seeded user %s: %w", u.Username, err)
		}
		if count > 0 {
			continue
		}

		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return err
		}

		user := &models.User{
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: hash,
			FullName:     u.FullName,
			Role:         u.Role,
			Portal:       u.Portal,
			IsActive:     true,
			IsAdmin:      u.IsAdmin,
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create seeded user %s: %w", u.Username, err)
		}

		log.Info().Str("username", u.Username).Str("role", u.Role).Msg("Seeded development user")
	}

	return nil
}
