package dbhelper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clinicalai/apiv1/models"
	"github.com/clinicalai/apiv1/utils"
	"github.com/clinicalai/apiv1/vault"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// unknownUserPassword is hashed once so sign-ins for unknown emails still pay for a bcrypt compare.
const unknownUserPassword = "clinicalai-unknown-user"

var dummyPasswordHash = sync.OnceValue(func() string {
	hash, _ := utils.HashPassword(unknownUserPassword)
	return hash
})

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) Register(ctx context.Context, email, password string) (string, error) {
	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	user := models.User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("creating user: %w", err)
	}
	return user.ID, nil
}

// Authenticate checks a password and, when lockout is on, counts failures per email.
func (s *Store) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	var userID string
	var authErr error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.Now()
		var loginAttempts models.LoginAttempts
		if s.maxLoginAttempts > 0 {
			var err error
			loginAttempts, err = getLoginAttempts(tx, email, now)
			if err != nil {
				return err
			}
			if now.After(loginAttempts.BanExpiresAt) {
				loginAttempts.NumAttempts = 0
			}
			if loginAttempts.NumAttempts >= uint(s.maxLoginAttempts) {
				authErr = &BanError{Until: loginAttempts.BanExpiresAt}
				return nil
			}
		}

		var user models.User
		result := tx.Where("email = ?", email).Limit(1).Find(&user)
		if result.Error != nil {
			return result.Error
		}
		found := result.RowsAffected > 0
		passwordHash := user.PasswordHash
		if !found {
			passwordHash = dummyPasswordHash()
		}
		loginValid := utils.ComparePasswords(passwordHash, password) == nil && found
		if loginValid {
			userID = user.ID
		} else {
			authErr = ErrInvalidCredentials
		}

		if s.maxLoginAttempts == 0 {
			return nil
		}
		if loginValid {
			loginAttempts.NumAttempts = 0
		} else {
			loginAttempts.NumAttempts++
			loginAttempts.BanExpiresAt = now.Add(time.Minute * utils.LOGIN_BAN_DURATION)
			if loginAttempts.NumAttempts >= uint(s.maxLoginAttempts) {
				authErr = &BanError{Until: loginAttempts.BanExpiresAt}
			}
		}
		return tx.Save(&loginAttempts).Error
	})
	if err != nil {
		return "", fmt.Errorf("authenticating: %w", err)
	}
	if authErr != nil {
		return "", authErr
	}
	return userID, nil
}

func getLoginAttempts(tx *gorm.DB, email string, now time.Time) (models.LoginAttempts, error) {
	var loginAttempts models.LoginAttempts
	result := tx.Where("email = ?", email).Limit(1).Find(&loginAttempts)
	if result.Error != nil {
		return loginAttempts, result.Error
	}
	if result.RowsAffected == 0 {
		loginAttempts = models.LoginAttempts{
			Email:        email,
			NumAttempts:  0,
			BanExpiresAt: now,
		}
	}
	return loginAttempts, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	result := s.DB.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("loading user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &user, nil
}

// IssueVerificationToken replaces any outstanding verification token for the user.
func (s *Store) IssueVerificationToken(ctx context.Context, userID string) (string, error) {
	token, err := utils.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	result := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("verification_token_hash", utils.HashToken(token))
	if result.Error != nil {
		return "", fmt.Errorf("storing verification token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return token, nil
}

func (s *Store) ConsumeVerificationToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}
	var userID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		result := tx.Where("verification_token_hash = ?", utils.HashToken(token)).Limit(1).Find(&user)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		userID = user.ID
		return tx.Model(&user).Updates(map[string]any{
			"verified":                true,
			"verification_token_hash": nil,
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("consuming verification token: %w", err)
	}
	return userID, nil
}

func (s *Store) IssueResetToken(ctx context.Context, email string) (string, error) {
	token, err := utils.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	expires := s.Now().Add(time.Minute * utils.CODE_DURATION)
	result := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Updates(map[string]any{
			"reset_token_hash":       utils.HashToken(token),
			"reset_token_expires_at": expires,
		})
	if result.Error != nil {
		return "", fmt.Errorf("storing reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return token, nil
}

// ResetPassword consumes a reset token. Expired tokens are cleared and reported as not found.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}
	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	var userID string
	var expired bool
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		result := tx.Where("reset_token_hash = ?", utils.HashToken(token)).Limit(1).Find(&user)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		updates := map[string]any{
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
		}
		expired = user.ResetTokenExpiresAt == nil || s.Now().After(*user.ResetTokenExpiresAt)
		if !expired {
			updates["password_hash"] = passwordHash
			userID = user.ID
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		if expired {
			return nil
		}
		return tx.Where("email = ?", user.Email).Delete(&models.LoginAttempts{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("resetting password: %w", err)
	}
	if expired {
		return "", ErrNotFound
	}
	return userID, nil
}

// EnsureVaultSalt returns the user's vault salt, creating it on first use.
func (s *Store) EnsureVaultSalt(ctx context.Context, userID string) ([]byte, error) {
	var salt []byte
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		result := tx.Where("id = ?", userID).Limit(1).Find(&user)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if len(user.VaultSalt) > 0 {
			salt = user.VaultSalt
			return nil
		}
		newSalt, err := vault.NewSalt()
		if err != nil {
			return err
		}
		salt = newSalt
		return tx.Model(&user).Update("vault_salt", newSalt).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading vault salt: %w", err)
	}
	return salt, nil
}

// CheckVaultKey accepts key if it opens the user's stored vault check. The first
// key ever presented sets the check, so every later unlock must match it.
func (s *Store) CheckVaultKey(ctx context.Context, userID string, key []byte) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		result := tx.Where("id = ?", userID).Limit(1).Find(&user)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if user.VaultCheck != nil {
			if vault.VerifyCheck(key, *user.VaultCheck) != nil {
				return ErrWrongVaultPassword
			}
			return nil
		}
		check, err := vault.NewCheck(key)
		if err != nil {
			return err
		}
		return tx.Model(&user).Update("vault_check", check).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrWrongVaultPassword) {
			return err
		}
		return fmt.Errorf("checking vault key: %w", err)
	}
	return nil
}
