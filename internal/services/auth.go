package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/projectpulse/backend/internal/cache"
	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/utils"
	"github.com/projectpulse/backend/pkg/logger"
	"github.com/projectpulse/backend/pkg/response"
	"gorm.io/gorm"
)

var gmailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@gmail\.com$`)

const sessionTTL = 30 * 24 * time.Hour

// ValidEmail reports whether email is an accepted account address.
func ValidEmail(email string) bool {
	return gmailPattern.MatchString(email)
}

type AuthService struct {
	db       *gorm.DB
	jwtCfg   config.JWTConfig
	authCfg  config.AuthConfig
	mail     MailQueue
	cooldown *cache.Client
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, mail MailQueue, cooldown *cache.Client) *AuthService {
	utils.SetBcryptCost(cfg.Auth.BcryptCost)
	return &AuthService{
		db:       db,
		jwtCfg:   cfg.JWT,
		authCfg:  cfg.Auth,
		mail:     mail,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// RegistrationMode returns the configured lifecycle, "admin" or "otp".
func (s *AuthService) RegistrationMode() string {
	return s.authCfg.RegistrationMode
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates an account. byAdmin is false for public self-registration,
// in which case the admin role cannot be requested.
func (s *AuthService) Register(req *RegisterRequest, byAdmin bool) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	if name == "" || email == "" || username == "" || req.Password == "" {
		return nil, response.NewBadRequest("All fields are required")
	}
	if !ValidEmail(email) {
		return nil, response.NewBadRequest("Only Gmail addresses are allowed")
	}

	role := models.ParseRole(req.Role)
	if role == models.RoleAdmin && !byAdmin {
		role = models.RoleMember
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := utils.GenerateOTP()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Username: username,
		Password: hashed,
		Role:     role,
		Status:   models.StatusPtr(models.InitialStatus(role)),
	}

	var mail *MailMessage
	switch s.authCfg.RegistrationMode {
	case config.RegistrationOTP:
		user.OTP = code
		user.IsVerified = false
		mail = VerificationMail(email, name, code)
	default:
		// The admin chose the initial password; the user gets a code to
		// replace it instead of the password itself.
		user.IsVerified = true
		user.ResetOTP = code
		user.ResetOTPExpiry = utils.ExpiryMillis(s.now(), time.Duration(s.authCfg.SetupOTPHours)*time.Hour)
		mail = AccountCreatedMail(email, name, username, code, s.authCfg.SetupOTPHours)
	}

	if err := s.db.Create(&user).Error; err != nil {
		if models.IsDuplicateKey(err) {
			return nil, response.NewConflict("Username or email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.authCfg.RegistrationMode == config.RegistrationOTP && s.resendCooldown() > 0 {
		s.cooldown.Acquire(context.Background(), resendKey(username), s.resendCooldown())
	}
	s.sendMail(mail)
	return &user, nil
}

// VerifyOtp marks the account verified when code matches. The code is single use.
func (s *AuthService) VerifyOtp(username, code string) error {
	username = strings.TrimSpace(username)
	code = strings.TrimSpace(code)
	if username == "" || code == "" {
		return response.NewBadRequest("Username and OTP are required")
	}

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewBadRequest("Invalid OTP")
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.OTP == "" || !codesEqual(user.OTP, code) {
		return response.NewBadRequest("Invalid OTP")
	}

	// Clearing the code in the same statement that checks it prevents two
	// concurrent verifications from both succeeding.
	result := s.db.Model(&models.User{}).
		Where("id = ? AND otp = ?", user.ID, user.OTP).
		Updates(map[string]interface{}{"is_verified": true, "otp": ""})
	if result.Error != nil {
		return fmt.Errorf("verify user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return response.NewBadRequest("Invalid OTP")
	}
	return nil
}

// ResendOtp replaces the pending verification code and mails it again.
func (s *AuthService) ResendOtp(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user.IsVerified) {
		return response.NewNotFound("User not found or already verified")
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if d := s.resendCooldown(); d > 0 && !s.cooldown.Acquire(ctx, resendKey(username), d) {
		return response.NewTooManyRequests("Please wait before requesting another OTP")
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.db.Model(&user).Update("otp", code).Error; err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	s.sendMail(VerificationMail(user.Email, user.Name, code))
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

type RefreshResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
}

// Login checks the password first so that account state is never revealed to
// someone who does not know it.
func (s *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, response.NewBadRequest("Username and password are required")
	}

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.DummyCheckPassword(req.Password)
			return nil, response.NewUnauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, response.NewUnauthorized("Invalid credentials")
	}
	if s.authCfg.RegistrationMode == config.RegistrationOTP && !user.IsVerified {
		return nil, response.NewForbidden("Please verify your email with the OTP sent to you.")
	}
	if !user.IsActive() {
		return nil, response.NewForbidden("Account is inactive. Please wait for project assignment.")
	}

	access, accessExp, err := s.issueAccessToken(&user)
	if err != nil {
		return nil, err
	}
	refresh, refreshRecord, err := s.newSession(user.ID, clientIP, userAgent)
	if err != nil {
		return nil, err
	}
	if err := s.db.Create(refreshRecord).Error; err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResult{
		AccessToken:     access,
		AccessExpireAt:  accessExp,
		RefreshToken:    refresh,
		RefreshExpireAt: refreshRecord.ExpiresAt,
		User:            &user,
	}, nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *AuthService) Refresh(refreshToken, clientIP, userAgent string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, response.NewBadRequest("refresh token required")
	}

	var stored models.Session
	if err := s.db.Where("token_hash = ?", models.HashSessionToken(refreshToken)).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if !stored.Active(s.now()) {
		return nil, response.NewUnauthorized("refresh token expired or revoked")
	}

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive() {
		return nil, response.NewForbidden("Account is inactive. Please wait for project assignment.")
	}

	access, accessExp, err := s.issueAccessToken(&user)
	if err != nil {
		return nil, err
	}
	newToken, newRecord, err := s.newSession(user.ID, clientIP, userAgent)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newRecord).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Session{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Updates(map[string]interface{}{
				"revoked_at":  now,
				"replaced_by": newRecord.ID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return response.NewUnauthorized("refresh token expired or revoked")
		}
		return nil
	}); err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return &RefreshResult{
		AccessToken:     access,
		AccessExpireAt:  accessExp,
		RefreshToken:    newToken,
		RefreshExpireAt: newRecord.ExpiresAt,
	}, nil
}

func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.Model(&models.Session{}).
		Where("token_hash = ? AND revoked_at IS NULL", models.HashSessionToken(refreshToken)).
		Update("revoked_at", s.now()).Error
}

func (s *AuthService) revokeSessions(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", s.now()).Error
}

// ForgotPassword stores a fresh reset code, overwriting any pending one.
func (s *AuthService) ForgotPassword(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return response.NewBadRequest("Email is required")
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("Email not found")
		}
		return fmt.Errorf("find user: %w", err)
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	expiry := utils.ExpiryMillis(s.now(), time.Duration(s.authCfg.ResetOTPMinutes)*time.Minute)
	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"reset_otp":        code,
		"reset_otp_expiry": expiry,
	}).Error; err != nil {
		return fmt.Errorf("store reset otp: %w", err)
	}

	s.sendMail(PasswordResetMail(user.Email, user.Name, code, s.authCfg.ResetOTPMinutes))
	return nil
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword succeeds only for an exact, unexpired code. The code and
// every outstanding refresh token are invalidated on success.
func (s *AuthService) ResetPassword(req *ResetPasswordRequest) error {
	email := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" || req.NewPassword == "" {
		return response.NewBadRequest("All fields are required")
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewBadRequest("Invalid request")
		}
		return fmt.Errorf("find user: %w", err)
	}

	if user.ResetOTP == "" || !codesEqual(user.ResetOTP, code) || s.now().UnixMilli() > user.ResetOTPExpiry {
		return response.NewBadRequest("Invalid or expired OTP")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ? AND reset_otp = ?", user.ID, user.ResetOTP).
			Updates(map[string]interface{}{
				"password":         hashed,
				"reset_otp":        "",
				"reset_otp_expiry": 0,
			})
		if result.Error != nil {
			return fmt.Errorf("reset password: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return response.NewBadRequest("Invalid or expired OTP")
		}
		return s.revokeSessions(tx, user.ID)
	})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("User not found")
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("incorrect old password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// Sessions opened with the old password end with it.
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", hashed).Error; err != nil {
			return fmt.Errorf("change password: %w", err)
		}
		return s.revokeSessions(tx, user.ID)
	})
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the configured admin when no admin exists yet.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := s.CreateAdmin("Administrator", s.authCfg.AdminUsername, s.authCfg.AdminPassword, s.authCfg.AdminEmail)
	if err != nil {
		return err
	}
	logger.Warnf("[Auth] Created default admin %q, change its password", s.authCfg.AdminUsername)
	return nil
}

// CreateAdmin inserts an active, verified admin account.
func (s *AuthService) CreateAdmin(name, username, password, email string) (*models.User, error) {
	if username == "" || password == "" || email == "" {
		return nil, response.NewBadRequest("All fields are required")
	}
	if name == "" {
		name = username
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := models.User{
		Name:       name,
		Email:      email,
		Username:   username,
		Password:   hashed,
		Role:       models.RoleAdmin,
		Status:     models.StatusPtr(models.UserActive),
		IsVerified: true,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		if models.IsDuplicateKey(err) {
			return nil, response.NewConflict("Username or email already exists")
		}
		return nil, err
	}
	return &admin, nil
}

func (s *AuthService) issueAccessToken(user *models.User) (string, time.Time, error) {
	hours := s.jwtCfg.ExpireHour
	if hours <= 0 {
		hours = 24
	}
	token, err := utils.GenerateToken(user.ID, user.Username, string(user.Role), hours)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, s.now().Add(time.Duration(hours) * time.Hour), nil
}

func (s *AuthService) newSession(userID uint, clientIP, userAgent string) (string, *models.Session, error) {
	token, session, err := models.NewSession(userID, sessionTTL, clientIP, userAgent, s.now())
	if err != nil {
		return "", nil, fmt.Errorf("mint refresh token: %w", err)
	}
	return token, session, nil
}

func (s *AuthService) resendCooldown() time.Duration {
	return time.Duration(s.authCfg.ResendCooldownSecond) * time.Second
}

// sendMail never fails the caller; delivery problems are logged.
func (s *AuthService) sendMail(msg *MailMessage) {
	if s.mail == nil || msg == nil {
		return
	}
	if err := s.mail.Enqueue(msg); err != nil {
		logger.Error().Err(err).Strs("to", msg.To).Msg("[Auth] failed to queue mail")
	}
}

func resendKey(username string) string {
	return "otp:resend:" + strings.ToLower(username)
}

func codesEqual(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
