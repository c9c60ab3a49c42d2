package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/pkg/logger"
	"github.com/yashrajoria/restaurant-backend/repository"
	"github.com/yashrajoria/restaurant-backend/sender"
)

const (
	verificationCodeLength = 6
	verificationCodeTTL    = 10 * time.Minute
	vipOrderThreshold      = 10
	recentOrdersLimit      = 5
	minPasswordLength      = 8
)

type AccountConfig struct {
	// ExposeCodes returns verification codes in API responses. Development
	// only.
	ExposeCodes bool
}

// AccountService handles registration, login sessions, contact
// verification and the customer profile.
type AccountService struct {
	store    *repository.Store
	tokens   *TokenService
	sessions SessionStore
	gate     *AdminGate
	email    sender.EmailSender
	sms      sender.SMSSender
	cfg      AccountConfig
	logger   *zap.Logger
	now      func() time.Time
}

type AccountServiceDeps struct {
	Store    *repository.Store
	Tokens   *TokenService
	Sessions SessionStore
	Gate     *AdminGate
	Email    sender.EmailSender
	SMS      sender.SMSSender
	Config   AccountConfig
	Logger   *zap.Logger
}

func NewAccountService(deps AccountServiceDeps) *AccountService {
	fallback := sender.LogSender{Logger: deps.Logger}
	if deps.Email == nil {
		deps.Email = fallback
	}
	if deps.SMS == nil {
		deps.SMS = fallback
	}
	return &AccountService{
		store:    deps.Store,
		tokens:   deps.Tokens,
		sessions: deps.Sessions,
		gate:     deps.Gate,
		email:    deps.Email,
		sms:      deps.SMS,
		cfg:      deps.Config,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// GenerateRandomCode returns a numeric code of the given length.
func GenerateRandomCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(n.String())
	}
	return b.String(), nil
}

func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	log := logger.For(ctx, s.logger)

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if len(req.Password) < minPasswordLength {
		return nil, apperrors.Validation("Password must be at least 8 characters long")
	}
	if !models.ValidPhone(phone) {
		return nil, apperrors.Validation("Please enter a valid phone number")
	}

	checks := []struct {
		taken func(context.Context, string) (bool, error)
		value string
		msg   string
	}{
		{s.store.Users.UsernameTaken, username, "Username already exists"},
		{s.store.Users.EmailTaken, email, "Email already exists"},
		{s.store.Users.PhoneTaken, phone, "Phone number already registered"},
	}
	for _, c := range checks {
		taken, err := c.taken(ctx, c.value)
		if err != nil {
			return nil, apperrors.Internal("Failed to register user", err)
		}
		if taken {
			return nil, apperrors.Conflict(c.msg)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}
	code, err := GenerateRandomCode(verificationCodeLength)
	if err != nil {
		return nil, apperrors.Internal("Failed to generate verification code", err)
	}
	expires := s.now().Add(verificationCodeTTL)

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	customer := &models.Customer{
		Phone:                     &phone,
		Address:                   req.Address,
		PhoneVerificationCode:     &code,
		VerificationCodeExpiresAt: &expires,
	}
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Users.CreateUser(ctx, user); err != nil {
			return err
		}
		customer.UserID = user.ID
		return tx.Users.CreateCustomer(ctx, customer)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("Username, email or phone number already registered")
		}
		log.Error("Failed to register user", zap.Error(err))
		return nil, apperrors.Internal("Failed to register user", err)
	}

	if _, err := s.sms.SendSMS(ctx, phone, verificationMessage(code)); err != nil {
		log.Warn("Failed to send phone verification code", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	log.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("username", username))

	resp := &models.RegisterResponse{
		User:     user,
		Customer: customer,
		Message:  "Registration successful. Please verify your phone number.",
	}
	if s.cfg.ExposeCodes {
		resp.VerificationCode = code
	}
	return resp, nil
}

func verificationMessage(code string) string {
	return fmt.Sprintf("Your verification code is: %s. It expires in 10 minutes.", code)
}

// Login accepts a username or an email address. It returns a bearer token
// and, when a session store is configured, a session key.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	invalid := apperrors.Unauthorized("Invalid username or password")

	user, err := s.store.Users.FindUserByLogin(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperrors.Internal("Failed to log in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	resp := &models.LoginResponse{AccessToken: token, User: user}

	if s.sessions != nil {
		key, err := s.sessions.Create(ctx, Session{UserID: user.ID, Email: user.Email})
		if err != nil {
			logger.For(ctx, s.logger).Warn("Failed to create session", zap.String("user_id", user.ID.String()), zap.Error(err))
		} else {
			resp.SessionKey = key
		}
	}

	if customer, err := s.store.Users.GetOrCreateCustomer(ctx, user.ID); err == nil {
		resp.Customer = customer
	}
	if s.gate != nil {
		resp.IsAdmin, _ = s.gate.IsAdmin(ctx, user.ID)
	}

	logger.For(ctx, s.logger).Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *AccountService) Logout(ctx context.Context, sessionKey string) error {
	if s.sessions == nil || sessionKey == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionKey); err != nil {
		return apperrors.Internal("Failed to log out", err)
	}
	return nil
}

// SendCode issues a fresh code for kind, replacing any earlier one.
func (s *AccountService) SendCode(ctx context.Context, userID uuid.UUID, kind models.VerificationType) (*models.SendCodeResponse, error) {
	user, customer, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	code, err := GenerateRandomCode(verificationCodeLength)
	if err != nil {
		return nil, apperrors.Internal("Failed to generate verification code", err)
	}
	expires := s.now().Add(verificationCodeTTL)
	customer.VerificationCodeExpiresAt = &expires

	switch kind {
	case models.VerificationPhone:
		if customer.Phone == nil || *customer.Phone == "" {
			return nil, apperrors.Validation("No phone number on file")
		}
		customer.PhoneVerificationCode = &code
	case models.VerificationEmail:
		customer.EmailVerificationCode = &code
	default:
		return nil, apperrors.Validation("Invalid verification type")
	}

	if err := s.store.Users.SaveCustomer(ctx, customer); err != nil {
		return nil, apperrors.Internal("Failed to store verification code", err)
	}

	if kind == models.VerificationPhone {
		_, err = s.sms.SendSMS(ctx, *customer.Phone, verificationMessage(code))
	} else {
		_, err = s.email.SendEmail(ctx, user.Email, "Your verification code", verificationMessage(code))
	}
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to send verification code",
			zap.String("user_id", userID.String()), zap.String("type", string(kind)), zap.Error(err))
		return nil, apperrors.External("Failed to send verification code", err)
	}

	resp := &models.SendCodeResponse{Message: fmt.Sprintf("Verification code sent to your %s", kind)}
	if s.cfg.ExposeCodes {
		resp.VerificationCode = code
	}
	return resp, nil
}

// VerifyCode checks a code sent by SendCode. A code can be used once.
func (s *AccountService) VerifyCode(ctx context.Context, userID uuid.UUID, kind models.VerificationType, code string) error {
	_, customer, err := s.loadAccount(ctx, userID)
	if err != nil {
		return err
	}

	var stored **string
	switch kind {
	case models.VerificationPhone:
		stored = &customer.PhoneVerificationCode
	case models.VerificationEmail:
		stored = &customer.EmailVerificationCode
	default:
		return apperrors.Validation("Invalid verification type")
	}

	if *stored == nil || customer.VerificationCodeExpiresAt == nil {
		return apperrors.Validation("No verification code pending")
	}
	if s.now().After(*customer.VerificationCodeExpiresAt) {
		return apperrors.Validation("Verification code has expired")
	}
	if **stored != code {
		return apperrors.Validation("Invalid verification code")
	}

	*stored = nil
	if kind == models.VerificationPhone {
		customer.IsPhoneVerified = true
	} else {
		customer.IsEmailVerified = true
	}
	if customer.PhoneVerificationCode == nil && customer.EmailVerificationCode == nil {
		customer.VerificationCodeExpiresAt = nil
	}
	if err := s.store.Users.SaveCustomer(ctx, customer); err != nil {
		return apperrors.Internal("Failed to verify code", err)
	}
	return nil
}

func (s *AccountService) loadAccount(ctx context.Context, userID uuid.UUID) (*models.User, *models.Customer, error) {
	user, err := s.store.Users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.ErrAuthRequired
		}
		return nil, nil, apperrors.Internal("Failed to load user", err)
	}
	customer, err := s.store.Users.GetOrCreateCustomer(ctx, userID)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to load customer", err)
	}
	return user, customer, nil
}

// Profile returns the caller's account with order and rating stats.
func (s *AccountService) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	user, customer, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Orders.CountByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load profile", err)
	}
	avg, err := s.store.Ratings.AverageByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load profile", err)
	}
	recent, _, err := s.store.Orders.ListByCustomer(ctx, customer.ID, 1, recentOrdersLimit)
	if err != nil {
		return nil, apperrors.Internal("Failed to load profile", err)
	}
	return &models.Profile{
		User:          user,
		Customer:      customer,
		TotalOrders:   total,
		AverageRating: avg,
		IsVIP:         total > vipOrderThreshold,
		RecentOrders:  recent,
	}, nil
}

// UpdateProfile changes the caller's name, phone and address. A new phone
// number must be unused and has to be verified again.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.Profile, error) {
	user, customer, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if !models.ValidPhone(phone) {
			return nil, apperrors.Validation("Please enter a valid phone number")
		}
		if customer.Phone == nil || *customer.Phone != phone {
			taken, err := s.store.Users.PhoneTakenByOther(ctx, phone, customer.ID)
			if err != nil {
				return nil, apperrors.Internal("Failed to update profile", err)
			}
			if taken {
				return nil, apperrors.Conflict("Phone number already registered")
			}
			customer.Phone = &phone
			customer.IsPhoneVerified = false
		}
	}
	if req.Address != nil {
		customer.Address = strings.TrimSpace(*req.Address)
	}
	firstName, lastName := user.FirstName, user.LastName
	if req.FirstName != nil {
		firstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		lastName = strings.TrimSpace(*req.LastName)
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Users.UpdateName(ctx, userID, firstName, lastName); err != nil {
			return err
		}
		return tx.Users.SaveCustomer(ctx, customer)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("Phone number already registered")
		}
		return nil, apperrors.Internal("Failed to update profile", err)
	}
	logger.For(ctx, s.logger).Info("Profile updated", zap.String("user_id", userID.String()))
	return s.Profile(ctx, userID)
}
