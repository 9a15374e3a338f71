package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Register creates an account. Vet accounts start unapproved and carry a
// VeterinarianProfile; admins cannot self-register.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	phone := strings.TrimSpace(in.PhoneNumber)
	if phone == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: phone_number and password are required", domain.ErrValidation)
	}
	if !in.UserType.Valid() || in.UserType == domain.RoleAdmin {
		return nil, fmt.Errorf("%w: user_type %q cannot be registered", domain.ErrValidation, in.UserType)
	}
	license := strings.TrimSpace(in.LicenseNumber)
	if in.UserType.IsVet() && license == "" {
		return nil, fmt.Errorf("%w: license_number is required for veterinarians", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		PhoneNumber:       phone,
		PasswordHash:      string(hash),
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		UserType:          in.UserType,
		Sector:            strings.TrimSpace(in.Sector),
		District:          strings.TrimSpace(in.District),
		IsActive:          true,
		IsApprovedByAdmin: !in.UserType.IsVet(),
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		user.Email = &email
	}
	if in.UserType.IsVet() {
		user.VeterinarianProfile = &domain.VeterinarianProfile{
			LicenseNumber: license,
			IsAvailable:   true,
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and returns a signed HS256 token.
func (s *AuthService) Login(ctx context.Context, phone, password string) (string, *domain.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := user.CanAuthenticate(); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"role":  string(user.UserType),
		"staff": user.IsStaff || user.IsSuperuser,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
