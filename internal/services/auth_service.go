package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/raffleworks/raffle-backend/internal/models"
	"github.com/raffleworks/raffle-backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Compile-time check to ensure AuthServiceImpl implements AuthService
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthServiceImpl authenticates operators against their stored bcrypt hash
// and issues HS256 JWT tokens.
type AuthServiceImpl struct {
	operatorRepo repositories.OperatorRepository
	jwtSecret    string
	expiresIn    int
}

// NewAuthService creates a new AuthServiceImpl. expiresIn is the token
// lifetime in seconds.
func NewAuthService(operatorRepo repositories.OperatorRepository, jwtSecret string, expiresIn int) *AuthServiceImpl {
	return &AuthServiceImpl{
		operatorRepo: operatorRepo,
		jwtSecret:    jwtSecret,
		expiresIn:    expiresIn,
	}
}

// Login verifies the operator's credentials and returns a signed token plus
// the operator record with the password hash blanked.
func (s *AuthServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (string, *models.Operator, error) {
	operator, err := s.operatorRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.Password), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(operator)
	if err != nil {
		return "", nil, err
	}

	operator.Password = ""
	return token, operator, nil
}

func (s *AuthServiceImpl) generateToken(operator *models.Operator) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   operator.ID.Hex(),
		"email": operator.Email,
		"role":  operator.Role,
		"orgId": operator.OrgID.Hex(),
		"iat":   now.Unix(),
		"exp":   now.Add(time.Second * time.Duration(s.expiresIn)).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
