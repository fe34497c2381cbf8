package usecases

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"whatsflow/internal/entities"
)

// OperatorStore persists portal operator accounts
type OperatorStore interface {
	Create(op *entities.Operator) error
	GetByUsername(username string) (*entities.Operator, error)
}

type AuthUsecase struct {
	operators OperatorStore
	jwtSecret []byte
}

func NewAuthUsecase(operators OperatorStore, secret string) *AuthUsecase {
	return &AuthUsecase{
		operators: operators,
		jwtSecret: []byte(secret),
	}
}

func (uc *AuthUsecase) Login(username, password string) (string, error) {
	op, err := uc.operators.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"operator": op.Username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})

	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return tokenString, nil
}

// EnsureOperator creates the portal account if it doesn't exist (called on startup)
func (uc *AuthUsecase) EnsureOperator(username, password string) error {
	op, err := uc.operators.GetByUsername(username)
	if err != nil {
		return err
	}
	if op == nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return uc.operators.Create(&entities.Operator{
			Username:     username,
			PasswordHash: string(hashed),
		})
	}
	return nil
}
