package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AuthClaims is custom claims carried by login tokens.
// Subject holds the user id.
type AuthClaims struct {
	Role    Role    `json:"role"`
	Country Country `json:"country"`
	jwt.RegisteredClaims
}

type SignupRequest struct {
	Name     string  `json:"name" validate:"required,max=64"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Role     Role    `json:"role" validate:"required,vrole"`
	Country  Country `json:"country" validate:"required,vcountry"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	User      *User  `json:"user"`
}

type AuthService struct {
	users      UserStorage
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(users UserStorage, signingKey string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
	}
}

func (x *AuthService) Signup(ctx context.Context, in *SignupRequest) (*User, error) {

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	hashedPass, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hash password", "err", err)
		return nil, errInternal
	}

	user := &dbUser{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashedPass),
		Role:         in.Role,
		Country:      in.Country,
		CreateTime:   timeNow(),
	}

	if err := x.users.Create(ctx, user); err != nil {
		if errors.Is(err, errDuplicateKey) {
			return nil, errEmailExists
		}
		slog.Error("create user", "err", err)
		return nil, errInternal
	}

	slog.Info("user signed up", "userId", user.ID, "role", user.Role)

	return user.IntoUser(), nil
}

func (x *AuthService) Login(ctx context.Context, in *LoginRequest) (*LoginResponse, error) {

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := ValidateStruct(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	user, err := x.users.UserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errInvalidCredentials
		}
		slog.Error("get user by email", "err", err)
		return nil, errInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	token, exp, err := x.createNewToken(user)
	if err != nil {
		slog.Error("sign token", "err", err)
		return nil, errInternal
	}

	return &LoginResponse{
		Token:     token,
		ExpiresIn: exp,
		User:      user.IntoUser(),
	}, nil
}

// Authenticate verifies a bearer token and resolves the caller from
// storage, so a deleted user is rejected even with a valid token.
func (x *AuthService) Authenticate(ctx context.Context, tokenString string) (*Actor, error) {

	if tokenString == "" {
		return nil, errNoToken
	}

	claims, err := x.verifyToken(tokenString)
	if err != nil {
		slog.Debug("token rejected", "err", err)
		return nil, errInvalidToken
	}

	user, err := x.users.User(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errInvalidToken
		}
		slog.Error("get user", "err", err)
		return nil, errInternal
	}

	return &Actor{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    user.Role,
		Country: user.Country,
	}, nil
}

// SeedAdmin creates an ADMIN account unless the email is already taken.
func (x *AuthService) SeedAdmin(ctx context.Context, name, email, password string, country Country) error {

	_, err := x.Signup(ctx, &SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     RoleAdmin,
		Country:  country,
	})
	if err != nil && !errors.Is(err, errEmailExists) {
		return err
	}
	return nil
}

// createNewToken returns the signed token and its lifetime in seconds.
func (x *AuthService) createNewToken(user *dbUser) (string, int64, error) {

	now := time.Now()
	exp := now.Add(x.tokenTTL)

	claims := &AuthClaims{
		Role:    user.Role,
		Country: user.Country,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "foodapp",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	ss, err := token.SignedString(x.signingKey)
	if err != nil {
		return "", 0, err
	}

	return ss, int64(x.tokenTTL.Seconds()), nil
}

func (x *AuthService) verifyToken(tokenString string) (*AuthClaims, error) {

	token, err := jwt.ParseWithClaims(tokenString, new(AuthClaims), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return x.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid user token")
	}
	return claims, nil
}
