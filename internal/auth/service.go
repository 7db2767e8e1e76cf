package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
)

// User is an account allowed to use the back office
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Roles        []string           `bson:"roles,omitempty" json:"roles"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserRepository stores users
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
}

type mongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository stores users in the "users" collection
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{users: db.Collection("users")}
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) Create(ctx context.Context, user *User) error {
	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailInUse
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

// Session is returned after login or signup
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// SignupRequest creates a new account
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Service handles account login and signup
type Service struct {
	users  UserRepository
	tokens *TokenService
}

func NewService(users UserRepository, tokens *TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

// Login checks the password and issues a token
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// Signup registers an account and logs it in
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

// Me returns the account behind a user id
func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	return s.users.FindByID(ctx, userID)
}

// Logout revokes the session's token
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	return s.tokens.Revoke(ctx, claims)
}

func (s *Service) session(user *User) (*Session, error) {
	token, expires, err := s.tokens.Issue(user.ID.Hex(), user.Email, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{AccessToken: token, ExpiresAt: expires, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
