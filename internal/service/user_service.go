package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/rdb"
	redisrepo "yatube/internal/repository/redis"
)

// Mailer delivers one HTML message.
type Mailer func(to, subject, htmlBody string) error

type UserService struct {
	repo    *rdb.UserRepository
	tokens  TokenStore
	jwt     *pkg.TokenManager
	counts  CountCache
	mailer  Mailer
	siteURL string
}

type UserOption func(*UserService)

// WithMailer enables the welcome email.
func WithMailer(m Mailer, siteURL string) UserOption {
	return func(s *UserService) {
		s.mailer = m
		s.siteURL = strings.TrimRight(siteURL, "/")
	}
}

// WithCountCache lets user deletion drop the cached post count.
func WithCountCache(c CountCache) UserOption {
	return func(s *UserService) { s.counts = c }
}

// NewUserService builds the account service. tokens may be nil, in which
// case sessions are checked by signature and expiry only.
func NewUserService(db *gorm.DB, tokens TokenStore, jwt *pkg.TokenManager, opts ...UserOption) *UserService {
	s := &UserService{
		repo:   &rdb.UserRepository{DB: db},
		tokens: tokens,
		jwt:    jwt,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SMTPMailer adapts the SMTP settings to a Mailer.
func SMTPMailer(cfg pkg.SMTPConfig) Mailer {
	return func(to, subject, body string) error {
		return pkg.SendEmail(cfg, to, subject, body)
	}
}

type SignupInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Signup creates the account and opens a session for it.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*model.User, string, error) {
	taken, err := s.repo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	s.sendWelcome(user)
	return user, token, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// openSession issues a token and makes it the user's only valid one.
func (s *UserService) openSession(ctx context.Context, userID uint64) (string, error) {
	token, err := s.jwt.Generate(userID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if s.tokens != nil {
		if err := s.tokens.AddUserToken(ctx, userID, token); err != nil {
			return "", err
		}
	}
	return token, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	if s.tokens == nil {
		return nil
	}
	return s.tokens.DeleteUserToken(ctx, userID)
}

// Authenticate resolves a session token to its user. The token must be the
// one currently stored for that user; a successful check extends its TTL.
// ErrSessionInvalid means the token is rejected for good. Any other error is
// a lookup failure and says nothing about the token.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	if s.tokens != nil {
		current, err := s.tokens.GetUserToken(ctx, claims.UserID)
		switch {
		case errors.Is(err, redisrepo.ErrTokenNotFound):
			return nil, ErrSessionInvalid
		case err != nil:
			return nil, fmt.Errorf("load session token: %w", err)
		case current != token:
			return nil, ErrSessionInvalid
		}
		if err := s.tokens.ExtendUserToken(ctx, claims.UserID); err != nil {
			log.Ctx(ctx).Warn().Err(err).Uint64("user_id", claims.UserID).Msg("extend session")
		}
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// Delete removes the account, applying policy to its posts, and ends any
// open session. Returns the number of posts removed.
func (s *UserService) Delete(ctx context.Context, username string, policy model.DeletePolicy) (int64, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.Delete(ctx, user.ID, policy)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, ErrUserNotFound
	case errors.Is(err, rdb.ErrInUse):
		return 0, ErrUserHasPosts
	case err != nil:
		return 0, err
	}
	if s.tokens != nil {
		_ = s.tokens.DeleteUserToken(ctx, user.ID)
	}
	if s.counts != nil {
		_ = s.counts.Invalidate(ctx, user.ID)
	}
	return n, nil
}

func (s *UserService) sendWelcome(user *model.User) {
	if s.mailer == nil || user.Email == "" {
		return
	}
	profile := s.siteURL + "/profile/" + url.PathEscape(user.Username) + "/"
	body := pkg.WelcomeHTML(user.FullName(), profile)
	go func() {
		if err := s.mailer(user.Email, "Welcome to Yatube", body); err != nil {
			log.Error().Err(err).Str("to", user.Email).Msg("welcome email")
		}
	}()
}
