package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"classroll/internal/mail"
	"classroll/internal/model"
	"classroll/internal/queue"
)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Store is the persistence the account service needs.
type Store interface {
	Create(ctx context.Context, t model.Teacher) error
	FindByEmail(ctx context.Context, email string) (*model.Teacher, error)
	FindByID(ctx context.Context, id string) (*model.Teacher, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.Teacher, error)
	MarkVerified(ctx context.Context, id string) error
}

// Publisher enqueues background jobs.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Service registers, verifies and authenticates teachers.
type Service struct {
	repo     Store
	jobs     Publisher
	logger   *slog.Logger
	validate *validator.Validate
	hashCost int
}

// NewService creates an account service. hashCost <= 0 uses bcrypt.DefaultCost.
func NewService(repo Store, jobs Publisher, logger *slog.Logger, hashCost int) *Service {
	if hashCost <= 0 {
		hashCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return &Service{repo: repo, jobs: jobs, logger: logger, validate: v, hashCost: hashCost}
}

// Register creates an unverified teacher and queues the verification email.
// A failure to queue the email does not undo the registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.Teacher, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return model.Teacher{}, validationError(err)
	}

	existing, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return model.Teacher{}, err
	}
	if existing != nil {
		return model.Teacher{}, model.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return model.Teacher{}, fmt.Errorf("hash password: %w", err)
	}
	token, err := newVerificationToken()
	if err != nil {
		return model.Teacher{}, err
	}

	t := model.Teacher{
		ID:                uuid.NewString(),
		Name:              in.Name,
		Email:             in.Email,
		PasswordHash:      string(hash),
		VerificationToken: &token,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return model.Teacher{}, err
	}

	msg, err := mail.NewVerificationMessage(mail.VerificationJob{Name: t.Name, Email: t.Email, Token: token})
	if err == nil {
		err = s.jobs.Publish(ctx, msg)
	}
	if err != nil {
		s.logger.Error("queue verification email failed",
			slog.String("teacher_id", t.ID),
			slog.String("error", err.Error()),
		)
	}
	return t, nil
}

// Verify marks the token's account verified. alreadyVerified is true when the
// account was verified before this call.
func (s *Service) Verify(ctx context.Context, token string) (t model.Teacher, alreadyVerified bool, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Teacher{}, false, model.ErrInvalidToken
	}
	found, err := s.repo.FindByVerificationToken(ctx, token)
	if err != nil {
		return model.Teacher{}, false, err
	}
	if found == nil {
		return model.Teacher{}, false, model.ErrInvalidToken
	}
	if found.IsVerified {
		return *found, true, nil
	}
	if err := s.repo.MarkVerified(ctx, found.ID); err != nil {
		return model.Teacher{}, false, err
	}
	found.IsVerified = true
	return *found, false, nil
}

// Authenticate checks credentials. Unverified accounts get ErrNotVerified,
// but only after the password matched.
func (s *Service) Authenticate(ctx context.Context, email, password string) (model.Teacher, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		var fields []string
		if email == "" {
			fields = append(fields, "email")
		}
		if password == "" {
			fields = append(fields, "password")
		}
		return model.Teacher{}, model.Invalid(fields...)
	}

	t, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return model.Teacher{}, err
	}
	if t == nil {
		return model.Teacher{}, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)); err != nil {
		return model.Teacher{}, model.ErrInvalidCredentials
	}
	if !t.IsVerified {
		return model.Teacher{}, model.ErrNotVerified
	}
	return *t, nil
}

// FindByID returns the teacher or ErrNotAuthorized when the account is gone.
func (s *Service) FindByID(ctx context.Context, id string) (model.Teacher, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return model.Teacher{}, err
	}
	if t == nil {
		return model.Teacher{}, model.ErrNotAuthorized
	}
	return *t, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.Invalid("body")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return model.Invalid(fields...)
}
