package service

import (
	"context"
	"time"

	"togglehub/internal/mail"
	"togglehub/internal/model"
	"togglehub/internal/repository"
	"togglehub/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages dashboard accounts. Welcome mail is fire-and-forget:
// a mail outage never fails user creation.
type UserService struct {
	users    repository.UserInterface
	audit    *AuditService
	mailer   mail.Sender
	loginURL string
}

func NewUserService(users repository.UserInterface, audit *AuditService, mailer mail.Sender, loginURL string) *UserService {
	return &UserService{
		users:    users,
		audit:    audit,
		mailer:   mailer,
		loginURL: loginURL,
	}
}

func (s *UserService) Register(ctx context.Context, email, password, role string, operator *OperatorInfo) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(model.ActionCreate, "user", user.ID, operator.UserID, map[string]any{
		"email": email,
		"role":  role,
	})

	go func() {
		mailCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.mailer.SendWelcome(mailCtx, email, s.loginURL); err != nil {
			logger.Error("failed to send welcome email",
				zap.String("email", email), zap.Error(err))
		}
	}()

	return user, nil
}

func (s *UserService) AssignCompany(ctx context.Context, userID, companyID uint64, operator *OperatorInfo) error {
	if err := s.users.AssignCompany(ctx, userID, companyID); err != nil {
		return err
	}
	s.audit.Record(model.ActionUpdate, "user", userID, operator.UserID, map[string]any{
		"company_id": companyID,
	})
	return nil
}

func (s *UserService) List(ctx context.Context, operator *OperatorInfo) ([]model.User, error) {
	return s.users.ListByCompany(ctx, operator.CompanyID)
}
