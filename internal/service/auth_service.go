package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
	"github.com/visweshnarni/qptestbackend/pkg/jwt"
	"github.com/visweshnarni/qptestbackend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthService authenticates students and employees. The two populations live
// in different tables with different claims shapes, so each gets its own
// login entry point.
type AuthService interface {
	StudentLogin(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	EmployeeLogin(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Logout blacklists the presented token until its natural expiry.
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	repo   *repository.Repository
	jwt    *jwt.Manager
	redis  *redis.Client
	logger *zap.Logger
}

// NewAuthService wires authentication. redis may be nil; logout then degrades
// to a no-op and tokens expire naturally.
func NewAuthService(repo *repository.Repository, jwtManager *jwt.Manager, redisClient *redis.Client, logger *zap.Logger) AuthService {
	return &authService{repo: repo, jwt: jwtManager, redis: redisClient, logger: logger}
}

func (s *authService) StudentLogin(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	student, err := s.repo.Student.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	departmentID := ""
	departmentName := ""
	if student.Class != nil {
		departmentID = student.Class.DepartmentID
		if student.Class.Department != nil {
			departmentName = student.Class.Department.Name
		}
	}

	resp, err := s.issueTokens(student.StudentID, model.RoleStudent, departmentID)
	if err != nil {
		return nil, err
	}
	resp.User = dto.UserResponse{
		ID:         student.StudentID,
		Name:       student.Name,
		Email:      student.Email,
		Role:       model.RoleStudent,
		Department: departmentName,
	}

	s.logger.Info("student logged in", zap.String("student_id", student.StudentID))
	return resp, nil
}

func (s *authService) EmployeeLogin(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	employee, err := s.repo.Employee.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issueTokens(employee.EmployeeID, employee.Role, employee.DepartmentID)
	if err != nil {
		return nil, err
	}
	departmentName := ""
	if employee.Department != nil {
		departmentName = employee.Department.Name
	}
	resp.User = dto.UserResponse{
		ID:         employee.EmployeeID,
		Name:       employee.Name,
		Email:      employee.Email,
		Role:       employee.Role,
		Department: departmentName,
	}

	s.logger.Info("employee logged in",
		zap.String("employee_id", employee.EmployeeID),
		zap.String("role", employee.Role))
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.redis == nil {
		s.logger.Warn("logout without redis, token expires naturally")
		return nil
	}
	return s.redis.BlacklistToken(ctx, jti, time.Until(expiresAt))
}

func (s *authService) issueTokens(userID, role, departmentID string) (*dto.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(userID, role, departmentID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(userID, role, departmentID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.jwt.AccessTokenTTL().Seconds()),
	}, nil
}
