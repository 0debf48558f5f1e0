package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/logging"
	"github.com/example/face-attendance/internal/password"
	"github.com/example/face-attendance/internal/repository"
)

const initialPasswordLength = 12

// EmployeeRepository defines the persistence operations of employee onboarding.
type EmployeeRepository interface {
	PositionExists(ctx context.Context, id string) (bool, error)
	WorkingScheduleExists(ctx context.Context, id string) (bool, error)
	NIPExists(ctx context.Context, nip string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	CreateEmployee(ctx context.Context, user *repository.User, employee *repository.Employee, details *repository.EmployeeDetails) (*repository.Employee, error)
}

// CreateEmployeeInput is the onboarding payload.
type CreateEmployeeInput struct {
	User     NewUserInput     `json:"user" binding:"required"`
	Employee NewEmployeeInput `json:"employee" binding:"required"`
	Details  *NewDetailsInput `json:"details"`
}

type NewUserInput struct {
	NIP  string          `json:"nip" binding:"required,max=32"`
	Role repository.Role `json:"role"`
}

type NewEmployeeInput struct {
	FullName          string  `json:"full_name" binding:"required,max=255"`
	Email             *string `json:"email"`
	PhoneNumber       *string `json:"phone_number"`
	PositionID        string  `json:"position_id"`
	WorkingScheduleID *string `json:"working_schedule_id"`
}

type NewDetailsInput struct {
	Address    string     `json:"address"`
	BirthPlace string     `json:"birth_place"`
	BirthDate  *time.Time `json:"birth_date"`
	Gender     string     `json:"gender"`
	Religion   string     `json:"religion"`
}

// CreateEmployeeResult returns the created employee and the generated password. The
// password is not stored anywhere in plain text and is shown exactly once.
type CreateEmployeeResult struct {
	Employee        *repository.Employee
	InitialPassword string
}

// EmployeeUseCase onboards employees together with their login account.
type EmployeeUseCase struct {
	repo     EmployeeRepository
	validate *validator.Validate
	params   password.Params
	logger   *zap.Logger
}

// NewEmployeeUseCase constructs a new use case instance.
func NewEmployeeUseCase(repo EmployeeRepository, params password.Params, logger *zap.Logger) *EmployeeUseCase {
	return &EmployeeUseCase{
		repo:     repo,
		validate: validator.New(),
		params:   params,
		logger:   logger.Named("employee_usecase"),
	}
}

// CreateEmployee validates the payload, rejects duplicates and creates the user,
// employee and details atomically.
func (uc *EmployeeUseCase) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*CreateEmployeeResult, error) {
	nip := strings.TrimSpace(input.User.NIP)
	opLogger := uc.logger.With(zap.String("operation", "usecase.create_employee"), zap.String("nip", nip))

	role := input.User.Role
	if role == "" {
		role = repository.RoleEmployee
	}
	if !role.Valid() {
		return nil, apperror.BadRequest("unknown role %q", role)
	}

	positionID := strings.TrimSpace(input.Employee.PositionID)
	if positionID == "" {
		return nil, apperror.BadRequest("position is required")
	}

	email := normalizeOptional(input.Employee.Email)
	phone := normalizeOptional(input.Employee.PhoneNumber)
	scheduleID := normalizeOptional(input.Employee.WorkingScheduleID)
	if email != nil && uc.validate.Var(*email, "email") != nil {
		return nil, apperror.BadRequest("email format is invalid")
	}
	if phone != nil && uc.validate.Var(*phone, "numeric,min=8,max=15") != nil {
		return nil, apperror.BadRequest("phone number must contain 8 to 15 digits")
	}

	if !validID(positionID) {
		return nil, apperror.NotFound("position not found")
	}
	if scheduleID != nil && !validID(*scheduleID) {
		return nil, apperror.NotFound("working schedule not found")
	}

	ok, err := uc.repo.PositionExists(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NotFound("position not found")
	}
	if scheduleID != nil {
		ok, err := uc.repo.WorkingScheduleExists(ctx, *scheduleID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NotFound("working schedule not found")
		}
	}

	if err := uc.checkDuplicates(ctx, nip, email, phone); err != nil {
		return nil, err
	}

	plain, err := password.Generate(initialPasswordLength)
	if err != nil {
		return nil, logging.NewOperationError("usecase.create_employee", "", err)
	}
	hashed, err := password.Hash(plain, uc.params)
	if err != nil {
		return nil, logging.NewOperationError("usecase.create_employee", "", err)
	}

	user := &repository.User{NIP: nip, Password: hashed, Role: role}
	employee := &repository.Employee{
		FullName:          strings.TrimSpace(input.Employee.FullName),
		Email:             email,
		PhoneNumber:       phone,
		PositionID:        positionID,
		WorkingScheduleID: scheduleID,
	}
	var details *repository.EmployeeDetails
	if d := input.Details; d != nil {
		details = &repository.EmployeeDetails{
			Address:    d.Address,
			BirthPlace: d.BirthPlace,
			BirthDate:  d.BirthDate,
			Gender:     d.Gender,
			Religion:   d.Religion,
		}
	}

	created, err := uc.repo.CreateEmployee(ctx, user, employee, details)
	if err != nil {
		opLogger.Warn("failed to create employee", zap.Error(err))
		return nil, err
	}

	opLogger.Info("employee created", zap.String("user_id", user.ID), zap.String("employee_id", created.ID))
	return &CreateEmployeeResult{Employee: created, InitialPassword: plain}, nil
}

// checkDuplicates runs the independent uniqueness lookups concurrently.
func (uc *EmployeeUseCase) checkDuplicates(ctx context.Context, nip string, email, phone *string) error {
	var nipTaken, emailTaken, phoneTaken bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nipTaken, err = uc.repo.NIPExists(gctx, nip)
		return err
	})
	if email != nil {
		g.Go(func() error {
			var err error
			emailTaken, err = uc.repo.EmailExists(gctx, *email)
			return err
		})
	}
	if phone != nil {
		g.Go(func() error {
			var err error
			phoneTaken, err = uc.repo.PhoneExists(gctx, *phone)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	switch {
	case nipTaken:
		return apperror.Conflict("NIP is already in use")
	case emailTaken:
		return apperror.Conflict("email is already registered")
	case phoneTaken:
		return apperror.Conflict("phone number is already registered")
	}
	return nil
}

func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
