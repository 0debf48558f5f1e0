package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/logging"
)

func (r *Repository) PositionExists(ctx context.Context, id string) (bool, error) {
	ok, err := r.exists(ctx, &Position{}, "id = ?", id)
	return ok, logging.NewOperationError("repository.position_exists", "", err)
}

func (r *Repository) WorkingScheduleExists(ctx context.Context, id string) (bool, error) {
	ok, err := r.exists(ctx, &WorkingSchedule{}, "id = ?", id)
	return ok, logging.NewOperationError("repository.working_schedule_exists", "", err)
}

func (r *Repository) NIPExists(ctx context.Context, nip string) (bool, error) {
	ok, err := r.exists(ctx, &User{}, "nip = ?", nip)
	return ok, logging.NewOperationError("repository.nip_exists", "", err)
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	ok, err := r.exists(ctx, &Employee{}, "email = ?", email)
	return ok, logging.NewOperationError("repository.email_exists", "", err)
}

func (r *Repository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	ok, err := r.exists(ctx, &Employee{}, "phone_number = ?", phone)
	return ok, logging.NewOperationError("repository.phone_exists", "", err)
}

// CreateEmployee inserts the user, the employee profile and the optional details in one
// transaction and returns the employee with its relations loaded.
func (r *Repository) CreateEmployee(ctx context.Context, user *User, employee *Employee, details *EmployeeDetails) (*Employee, error) {
	var created Employee
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		employee.UserID = user.ID
		if err := tx.Omit("User", "Position", "WorkingSchedule", "Details").Create(employee).Error; err != nil {
			return err
		}

		if details != nil {
			details.EmployeeID = employee.ID
			if err := tx.Create(details).Error; err != nil {
				return err
			}
		}

		return tx.
			Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "nip", "role") }).
			Preload("Position").
			Preload("WorkingSchedule").
			Preload("Details").
			Take(&created, "id = ?", employee.ID).Error
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, employeeConflict(err)
		}
		return nil, logging.NewOperationError("repository.create_employee", user.ID, err)
	}
	return &created, nil
}

// employeeConflict names the duplicated field from the violated index. This needs the
// driver's *pgconn.PgError, which is why GormConfig leaves TranslateError off.
func employeeConflict(err error) error {
	return apperror.Wrap(apperror.KindConflict, err, conflictMessage(UniqueConstraint(err)))
}

func conflictMessage(constraint string) string {
	switch {
	case strings.Contains(constraint, "nip"):
		return "NIP is already in use"
	case strings.Contains(constraint, "email"):
		return "email is already registered"
	case strings.Contains(constraint, "phone"):
		return "phone number is already registered"
	default:
		return "employee data conflicts with an existing record"
	}
}
