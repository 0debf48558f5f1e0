package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/password"
	"github.com/example/face-attendance/internal/repository"
)

const (
	positionID = "3a1f5c2e-7b4d-4c8e-9f0a-1b2c3d4e5f60"
	scheduleID = "4b2e6d3f-8c5e-4d9f-a01b-2c3d4e5f6a71"
)

type stubEmployeeRepo struct {
	mu        sync.Mutex
	positions map[string]bool
	schedules map[string]bool
	nips      map[string]bool
	emails    map[string]bool
	phones    map[string]bool
	lookupErr error
	createErr error

	createdUser     *repository.User
	createdDetails  *repository.EmployeeDetails
	createCallCount int
}

func newStubEmployeeRepo() *stubEmployeeRepo {
	return &stubEmployeeRepo{
		positions: map[string]bool{positionID: true},
		schedules: map[string]bool{scheduleID: true},
		nips:      map[string]bool{},
		emails:    map[string]bool{},
		phones:    map[string]bool{},
	}
}

func (s *stubEmployeeRepo) has(set map[string]bool, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return set[key], s.lookupErr
}

func (s *stubEmployeeRepo) PositionExists(_ context.Context, id string) (bool, error) {
	return s.has(s.positions, id)
}

func (s *stubEmployeeRepo) WorkingScheduleExists(_ context.Context, id string) (bool, error) {
	return s.has(s.schedules, id)
}

func (s *stubEmployeeRepo) NIPExists(_ context.Context, nip string) (bool, error) {
	return s.has(s.nips, nip)
}

func (s *stubEmployeeRepo) EmailExists(_ context.Context, email string) (bool, error) {
	return s.has(s.emails, email)
}

func (s *stubEmployeeRepo) PhoneExists(_ context.Context, phone string) (bool, error) {
	return s.has(s.phones, phone)
}

func (s *stubEmployeeRepo) CreateEmployee(_ context.Context, user *repository.User, employee *repository.Employee, details *repository.EmployeeDetails) (*repository.Employee, error) {
	s.createCallCount++
	if s.createErr != nil {
		return nil, s.createErr
	}
	user.ID = "user-1"
	employee.ID = "emp-1"
	employee.UserID = user.ID
	employee.User = user
	employee.Details = details
	s.createdUser = user
	s.createdDetails = details
	return employee, nil
}

func strPtr(s string) *string { return &s }

func validEmployeeInput() CreateEmployeeInput {
	return CreateEmployeeInput{
		User: NewUserInput{NIP: "3003"},
		Employee: NewEmployeeInput{
			FullName:          "Rina Putri",
			Email:             strPtr("rina@example.com"),
			PhoneNumber:       strPtr("081234567890"),
			PositionID:        positionID,
			WorkingScheduleID: strPtr(scheduleID),
		},
		Details: &NewDetailsInput{Address: "Jl. Merdeka 1", Gender: "F"},
	}
}

func TestCreateEmployee(t *testing.T) {
	repo := newStubEmployeeRepo()
	uc := NewEmployeeUseCase(repo, fastParams, zap.NewNop())

	result, err := uc.CreateEmployee(context.Background(), validEmployeeInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	if result.Employee.ID != "emp-1" {
		t.Fatalf("unexpected employee %+v", result.Employee)
	}
	if repo.createdUser.Role != repository.RoleEmployee {
		t.Fatalf("expected default role EMPLOYEE, got %q", repo.createdUser.Role)
	}
	if result.InitialPassword == "" || strings.Contains(repo.createdUser.Password, result.InitialPassword) {
		t.Fatalf("initial password must be returned and stored hashed only")
	}
	ok, err := password.Verify(result.InitialPassword, repo.createdUser.Password)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify the initial password: %v", err)
	}
	if repo.createdDetails == nil || repo.createdDetails.Address != "Jl. Merdeka 1" {
		t.Fatalf("details were not passed through: %+v", repo.createdDetails)
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateEmployeeInput)
		kind   apperror.Kind
	}{
		{"missing position", func(in *CreateEmployeeInput) { in.Employee.PositionID = " " }, apperror.KindBadRequest},
		{"unknown position", func(in *CreateEmployeeInput) { in.Employee.PositionID = "0b7e3c1a-2d4f-4e6a-8b9c-1d2e3f4a5b6c" }, apperror.KindNotFound},
		{"unknown schedule", func(in *CreateEmployeeInput) { in.Employee.WorkingScheduleID = strPtr("9c8b7a6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d") }, apperror.KindNotFound},
		{"malformed position", func(in *CreateEmployeeInput) { in.Employee.PositionID = "pos-1" }, apperror.KindNotFound},
		{"malformed schedule", func(in *CreateEmployeeInput) { in.Employee.WorkingScheduleID = strPtr("day shift") }, apperror.KindNotFound},
		{"bad email", func(in *CreateEmployeeInput) { in.Employee.Email = strPtr("rina-at-example") }, apperror.KindBadRequest},
		{"bad phone", func(in *CreateEmployeeInput) { in.Employee.PhoneNumber = strPtr("08-12") }, apperror.KindBadRequest},
		{"bad role", func(in *CreateEmployeeInput) { in.User.Role = "ROOT" }, apperror.KindBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubEmployeeRepo()
			uc := NewEmployeeUseCase(repo, fastParams, zap.NewNop())
			input := validEmployeeInput()
			tc.mutate(&input)

			_, err := uc.CreateEmployee(context.Background(), input)
			if !apperror.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			if repo.createCallCount != 0 {
				t.Fatalf("nothing may be created on validation failure")
			}
		})
	}
}

func TestCreateEmployeeMalformedReferenceSkipsLookup(t *testing.T) {
	repo := newStubEmployeeRepo()
	repo.lookupErr = errors.New("invalid input syntax for type uuid")
	uc := NewEmployeeUseCase(repo, fastParams, zap.NewNop())
	input := validEmployeeInput()
	input.Employee.PositionID = "pos-1"

	_, err := uc.CreateEmployee(context.Background(), input)
	if !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("expected not found before any lookup, got %v", err)
	}
	if apperror.UserMessage(err, "") != "position not found" {
		t.Fatalf("unexpected message %q", apperror.UserMessage(err, ""))
	}
}

func TestCreateEmployeeDuplicates(t *testing.T) {
	cases := []struct {
		name    string
		seed    func(*stubEmployeeRepo)
		message string
	}{
		{"nip", func(r *stubEmployeeRepo) { r.nips["3003"] = true }, "NIP is already in use"},
		{"email", func(r *stubEmployeeRepo) { r.emails["rina@example.com"] = true }, "email is already registered"},
		{"phone", func(r *stubEmployeeRepo) { r.phones["081234567890"] = true }, "phone number is already registered"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubEmployeeRepo()
			tc.seed(repo)
			uc := NewEmployeeUseCase(repo, fastParams, zap.NewNop())

			_, err := uc.CreateEmployee(context.Background(), validEmployeeInput())
			if !apperror.Is(err, apperror.KindConflict) {
				t.Fatalf("expected conflict, got %v", err)
			}
			if msg := apperror.UserMessage(err, ""); msg != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, msg)
			}
		})
	}
}

func TestCreateEmployeeOptionalFieldsSkipChecks(t *testing.T) {
	repo := newStubEmployeeRepo()
	repo.emails[""] = true
	uc := NewEmployeeUseCase(repo, fastParams, zap.NewNop())
	input := validEmployeeInput()
	input.Employee.Email = strPtr("   ")
	input.Employee.PhoneNumber = nil
	input.Employee.WorkingScheduleID = nil

	if _, err := uc.CreateEmployee(context.Background(), input); err != nil {
		t.Fatalf("blank optional fields must be ignored: %v", err)
	}
}

func TestCreateEmployeeStoreConflict(t *testing.T) {
	repo := newStubEmployeeRepo()
	repo.createErr = apperror.Wrap(apperror.KindConflict, errors.New("23505"), "email is already registered")
	uc := NewEmployeeUseCase(repo, fastParams, zap.NewNop())

	_, err := uc.CreateEmployee(context.Background(), validEmployeeInput())
	if apperror.Status(err) != 409 {
		t.Fatalf("expected 409, got %d (%v)", apperror.Status(err), err)
	}
}

func TestCreateEmployeeLookupFailure(t *testing.T) {
	repo := newStubEmployeeRepo()
	repo.lookupErr = errors.New("db down")
	uc := NewEmployeeUseCase(repo, fastParams, zap.NewNop())

	_, err := uc.CreateEmployee(context.Background(), validEmployeeInput())
	if err == nil || apperror.Status(err) != 500 {
		t.Fatalf("expected internal error, got %v", err)
	}
}
