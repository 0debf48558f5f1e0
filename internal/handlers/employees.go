package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/repository"
	"github.com/example/face-attendance/internal/usecase"
)

// EmployeeService onboards employees.
type EmployeeService interface {
	CreateEmployee(ctx context.Context, input usecase.CreateEmployeeInput) (*usecase.CreateEmployeeResult, error)
}

type EmployeeHandler struct {
	employees EmployeeService
	logger    *zap.Logger
}

func NewEmployeeHandler(employees EmployeeService, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, logger: logger.Named("employees")}
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	var input usecase.CreateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.employees.CreateEmployee(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err, "failed to create employee")
		return
	}

	respond(c, http.StatusCreated, "employee created successfully", gin.H{
		"employee":         toEmployeeResponse(result.Employee),
		"initial_password": result.InitialPassword,
	})
}

type employeeResponse struct {
	ID              string                  `json:"id"`
	FullName        string                  `json:"full_name"`
	Email           *string                 `json:"email"`
	PhoneNumber     *string                 `json:"phone_number"`
	User            *userResponse           `json:"user,omitempty"`
	Position        *namedResponse          `json:"position,omitempty"`
	WorkingSchedule *namedResponse          `json:"working_schedule,omitempty"`
	Details         *employeeDetailsPayload `json:"details,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

type userResponse struct {
	ID   string          `json:"id"`
	NIP  string          `json:"nip"`
	Role repository.Role `json:"role"`
}

type namedResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type employeeDetailsPayload struct {
	Address    string     `json:"address,omitempty"`
	BirthPlace string     `json:"birth_place,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Gender     string     `json:"gender,omitempty"`
	Religion   string     `json:"religion,omitempty"`
}

func toEmployeeResponse(e *repository.Employee) employeeResponse {
	resp := employeeResponse{
		ID:          e.ID,
		FullName:    e.FullName,
		Email:       e.Email,
		PhoneNumber: e.PhoneNumber,
		CreatedAt:   e.CreatedAt,
	}
	if e.User != nil {
		resp.User = &userResponse{ID: e.User.ID, NIP: e.User.NIP, Role: e.User.Role}
	}
	if e.Position != nil {
		resp.Position = &namedResponse{ID: e.Position.ID, Name: e.Position.Name}
	}
	if e.WorkingSchedule != nil {
		resp.WorkingSchedule = &namedResponse{ID: e.WorkingSchedule.ID, Name: e.WorkingSchedule.Name}
	}
	if d := e.Details; d != nil {
		resp.Details = &employeeDetailsPayload{
			Address:    d.Address,
			BirthPlace: d.BirthPlace,
			BirthDate:  d.BirthDate,
			Gender:     d.Gender,
			Religion:   d.Religion,
		}
	}
	return resp
}
