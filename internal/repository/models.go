package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCEO      Role = "CEO"
	RoleManager  Role = "MANAGER"
	RoleHR       Role = "HR"
	RoleEmployee Role = "EMPLOYEE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCEO, RoleManager, RoleHR, RoleEmployee:
		return true
	}
	return false
}

// User is the authentication record of a person. Its ID is the system wide identity.
type User struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	NIP       string    `gorm:"column:nip;uniqueIndex;size:32;not null"`
	Password  string    `gorm:"column:password;not null"`
	Role      Role      `gorm:"column:role;size:16;not null;default:EMPLOYEE"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Position is a job title with its base salary.
type Position struct {
	ID         string    `gorm:"column:id;primaryKey;type:uuid"`
	Name       string    `gorm:"column:name;size:128;not null"`
	BaseSalary float64   `gorm:"column:base_salary;type:numeric(14,2)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Position) TableName() string { return "positions" }

func (p *Position) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// WorkingSchedule is a shift definition employees can be assigned to.
type WorkingSchedule struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	Name      string    `gorm:"column:name;size:128;not null"`
	StartTime string    `gorm:"column:start_time;size:5;not null"`
	EndTime   string    `gorm:"column:end_time;size:5;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (WorkingSchedule) TableName() string { return "working_schedules" }

func (w *WorkingSchedule) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Employee is the HR profile attached one-to-one to a user.
type Employee struct {
	ID                string    `gorm:"column:id;primaryKey;type:uuid"`
	UserID            string    `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`
	FullName          string    `gorm:"column:full_name;size:255;not null"`
	Email             *string   `gorm:"column:email;size:255;uniqueIndex"`
	PhoneNumber       *string   `gorm:"column:phone_number;size:32;uniqueIndex"`
	PositionID        string    `gorm:"column:position_id;type:uuid;not null"`
	WorkingScheduleID *string   `gorm:"column:working_schedule_id;type:uuid"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`

	User            *User            `gorm:"foreignKey:UserID"`
	Position        *Position        `gorm:"foreignKey:PositionID"`
	WorkingSchedule *WorkingSchedule `gorm:"foreignKey:WorkingScheduleID"`
	Details         *EmployeeDetails `gorm:"foreignKey:EmployeeID"`
}

func (Employee) TableName() string { return "employees" }

func (e *Employee) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// EmployeeDetails holds optional personal data of an employee.
type EmployeeDetails struct {
	EmployeeID string     `gorm:"column:employee_id;primaryKey;type:uuid"`
	Address    string     `gorm:"column:address;type:text"`
	BirthPlace string     `gorm:"column:birth_place;size:128"`
	BirthDate  *time.Time `gorm:"column:birth_date;type:date"`
	Gender     string     `gorm:"column:gender;size:16"`
	Religion   string     `gorm:"column:religion;size:32"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (EmployeeDetails) TableName() string { return "employee_details" }

// UserFace is the stored face template of a user. At most one row exists per user; the
// unique index on user_id is the authoritative guard against double enrollment.
type UserFace struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	UserID    string    `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`
	FaceData  []byte    `gorm:"column:face_data;type:bytea;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (UserFace) TableName() string { return "user_faces" }

func (f *UserFace) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
