package dto

import (
	"time"

	"github.com/google/uuid"
	"pera.com/perasystem/internal/entity"
	commonDto "pera.com/perasystem/pkg/dto"
)

type RegisterRequest struct {
	Name          string `json:"name" binding:"required,max=100"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	EmployeeID    string `json:"employeeId" binding:"required,max=50"`
	Designation   string `json:"designation" binding:"required,oneof=io eo constable sr_constable sdo admin"`
	Rank          string `json:"rank" binding:"max=50"`
	Station       string `json:"station" binding:"omitempty,uuid"`
	ContactNumber string `json:"contactNumber" binding:"max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	ClientIP string `json:"-"`
}

type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}

type UserFilter struct {
	Designation string `form:"designation" binding:"omitempty,oneof=io eo constable sr_constable sdo admin"`
	Station     string `form:"station" binding:"omitempty,uuid"`
	Active      *bool  `form:"active"`
	Search      string `form:"search"`
	commonDto.Pagination
}

// UpdateUserRequest is a partial update. Designation, Station and IsActive are admin-only.
type UpdateUserRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=100"`
	Rank           *string `json:"rank" binding:"omitempty,max=50"`
	ContactNumber  *string `json:"contactNumber" binding:"omitempty,max=30"`
	Password       *string `json:"password" binding:"omitempty,min=6"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,url"`
	Designation    *string `json:"designation" binding:"omitempty,oneof=io eo constable sr_constable sdo admin"`
	Station        *string `json:"station" binding:"omitempty,uuid"`
	IsActive       *bool   `json:"isActive"`
}

// AdminFieldsSet reports whether the request touches admin-only fields.
func (r UpdateUserRequest) AdminFieldsSet() bool {
	return r.Designation != nil || r.Station != nil || r.IsActive != nil
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type UserResponse struct {
	ID             uuid.UUID                 `json:"id"`
	Name           string                    `json:"name"`
	FullName       string                    `json:"fullName"`
	Email          string                    `json:"email"`
	EmployeeID     string                    `json:"employeeId"`
	Designation    string                    `json:"designation"`
	Rank           string                    `json:"rank"`
	Station        *commonDto.StationSummary `json:"station,omitempty"`
	ContactNumber  string                    `json:"contactNumber"`
	IsActive       bool                      `json:"isActive"`
	LastLogin      *time.Time                `json:"lastLogin,omitempty"`
	ProfilePicture *string                   `json:"profilePicture,omitempty"`
	CreatedAt      time.Time                 `json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
}

func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		FullName:       u.FullName(),
		Email:          u.Email,
		EmployeeID:     u.EmployeeID,
		Designation:    u.Designation,
		Rank:           u.Rank,
		Station:        commonDto.NewStationSummary(u.Station),
		ContactNumber:  u.ContactNumber,
		IsActive:       u.IsActive,
		LastLogin:      u.LastLogin,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

type UserListResponse struct {
	Users []*UserResponse
	Total int64
	Page  int
}
