package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleIO          = "io"
	RoleEO          = "eo"
	RoleConstable   = "constable"
	RoleSrConstable = "sr_constable"
	RoleSDO         = "sdo"
	RoleAdmin       = "admin"
)

// Roles lists every designation, which doubles as the authorization role.
var Roles = []string{RoleIO, RoleEO, RoleConstable, RoleSrConstable, RoleSDO, RoleAdmin}

const PasswordCost = 10

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string     `gorm:"size:100;not null" json:"name"`
	Email          string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	EmployeeID     string     `gorm:"size:50;uniqueIndex;not null" json:"employeeId"`
	Designation    string     `gorm:"size:20;index;not null" json:"designation"`
	Rank           string     `gorm:"size:50" json:"rank"`
	StationID      *uuid.UUID `gorm:"type:uuid;index" json:"stationId,omitempty"`
	Station        *Station   `gorm:"foreignKey:StationID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"station,omitempty"`
	ContactNumber  string     `gorm:"size:30" json:"contactNumber"`
	IsActive       bool       `gorm:"not null;default:true" json:"isActive"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	ProfilePicture *string    `gorm:"type:text" json:"profilePicture,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	// Password holds a new plaintext secret until the next save hashes it.
	Password string `gorm:"-" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeSave hashes the secret only when a new plaintext was set.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), PasswordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	return nil
}

// SetPassword marks the secret as modified.
func (u *User) SetPassword(plain string) {
	u.Password = plain
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

func (u *User) FullName() string {
	return fmt.Sprintf("%s (%s)", u.Name, u.EmployeeID)
}

func IsValidRole(role string) bool {
	return Contains(Roles, role)
}
