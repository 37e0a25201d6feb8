package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusSDOApproved = "sdo_approved"
	StatusInProgress  = "in_progress"
	StatusCompleted   = "completed"
	StatusRejected    = "rejected"
	StatusCancelled   = "cancelled"
)

// RequisitionStatuses is every persisted status.
var RequisitionStatuses = []string{
	StatusDraft,
	StatusSubmitted,
	StatusSDOApproved,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusCancelled,
}

// UpdatableStatuses are the only targets accepted by a status update.
var UpdatableStatuses = []string{
	StatusSDOApproved,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusCancelled,
}

var OperationTypes = []string{"surveillance", "raid", "inspection", "other"}

const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

var Urgencies = []string{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

const (
	SensitivityNormal    = "normal"
	SensitivitySensitive = "sensitive"
	SensitivityTopSecret = "top-secret"
)

var Sensitivities = []string{SensitivityNormal, SensitivitySensitive, SensitivityTopSecret}

type Requisition struct {
	ID               uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	RequestNumber    string                  `gorm:"size:20;uniqueIndex;not null;<-:create" json:"requestNumber"`
	RequestedByID    uuid.UUID               `gorm:"type:uuid;index;not null" json:"requestedById"`
	RequestedBy      *User                   `gorm:"foreignKey:RequestedByID" json:"requestedBy,omitempty"`
	OperationType    string                  `gorm:"size:20;not null" json:"operationType"`
	Description      string                  `gorm:"type:text;not null" json:"description"`
	Urgency          string                  `gorm:"size:20;not null;default:medium" json:"urgency"`
	Sensitivity      string                  `gorm:"size:20;not null;default:normal" json:"sensitivity"`
	Status           string                  `gorm:"size:20;index;not null;default:draft" json:"status"`
	AssignedTeam     []User                  `gorm:"many2many:requisition_team;" json:"assignedTeam"`
	AssignedVehicles []Vehicle               `gorm:"many2many:requisition_vehicles;" json:"assignedVehicles"`
	AssignedWeapons  []Weapon                `gorm:"many2many:requisition_weapons;" json:"assignedWeapons"`
	Location         string                  `gorm:"type:text;not null" json:"location"`
	StartTime        time.Time               `gorm:"index;not null" json:"startTime"`
	EndTime          *time.Time              `json:"endTime,omitempty"`
	Attachments      []RequisitionAttachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments"`
	SDORemarks       string                  `gorm:"type:text" json:"sdoRemarks,omitempty"`
	CompletionReport string                  `gorm:"type:text" json:"completionReport,omitempty"`
	CompletedAt      *time.Time              `json:"completedAt,omitempty"`
	CompletedByID    *uuid.UUID              `gorm:"type:uuid" json:"completedById,omitempty"`
	CompletedBy      *User                   `gorm:"foreignKey:CompletedByID" json:"completedBy,omitempty"`
	Version          int                     `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time               `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt        time.Time               `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (r *Requisition) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsTeamMember reports whether userID is in the assigned team.
func (r *Requisition) IsTeamMember(userID uuid.UUID) bool {
	for _, m := range r.AssignedTeam {
		if m.ID == userID {
			return true
		}
	}
	return false
}

type RequisitionAttachment struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequisitionID uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Filename      string    `gorm:"size:255;not null" json:"filename"`
	Path          string    `gorm:"type:text;not null" json:"path"`
	ContentType   string    `gorm:"size:100" json:"contentType,omitempty"`
	UploadedAt    time.Time `gorm:"not null" json:"uploadedAt"`
}

func (a *RequisitionAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now()
	}
	return nil
}

// RequisitionSequence is the per-year counter behind request numbers.
type RequisitionSequence struct {
	Year  int   `gorm:"primaryKey;autoIncrement:false"`
	Value int64 `gorm:"not null;default:0"`
}
