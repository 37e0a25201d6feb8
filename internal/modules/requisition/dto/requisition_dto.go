package dto

import (
	"time"

	"github.com/google/uuid"
	"pera.com/perasystem/internal/entity"
	commonDto "pera.com/perasystem/pkg/dto"
)

type CreateRequisitionRequest struct {
	OperationType    string     `json:"operationType" binding:"required,oneof=surveillance raid inspection other"`
	Description      string     `json:"description" binding:"required,max=5000"`
	Urgency          string     `json:"urgency" binding:"omitempty,oneof=low medium high critical"`
	Sensitivity      string     `json:"sensitivity" binding:"omitempty,oneof=normal sensitive top-secret"`
	Location         string     `json:"location" binding:"required,max=500"`
	StartTime        *time.Time `json:"startTime" binding:"required"`
	EndTime          *time.Time `json:"endTime"`
	AssignedTeam     []string   `json:"assignedTeam" binding:"omitempty,max=50,dive,uuid"`
	AssignedVehicles []string   `json:"assignedVehicles" binding:"omitempty,max=50,dive,uuid"`
	AssignedWeapons  []string   `json:"assignedWeapons" binding:"omitempty,max=100,dive,uuid"`
}

// UpdateStatusRequest binds from JSON or multipart form fields. Version is
// optional; when given, a stale value is rejected.
type UpdateStatusRequest struct {
	Status           string  `json:"status" form:"status" binding:"required"`
	Remarks          *string `json:"remarks" form:"remarks"`
	CompletionReport *string `json:"completionReport" form:"completionReport"`
	Version          *int    `json:"version" form:"version" binding:"omitempty,min=1"`
}

type RequisitionFilter struct {
	Status        string     `form:"status" binding:"omitempty,oneof=draft submitted sdo_approved in_progress completed rejected cancelled"`
	RequestedBy   string     `form:"requestedBy" binding:"omitempty,uuid"`
	OperationType string     `form:"operationType" binding:"omitempty,oneof=surveillance raid inspection other"`
	Urgency       string     `form:"urgency" binding:"omitempty,oneof=low medium high critical"`
	StartDate     *time.Time `form:"startDate" time_format:"2006-01-02" time_utc:"1"`
	EndDate       *time.Time `form:"endDate" time_format:"2006-01-02" time_utc:"1"`
	commonDto.Pagination
}

type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path"`
	ContentType string    `json:"contentType,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type RequisitionResponse struct {
	ID               uuid.UUID                  `json:"id"`
	RequestNumber    string                     `json:"requestNumber"`
	RequestedBy      *commonDto.UserSummary     `json:"requestedBy"`
	OperationType    string                     `json:"operationType"`
	Description      string                     `json:"description"`
	Urgency          string                     `json:"urgency"`
	Sensitivity      string                     `json:"sensitivity"`
	Status           string                     `json:"status"`
	AssignedTeam     []*commonDto.UserSummary   `json:"assignedTeam"`
	AssignedVehicles []commonDto.VehicleSummary `json:"assignedVehicles"`
	AssignedWeapons  []commonDto.WeaponSummary  `json:"assignedWeapons"`
	Location         string                     `json:"location"`
	StartTime        time.Time                  `json:"startTime"`
	EndTime          *time.Time                 `json:"endTime,omitempty"`
	Attachments      []AttachmentResponse       `json:"attachments"`
	SDORemarks       string                     `json:"sdoRemarks,omitempty"`
	CompletionReport string                     `json:"completionReport,omitempty"`
	CompletedAt      *time.Time                 `json:"completedAt,omitempty"`
	CompletedBy      *commonDto.UserSummary     `json:"completedBy,omitempty"`
	Version          int                        `json:"version"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

func NewRequisitionResponse(r *entity.Requisition) *RequisitionResponse {
	res := &RequisitionResponse{
		ID:               r.ID,
		RequestNumber:    r.RequestNumber,
		RequestedBy:      commonDto.NewUserSummary(r.RequestedBy),
		OperationType:    r.OperationType,
		Description:      r.Description,
		Urgency:          r.Urgency,
		Sensitivity:      r.Sensitivity,
		Status:           r.Status,
		AssignedTeam:     make([]*commonDto.UserSummary, 0, len(r.AssignedTeam)),
		AssignedVehicles: make([]commonDto.VehicleSummary, 0, len(r.AssignedVehicles)),
		AssignedWeapons:  make([]commonDto.WeaponSummary, 0, len(r.AssignedWeapons)),
		Location:         r.Location,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Attachments:      make([]AttachmentResponse, 0, len(r.Attachments)),
		SDORemarks:       r.SDORemarks,
		CompletionReport: r.CompletionReport,
		CompletedAt:      r.CompletedAt,
		CompletedBy:      commonDto.NewUserSummary(r.CompletedBy),
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	for i := range r.AssignedTeam {
		if s := commonDto.NewUserSummary(&r.AssignedTeam[i]); s != nil {
			res.AssignedTeam = append(res.AssignedTeam, s)
		}
	}
	for i := range r.AssignedVehicles {
		res.AssignedVehicles = append(res.AssignedVehicles, commonDto.NewVehicleSummary(&r.AssignedVehicles[i]))
	}
	for i := range r.AssignedWeapons {
		res.AssignedWeapons = append(res.AssignedWeapons, commonDto.NewWeaponSummary(&r.AssignedWeapons[i]))
	}
	for _, a := range r.Attachments {
		res.Attachments = append(res.Attachments, AttachmentResponse{
			ID:          a.ID,
			Filename:    a.Filename,
			Path:        a.Path,
			ContentType: a.ContentType,
			UploadedAt:  a.UploadedAt,
		})
	}
	return res
}

type RequisitionListResponse struct {
	Requisitions []*RequisitionResponse
	Total        int64
	Page         int
}
