package dto

type DashboardResponse struct {
	Requisitions      map[string]int64 `json:"requisitions"`
	TotalRequisitions int64            `json:"totalRequisitions"`
	Vehicles          map[string]int64 `json:"vehicles,omitempty"`
	Weapons           map[string]int64 `json:"weapons,omitempty"`
	ActiveUsers       *int64           `json:"activeUsers,omitempty"`
}
