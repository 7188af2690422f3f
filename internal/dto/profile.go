package dto

// ── 用户档案模块 DTO ──

// ProfileListRequest 用户列表查询参数
type ProfileListRequest struct {
	ApprovalStatus string `form:"approval_status" binding:"omitempty,oneof=pending approved rejected"`
}

// UpdateRoleRequest 修改角色
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin supervisor operador operador_12_36_diurno operador_12_36_noturno"`
}

// ProfileResponse 用户档案
type ProfileResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name,omitempty"`
	DisplayName    string `json:"display_name"`
	Role           string `json:"role"`
	ApprovalStatus string `json:"approval_status"`
	CreatedAt      string `json:"created_at"`
}
