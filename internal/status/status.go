// Package status 定义每日记录状态、特殊请求类型及可选状态规则。
//
// 状态流转保持宽松：用户可在当前活动允许的状态集合内任意切换，
// 不校验来源状态。pendente 与 concluida_com_atraso 只能由
// 结束工作日与待办处理流程写入，用户不可手动选择。
package status

// Status 每日记录状态，字符串值与数据库存储一致
type Status string

const (
	NotStarted        Status = "nao_iniciada"
	InProgress        Status = "em_andamento"
	Completed         Status = "concluida"
	Pending           Status = "pendente"
	CompletedLate     Status = "concluida_com_atraso"
	OnDuty            Status = "plantao"
	MonthlyConference Status = "conferencia_mensal"
)

// All 全部状态（按界面展示顺序）
var All = []Status{NotStarted, InProgress, Completed, Pending, CompletedLate, OnDuty, MonthlyConference}

var labels = map[Status]string{
	NotStarted:        "Não Iniciada",
	InProgress:        "Em Andamento",
	Completed:         "Concluída",
	Pending:           "Pendente",
	CompletedLate:     "Concluída com Atraso",
	OnDuty:            "Plantão",
	MonthlyConference: "Conferência Mensal",
}

// Label 状态展示名
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Valid 判断是否为已知状态
func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Selectable 返回活动允许用户选择的状态
// 值班活动追加 plantao；否则月度会议活动追加 conferencia_mensal（两者同时标记时以值班为准）
func Selectable(isDuty, isMonthlyConference bool) []Status {
	base := []Status{NotStarted, InProgress, Completed}
	switch {
	case isDuty:
		return append(base, OnDuty)
	case isMonthlyConference:
		return append(base, MonthlyConference)
	default:
		return base
	}
}

// IsSelectable 判断 target 是否在活动允许的状态集合内
func IsSelectable(target Status, isDuty, isMonthlyConference bool) bool {
	for _, s := range Selectable(isDuty, isMonthlyConference) {
		if s == target {
			return true
		}
	}
	return false
}

// UserSettable 是否属于用户可手动设置的状态（不考虑活动类型）
func UserSettable(s Status) bool {
	return IsSelectable(s, true, false) || s == MonthlyConference
}

// ── 特殊请求类型 ──

// RequestType 特殊请求类型
type RequestType string

const (
	RequestEmail      RequestType = "solicitacao_email"
	RequestImage      RequestType = "requisicao_imagem"
	RequestPendingRDO RequestType = "rdo_pendente"
	RequestSleepiness RequestType = "sonolencia_fadiga"
)

var requestTypeLabels = map[RequestType]string{
	RequestEmail:      "Solicitação de E-mail",
	RequestImage:      "Requisição de Imagem",
	RequestPendingRDO: "RDO Pendente",
	RequestSleepiness: "Sonolência / Fadiga",
}

// Label 请求类型展示名
func (r RequestType) Label() string {
	if l, ok := requestTypeLabels[r]; ok {
		return l
	}
	return string(r)
}

// Valid 判断是否为已知请求类型
func (r RequestType) Valid() bool {
	_, ok := requestTypeLabels[r]
	return ok
}

// ── 用户角色与审批状态 ──

const (
	RoleAdmin         = "admin"
	RoleSupervisor    = "supervisor"
	RoleOperator      = "operador"
	RoleOperatorDay   = "operador_12_36_diurno"
	RoleOperatorNight = "operador_12_36_noturno"
	ApprovalPending   = "pending"
	ApprovalApproved  = "approved"
	ApprovalRejected  = "rejected"
)

// Roles 全部合法角色
var Roles = []string{RoleAdmin, RoleSupervisor, RoleOperator, RoleOperatorDay, RoleOperatorNight}

// ValidRole 判断角色是否合法
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsManager 管理员与主管可访问管理功能
func IsManager(role string) bool {
	return role == RoleAdmin || role == RoleSupervisor
}
