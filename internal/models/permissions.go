package models

// Action names a gated operation.
type Action string

const (
	ActionEmployeeCreate Action = "employee:create"
	ActionEmployeeRead   Action = "employee:read"
	ActionRoleList       Action = "role:list"

	ActionAdministratorManage Action = "administrator:manage"

	ActionSurveyorCreate Action = "surveyor:create"
	ActionSurveyorRead   Action = "surveyor:read"
	ActionSurveyorUpdate Action = "surveyor:update"
	ActionSurveyorDelete Action = "surveyor:delete"
	ActionSurveyorSelf   Action = "surveyor:self"

	ActionPolicyReadAll    Action = "policy:read-all"
	ActionAssignmentCreate Action = "assignment:create"
	ActionAssignmentWork   Action = "assignment:work"
	ActionReportRead       Action = "report:read"
	ActionReportMerge      Action = "report:merge"
	ActionReportRelease    Action = "report:release"
	ActionSchedulerRun     Action = "scheduler:run"

	ActionPropertyManage Action = "property:manage"
	ActionPolicyManage   Action = "policy:manage"
	ActionReportReadOwn  Action = "report:read-own"
)

// RolePermissions is the single table of what each employee role may do.
var RolePermissions = map[RoleName][]Action{
	RoleSuperAdmin: {
		ActionEmployeeCreate, ActionEmployeeRead, ActionRoleList,
		ActionAdministratorManage,
		ActionSurveyorCreate, ActionSurveyorRead, ActionSurveyorUpdate, ActionSurveyorDelete,
		ActionPolicyReadAll, ActionAssignmentCreate,
		ActionReportRead, ActionReportMerge, ActionReportRelease,
		ActionSchedulerRun,
	},
	RoleAdmin: {
		ActionEmployeeCreate, ActionEmployeeRead, ActionRoleList,
		ActionSurveyorCreate, ActionSurveyorRead, ActionSurveyorUpdate, ActionSurveyorDelete,
		ActionPolicyReadAll, ActionAssignmentCreate,
		ActionReportRead, ActionReportMerge, ActionReportRelease,
		ActionSchedulerRun,
	},
	RoleStaff: {
		ActionEmployeeRead, ActionRoleList,
		ActionSurveyorRead,
		ActionPolicyReadAll, ActionAssignmentCreate,
		ActionReportRead, ActionReportMerge,
	},
	RoleSurveyor: {
		ActionSurveyorSelf, ActionAssignmentWork,
	},
}

// UserPermissions apply to every property owner account.
var UserPermissions = []Action{
	ActionPropertyManage, ActionPolicyManage, ActionReportReadOwn,
}

// CreatableRoles lists, per role, the roles it may grant to a new employee.
var CreatableRoles = map[RoleName][]RoleName{
	RoleSuperAdmin: {RoleSuperAdmin, RoleAdmin, RoleStaff, RoleSurveyor},
	RoleAdmin:      {RoleAdmin, RoleStaff, RoleSurveyor},
	RoleStaff:      {},
	RoleSurveyor:   {},
}
