package errors

var (
	ErrPropertyNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "PROPERTY_NOT_FOUND",
		Message: "property not found",
	}
	ErrCategoryNotFound = &DomainError{
		Kind:    KindBadRequest,
		Code:    "CATEGORY_NOT_FOUND",
		Message: "unknown property category",
	}
	ErrPolicyNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "POLICY_NOT_FOUND",
		Message: "policy request not found",
	}
	ErrPolicyState = &DomainError{
		Kind:    KindBadRequest,
		Code:    "POLICY_STATE",
		Message: "policy request is not in a state that allows this action",
	}
	ErrEmployeeNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "EMPLOYEE_NOT_FOUND",
		Message: "employee not found",
	}
	ErrSurveyorNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "SURVEYOR_NOT_FOUND",
		Message: "surveyor not found",
	}
	ErrSurveyorUnavailable = &DomainError{
		Kind:    KindBadRequest,
		Code:    "SURVEYOR_UNAVAILABLE",
		Message: "surveyor is inactive or unavailable",
	}
	ErrSameOrganization = &DomainError{
		Kind:    KindBadRequest,
		Code:    "SAME_ORGANIZATION",
		Message: "dual assignment requires surveyors from different organizations",
	}
	ErrAssignmentNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ASSIGNMENT_NOT_FOUND",
		Message: "assignment not found",
	}
	ErrAssignmentState = &DomainError{
		Kind:    KindBadRequest,
		Code:    "ASSIGNMENT_STATE",
		Message: "assignment is not in a state that allows this action",
	}
	ErrReportsIncomplete = &DomainError{
		Kind:    KindBadRequest,
		Code:    "REPORTS_INCOMPLETE",
		Message: "both surveyor reports must be submitted before merging",
	}
	ErrReportNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "REPORT_NOT_FOUND",
		Message: "report not found",
	}
	ErrSelfModification = &DomainError{
		Kind:    KindBadRequest,
		Code:    "SELF_MODIFICATION",
		Message: "you cannot change your own account this way",
	}
)
