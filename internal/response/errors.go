package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrPermissionDenied  ErrCode = "PERMISSION_DENIED"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrInvalidID    ErrCode = "INVALID_ID"
	ErrMissingField ErrCode = "MISSING_FIELD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrExamNotFound   ErrCode = "EXAM_NOT_FOUND"
	ErrAnswerNotFound ErrCode = "ANSWER_NOT_FOUND"

	// ─── Exam-taking ───────────────────────────────────────────────────
	ErrAlreadyStarted ErrCode = "ALREADY_STARTED"
	ErrNotTakingExam  ErrCode = "NOT_TAKING_EXAM"
	ErrTimeUp         ErrCode = "TIME_UP"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrStartFailed  ErrCode = "START_FAILED"
	ErrListFailed   ErrCode = "LIST_FAILED"
	ErrGetFailed    ErrCode = "GET_FAILED"
	ErrSubmitFailed ErrCode = "SUBMIT_FAILED"
	ErrInternal     ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrAdminAccessOnly:
		return "This resource is restricted to staff."

	case ErrInvalidID:
		return "Invalid ID format."
	case ErrMissingField:
		return "Please provide all fields (line_of_code)."

	case ErrExamNotFound:
		return "Exam not found."
	case ErrAnswerNotFound:
		return "Answer not found."

	case ErrAlreadyStarted:
		return "You have already started this exam."
	case ErrNotTakingExam:
		return "Not yet taking the exam."
	case ErrTimeUp:
		return "Sorry! You can no longer submit your exam. The time is up."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrStartFailed:
		return "Failed to create exam."
	case ErrListFailed:
		return "Failed to get all answers."
	case ErrGetFailed:
		return "Failed to get specific answer."
	case ErrSubmitFailed:
		return "Failed to create answer."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
