package model

// Permission codes carried in admin tokens.
const (
	// PermissionAnswersRead allows viewing submitted answers and monitoring exams.
	PermissionAnswersRead = "answers:read"
)
