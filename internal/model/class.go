package model

// Classroom represents a school class group an exam is assigned to.
type Classroom struct {
	ID          int    `json:"id"`
	GradeLevel  string `json:"grade_level"`
	MajorCode   string `json:"major_code"`
	GroupNumber int    `json:"group_number"`
}
