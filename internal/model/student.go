package model

// Student represents a student user. Accounts are managed elsewhere; this
// service only reads them to enrich answers.
type Student struct {
	ID      int    `json:"id"`
	NISN    string `json:"nisn"`
	Name    string `json:"name"`
	ClassID *int   `json:"class_id"`
}
