package models

import "time"

type User struct {
	ID                        uint
	Email                     string
	FirstName                 string
	LastName                  string
	Password                  string
	MigratedFrom              *string
	MigratedAt                *time.Time
	NeedsEvidenceResubmission bool
	CreatedAt                 time.Time
}

type School struct {
	ID             string
	Name           string
	NormalizedName string
	Country        string
	Stage          int
	CreatedAt      time.Time
}

type Membership struct {
	ID        uint
	UserID    uint
	SchoolID  string
	Role      string
	CreatedAt time.Time
}

type Evidence struct {
	ID          string
	SchoolID    string
	SubmittedBy uint
	Stage       int
	Title       string
	Status      string
	CreatedAt   time.Time
}
