package model

import "time"

type OrganizationType string

const (
	OrganizationTypeCommunity OrganizationType = "Community"
	OrganizationTypeCompany   OrganizationType = "Company"
)

func (t OrganizationType) Valid() bool {
	return t == OrganizationTypeCommunity || t == OrganizationTypeCompany
}

type Organization struct {
	ID          string           `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	DisplayName string           `json:"display_name" db:"display_name"`
	OrgType     OrganizationType `json:"orgtype" db:"orgtype"`
	IsActive    bool             `json:"is_active" db:"is_active"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
