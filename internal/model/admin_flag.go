package model

// AdminFlag identifiers stored in admin_flags.id.
const (
	FlagDisableOrganizations = "disable-organizations"
)
