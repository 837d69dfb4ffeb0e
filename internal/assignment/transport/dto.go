package transport

type AdvisorRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=100" yaml:"name"`
	Active  bool   `json:"active" yaml:"active"`
	Phone   string `json:"phone" validate:"max=40" yaml:"phone"`
	Email   string `json:"email" validate:"omitempty,email,max=254" yaml:"email"`
	Session string `json:"session" validate:"max=100" yaml:"session"`
}

// UpdateSettingsRequest replaces the assignment settings. Strategy is
// rejected here rather than coerced.
type UpdateSettingsRequest struct {
	Strategy          string           `json:"strategy" validate:"omitempty,oneof=sequential" yaml:"strategy"`
	Advisors          []AdvisorRequest `json:"advisors" validate:"omitempty,dive" yaml:"advisors"`
	LastAssignedIndex *int             `json:"lastAssignedIndex,omitempty" yaml:"lastAssignedIndex"`
}
