package audit

import "time"

// Actions recorded against the append-only audit log.
const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionLogin    = "LOGIN"
	ActionLogout   = "LOGOUT"
	ActionRegister = "REGISTER"
)

// ResourceAuth tags auth-flow entries; content kinds supply their own tag.
const (
	ResourceAuth    = "AUTH"
	ResourceProfile = "PROFILE"
)

type Entry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	Changes    any       `json:"changes,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// QueryFilter narrows an admin audit listing.
type QueryFilter struct {
	Resource string
	Action   string
	Limit    int
	Skip     int
}
