package domain

// User is the account record the backend returns at login. The client never
// mutates it; it only needs the service id to load the associated service.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	ServiceID int    `json:"service_id"`
}
