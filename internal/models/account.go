package models

// Account is the identity record owned by the remote identity and profile
// services. It is separate from User, which tracks local progression.
type Account struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	Experience int    `json:"experience"`
	CreatedAt  string `json:"created_at,omitempty"`
}
