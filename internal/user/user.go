package user

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        int    `json:"userId"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// sanitizeUser strips the password hash before a user record leaves the API.
func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
