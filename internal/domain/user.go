package domain

// User is an account hosted by this repository. Password holds a bcrypt hash.
type User struct {
	Did            string `json:"did"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"-"`
	CreatedAt      string `json:"createdAt"`
	LastSeenNotifs string `json:"lastSeenNotifs"`
}

type RegisterUserInput struct {
	Did      string
	Username string
	Email    string
	Password string
}
