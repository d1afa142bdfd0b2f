package domain

// PendingUser is the full candidate profile carried inside an activation
// token. Sign-up never writes to the store; the token is the only place this
// state lives until activation. The password arrives here already hashed.
type PendingUser struct {
	PersonalID   string `json:"personal_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	Address      string `json:"address"`
	PhoneNumber  string `json:"phone_number"`
}
