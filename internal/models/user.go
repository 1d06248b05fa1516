package models

// User is a dashboard account known to the local identity provider.
type User struct {
	Email        string `json:"email" yaml:"email"`
	PasswordHash string `json:"password_hash" yaml:"password_hash"`
}
