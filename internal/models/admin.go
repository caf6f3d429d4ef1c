package models

// Admin est l'unique rôle d'administration du catalogue.
type Admin struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
