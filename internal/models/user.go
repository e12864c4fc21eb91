package models

import "time"

// Auth providers accepted for a User.
const (
	ProviderGoogle = "google"
	ProviderPhone  = "phone"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account created on first successful login via either the
// Google or the phone flow. EmailOrPhone is the unique login key and is
// always populated regardless of provider.
type User struct {
	UserID         string    `bson:"user_id" json:"user_id"`
	Name           string    `bson:"name" json:"name"`
	Email          string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone          string    `bson:"phone,omitempty" json:"phone,omitempty"`
	EmailOrPhone   string    `bson:"email_or_phone" json:"email_or_phone"`
	AuthProvider   string    `bson:"auth_provider" json:"auth_provider"`
	GoogleID       string    `bson:"google_id,omitempty" json:"google_id,omitempty"`
	ProfilePicture string    `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`
	Role           string    `bson:"role" json:"role"`
	Language       string    `bson:"language" json:"language"`
	VoiceEnabled   bool      `bson:"voice_enabled" json:"voice_enabled"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// PublicUser is the minimal projection returned by the login endpoints.
type PublicUser struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	EmailOrPhone string `json:"email_or_phone"`
	Role         string `json:"role"`
}

// Public returns the login projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:       u.UserID,
		Name:         u.Name,
		EmailOrPhone: u.EmailOrPhone,
		Role:         u.Role,
	}
}
