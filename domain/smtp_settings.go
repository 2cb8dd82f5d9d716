package domain

import "time"

// SMTPSettings holds a user's Elastic Email backed SMTP configuration.
// The password is the SMTP credential minted through the Elastic Email API,
// not the account API key.
type SMTPSettings struct {
	ID          string    `bson:"_id"                   json:"id"`
	UserID      string    `bson:"user_id"               json:"user_id"`
	APIKey      string    `bson:"elastic_email_api_key" json:"-"`
	Username    string    `bson:"smtp_username"         json:"username"`
	Password    string    `bson:"smtp_password"         json:"-"`
	Server      string    `bson:"smtp_server"           json:"server"`
	Port        int       `bson:"smtp_port"             json:"port"`
	TLSEnabled  bool      `bson:"smtp_tls_enabled"      json:"tls_enabled"`
	SenderEmail string    `bson:"sender_email"          json:"sender_email"`
	SenderName  string    `bson:"sender_name,omitempty" json:"sender_name,omitempty"`
	IsDefault   bool      `bson:"is_default"            json:"is_default"`
	CreatedAt   time.Time `bson:"created_at"            json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"            json:"updated_at"`
}
