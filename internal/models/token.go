package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager on signin or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Session is what user gets on successful signin
// User is sanitized
type Session struct {
	User   User
	Tokens TokenPair
}
