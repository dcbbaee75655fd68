package model

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
)

// User is a dashboard account holder. Its row id doubles as the creator
// identity: CreatorID() is what videos and credentials are keyed by.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	UserName  string    `json:"user_name"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) CreatorID() string { return strconv.Itoa(u.ID) }

// UserClaims are the JWT claims issued at login. Issuer carries the creator id.
type UserClaims struct {
	jwt.StandardClaims
	UserName string `json:"user_name"`
}

type ReqLogin struct {
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ReqRegister struct {
	Name     string `json:"name" binding:"required"`
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}
