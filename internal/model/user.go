package model

import (
	"strconv"
	"time"
)

type UserKind string

const (
	Guest      UserKind = "guest"
	Registered UserKind = "registered"
)

func (k UserKind) Valid() bool {
	return k == Guest || k == Registered
}

type User struct {
	BaseModel
	Name     string    `gorm:"size:100;not null" json:"name"`
	Kind     UserKind  `gorm:"size:20;default:'guest'" json:"kind"`
	LastSeen time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// IDString is the form user ids take in paths and request bodies.
func (u *User) IDString() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}
