package models

import (
	"time"
)

type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"categoryName" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
