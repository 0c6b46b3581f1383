package entities

import "equipment-tracker/pkg/types"

type Branch struct {
	ID      uint64  `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Address *string `json:"address" db:"address"`

	types.BaseEntity
}
