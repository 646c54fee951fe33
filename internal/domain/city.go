// Package domain contains the core data types for the WorldWise client.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (remote, store, geocode, form, server).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Position is a geographic coordinate pair (WGS 84).
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// City represents one visited place as stored by the remote city service.
// The ID is assigned server-side on create; a City in hand always has one.
type City struct {
	ID       uuid.UUID `json:"id"`
	CityName string    `json:"cityName"`
	Country  string    `json:"country"`
	Emoji    string    `json:"emoji"`
	Date     time.Time `json:"date"`
	Notes    string    `json:"notes,omitempty"`
	Position Position  `json:"position"`
}

// CityDraft is the input to a create: a City before the server has assigned
// an ID. CityName and Position are required; the validate tags are enforced
// by the form before submission and by the store as a backstop.
type CityDraft struct {
	CityName string    `json:"cityName" validate:"required"`
	Country  string    `json:"country"`
	Emoji    string    `json:"emoji"`
	Date     time.Time `json:"date"`
	Notes    string    `json:"notes,omitempty"`
	Position *Position `json:"position" validate:"required"`
}
