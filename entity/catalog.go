package entity

import "time"

// City is a reference catalog entry users pick during registration.
type City struct {
	ID     string `json:"id" bson:"_id,omitempty"`
	Name   string `json:"name" bson:"name"`
	Active bool   `json:"active" bson:"active"`
}

// Institution is an optional per-city catalog entry.
type Institution struct {
	ID     string `json:"id" bson:"_id,omitempty"`
	Name   string `json:"name" bson:"name"`
	CityID string `json:"city_id" bson:"city_id"`
	Active bool   `json:"active" bson:"active"`
}

// Position is a job position catalog entry. Only active public entries
// are shown during registration.
type Position struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Title         string    `json:"title" bson:"title"`
	Category      string    `json:"category" bson:"category"`
	InstitutionID string    `json:"institution_id,omitempty" bson:"institution_id,omitempty"`
	Active        bool      `json:"active" bson:"active"`
	Public        bool      `json:"public" bson:"public"`
	CreatedBy     string    `json:"created_by" bson:"created_by"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// DefaultPositionCategory is assigned to positions created from an
// approved position request.
const DefaultPositionCategory = "Інше"
