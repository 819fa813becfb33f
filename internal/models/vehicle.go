package models

import "time"

type Vehicle struct {
	ID                 int       `json:"id"`
	CustomerID         int       `json:"customer_id"`
	RegistrationNumber string    `json:"registration_number"`
	Description        string    `json:"description"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateVehicleRequest represents the request body for creating a vehicle
type CreateVehicleRequest struct {
	CustomerID         int    `json:"customer_id"`
	RegistrationNumber string `json:"registration_number"`
	Description        string `json:"description"`
}

// UpdateVehicleRequest represents the request body for updating a vehicle
type UpdateVehicleRequest struct {
	RegistrationNumber string `json:"registration_number"`
	Description        string `json:"description"`
}
