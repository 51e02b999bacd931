package domain

import "time"

const (
	PropertyAvailable = "available"
	PropertyBooked    = "booked"
)

// Property is a rentable listing document. The nested sections mirror the
// document shape stored in the properties table.
type Property struct {
	PropertyID  string         `json:"id" dynamodbav:"property_id"`
	Info        PropertyInfo   `json:"info" dynamodbav:"info"`
	Price       PropertyPrice  `json:"price" dynamodbav:"price"`
	Media       PropertyMedia  `json:"media" dynamodbav:"media"`
	Rules       PropertyRules  `json:"rules" dynamodbav:"rules"`
	Contact     PropertyContact `json:"contact" dynamodbav:"contact"`
	Rating      PropertyRating `json:"rating" dynamodbav:"rating"`
	Amenities   []string       `json:"amenities" dynamodbav:"amenities"`
	Description string         `json:"description" dynamodbav:"description"`
	Status      string         `json:"status" dynamodbav:"status"` // "available" | "booked"
	CreatedAt   time.Time      `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time      `json:"updated" dynamodbav:"updated_at"`
}

type PropertyInfo struct {
	Title          string `json:"title" dynamodbav:"title"`
	Location       string `json:"location" dynamodbav:"location"`
	Type           string `json:"type" dynamodbav:"type"` // "PG" | "Room" | "Flat"
	GoogleMapsLink string `json:"google_maps_link,omitempty" dynamodbav:"google_maps_link"`
	PostalAddress  string `json:"postal_address,omitempty" dynamodbav:"postal_address"`
}

type PropertyPrice struct {
	Amount       int `json:"amount" dynamodbav:"amount"`
	MarketAmount int `json:"market_amount" dynamodbav:"market_amount"`
}

type PropertyMedia struct {
	Thumbnail string   `json:"thumbnail" dynamodbav:"thumbnail"`
	Gallery   []string `json:"gallery" dynamodbav:"gallery"`
}

type PropertyRules struct {
	TenantType string `json:"tenant_type" dynamodbav:"tenant_type"`
	Capacity   int    `json:"capacity" dynamodbav:"capacity"`
	TotalUnits int    `json:"total_units" dynamodbav:"total_units"`
	// AvailableUnits is the flat counter; AvailableRoomNumbers, when present,
	// is the authoritative per-room list and its length wins.
	AvailableUnits       int      `json:"available_units" dynamodbav:"available_units"`
	AvailableRoomNumbers []int    `json:"available_room_numbers,omitempty" dynamodbav:"available_room_numbers"`
	Restrictions         []string `json:"restrictions" dynamodbav:"restrictions"`
}

type PropertyContact struct {
	Phone string `json:"phone" dynamodbav:"phone"`
}

type PropertyRating struct {
	Average float64 `json:"average" dynamodbav:"average"`
	Count   int     `json:"count" dynamodbav:"count"`
}

// AvailableCount returns how many units are actually open. The room-number
// list takes precedence over the flat counter when it is non-empty.
func (p *Property) AvailableCount() int {
	if len(p.Rules.AvailableRoomNumbers) > 0 {
		return len(p.Rules.AvailableRoomNumbers)
	}
	return p.Rules.AvailableUnits
}

// SoldOut reports whether the listing should render as unavailable.
func (p *Property) SoldOut() bool {
	return p.Status == PropertyBooked || p.AvailableCount() == 0
}
