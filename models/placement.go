// Package models contains domain entities and business models for the inventory reservation engine
package models

import (
	"database/sql/driver"
	"fmt"
)

// PlacementType represents the category of ad slot within an episode
type PlacementType string

const (
	PlacementPreRoll  PlacementType = "pre_roll"
	PlacementMidRoll  PlacementType = "mid_roll"
	PlacementPostRoll PlacementType = "post_roll"
)

// AllPlacementTypes lists every placement type in airing order
var AllPlacementTypes = []PlacementType{
	PlacementPreRoll,
	PlacementMidRoll,
	PlacementPostRoll,
}

// String returns the string representation of the placement type
func (p PlacementType) String() string {
	return string(p)
}

// Valid checks if the placement type is valid
func (p PlacementType) Valid() bool {
	switch p {
	case PlacementPreRoll, PlacementMidRoll, PlacementPostRoll:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PlacementType
func (p *PlacementType) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = PlacementType(v)
	case []byte:
		*p = PlacementType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PlacementType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PlacementType
func (p PlacementType) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid PlacementType: %s", p)
	}
	return string(p), nil
}

// GetDisplayName returns a human-readable placement name
func (p PlacementType) GetDisplayName() string {
	switch p {
	case PlacementPreRoll:
		return "Pre-Roll"
	case PlacementMidRoll:
		return "Mid-Roll"
	case PlacementPostRoll:
		return "Post-Roll"
	default:
		return "Unknown"
	}
}
