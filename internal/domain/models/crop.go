package models

import "time"

// Crop is a planting on one farm.
type Crop struct {
	ID                  int        `json:"Id" bson:"Id"`
	FarmID              int        `json:"farmId" bson:"farmId" validate:"gt=0"`
	Name                string     `json:"name" bson:"name" validate:"notblank"`
	Variety             string     `json:"variety" bson:"variety" validate:"notblank"`
	FieldLocation       string     `json:"fieldLocation" bson:"fieldLocation" validate:"notblank"`
	PlantingDate        Date       `json:"plantingDate" bson:"plantingDate" validate:"required"`
	ExpectedHarvestDate Date       `json:"expectedHarvestDate" bson:"expectedHarvestDate" validate:"required"`
	Status              CropStatus `json:"status" bson:"status" validate:"oneof=planted growing mature ready harvested"`
}

func (c Crop) RecordID() int { return c.ID }

func (c Crop) WithID(id int) Crop {
	c.ID = id
	return c
}

func (c Crop) FarmRef() int { return c.FarmID }

// Label renders "{name} - {variety}" as shown next to tasks.
func (c Crop) Label() string {
	return c.Name + " - " + c.Variety
}

// CropInput carries the crop form fields.
type CropInput struct {
	ID                  *FlexInt    `json:"Id,omitempty"`
	FarmID              *FlexInt    `json:"farmId,omitempty"`
	Name                *string     `json:"name,omitempty"`
	Variety             *string     `json:"variety,omitempty"`
	FieldLocation       *string     `json:"fieldLocation,omitempty"`
	PlantingDate        *Date       `json:"plantingDate,omitempty"`
	ExpectedHarvestDate *Date       `json:"expectedHarvestDate,omitempty"`
	Status              *CropStatus `json:"status,omitempty"`
}

// Build creates a crop; status defaults to planted.
func (in CropInput) Build(time.Time) Crop {
	return in.Apply(Crop{Status: CropPlanted})
}

// Apply merges the input over base.
func (in CropInput) Apply(base Crop) Crop {
	if in.FarmID != nil && *in.FarmID != 0 {
		base.FarmID = int(*in.FarmID)
	}
	if in.Name != nil {
		base.Name = *in.Name
	}
	if in.Variety != nil {
		base.Variety = *in.Variety
	}
	if in.FieldLocation != nil {
		base.FieldLocation = *in.FieldLocation
	}
	if in.PlantingDate != nil {
		base.PlantingDate = *in.PlantingDate
	}
	if in.ExpectedHarvestDate != nil {
		base.ExpectedHarvestDate = *in.ExpectedHarvestDate
	}
	if in.Status != nil && *in.Status != "" {
		base.Status = *in.Status
	}
	return base
}
