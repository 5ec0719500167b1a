package models

import "time"

// Farm is the root of every other record.
type Farm struct {
	ID        int       `json:"Id" bson:"Id"`
	Name      string    `json:"name" bson:"name" validate:"notblank"`
	Location  string    `json:"location" bson:"location" validate:"notblank"`
	Size      float64   `json:"size" bson:"size" validate:"gt=0"`
	SizeUnit  SizeUnit  `json:"sizeUnit" bson:"sizeUnit" validate:"oneof=acres hectares sq-ft sq-m"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (f Farm) RecordID() int { return f.ID }

func (f Farm) WithID(id int) Farm {
	f.ID = id
	return f
}

// FarmInput carries the farm form fields. Nil fields are left untouched on update.
type FarmInput struct {
	ID       *FlexInt   `json:"Id,omitempty"`
	Name     *string    `json:"name,omitempty"`
	Location *string    `json:"location,omitempty"`
	Size     *FlexFloat `json:"size,omitempty"`
	SizeUnit *SizeUnit  `json:"sizeUnit,omitempty"`
}

// Build creates a farm stamped with its creation time; the unit defaults to acres.
func (in FarmInput) Build(now time.Time) Farm {
	farm := in.Apply(Farm{SizeUnit: SizeAcres})
	farm.CreatedAt = now.UTC()
	return farm
}

// Apply merges the input over base.
func (in FarmInput) Apply(base Farm) Farm {
	if in.Name != nil {
		base.Name = *in.Name
	}
	if in.Location != nil {
		base.Location = *in.Location
	}
	if in.Size != nil {
		base.Size = float64(*in.Size)
	}
	if in.SizeUnit != nil && *in.SizeUnit != "" {
		base.SizeUnit = *in.SizeUnit
	}
	return base
}
