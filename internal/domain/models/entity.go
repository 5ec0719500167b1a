package models

import "time"

// Entity is implemented by every stored record type. T is the record type
// itself so stores can stamp identifiers without reflection.
type Entity[T any] interface {
	RecordID() int
	WithID(id int) T
}

// Input is a partial record coming from a form or an API call. Build produces a
// brand new record (without Id); Apply merges the set fields over base and
// never touches base's Id.
type Input[T any] interface {
	Build(now time.Time) T
	Apply(base T) T
}

// FarmOwned is implemented by records carrying a farm foreign key.
type FarmOwned interface {
	FarmRef() int
}

// LedgerEntry is the shape shared by money movements (expenses and income).
type LedgerEntry interface {
	LedgerAmount() float64
	LedgerCategory() string
	LedgerDate() Date
	LedgerFarm() int
	LedgerLabel() string
}

// optionalRef converts a form foreign key into a nullable one: zero clears it.
func optionalRef(v *FlexInt) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	id := int(*v)
	return &id
}

func cloneRef(v *int) *int {
	if v == nil {
		return nil
	}
	id := *v
	return &id
}

func refValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
