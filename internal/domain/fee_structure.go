package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStructure is the priced catalog of charges for one level, academic year and term.
type FeeStructure struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	Name         string              `json:"name" db:"name"`
	Level        string              `json:"level" db:"level"`
	AcademicYear string              `json:"academic_year" db:"academic_year"`
	Term         string              `json:"term" db:"term"`
	IsActive     bool                `json:"is_active" db:"is_active"`
	Items        []*FeeStructureItem `json:"items" db:"-"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// FeeStructureItem is one priced line of a structure.
type FeeStructureItem struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	FeeStructureID uuid.UUID       `json:"fee_structure_id" db:"fee_structure_id"`
	Category       string          `json:"category" db:"category"`
	Description    string          `json:"description" db:"description"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	IsMandatory    bool            `json:"is_mandatory" db:"is_mandatory"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// StructureTotals partitions the active items of a structure by the mandatory flag.
type StructureTotals struct {
	Mandatory decimal.Decimal `json:"total_mandatory_fees"`
	Optional  decimal.Decimal `json:"total_optional_fees"`
	Total     decimal.Decimal `json:"total_fees"`
}

// TotalForStructure sums the active items of a structure. Inactive items are ignored
// and the result does not depend on item order.
func TotalForStructure(structure *FeeStructure) StructureTotals {
	totals := StructureTotals{
		Mandatory: decimal.Zero,
		Optional:  decimal.Zero,
	}
	if structure == nil {
		totals.Total = decimal.Zero
		return totals
	}

	for _, item := range structure.ActiveItems() {
		if item.IsMandatory {
			totals.Mandatory = totals.Mandatory.Add(item.Amount)
		} else {
			totals.Optional = totals.Optional.Add(item.Amount)
		}
	}
	totals.Total = totals.Mandatory.Add(totals.Optional)

	return totals
}

// ActiveItems returns the items that still contribute to the totals
func (s *FeeStructure) ActiveItems() []*FeeStructureItem {
	items := make([]*FeeStructureItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item != nil && item.IsActive {
			items = append(items, item)
		}
	}
	return items
}

// DTOs for requests

type FeeItemRequest struct {
	Category    string          `json:"category" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=255"`
	Amount      decimal.Decimal `json:"amount" validate:"decimal_gt=0,decimal_scale=2"`
	IsMandatory bool            `json:"is_mandatory"`
}

type CreateStructureRequest struct {
	Name         string           `json:"name" validate:"required,max=150"`
	Level        string           `json:"level" validate:"required,max=50"`
	AcademicYear string           `json:"academic_year" validate:"required,max=20"`
	Term         string           `json:"term" validate:"required,max=20"`
	Items        []FeeItemRequest `json:"items" validate:"dive"`
}

type StructureFilter struct {
	Level        string
	AcademicYear string
	Term         string
}
