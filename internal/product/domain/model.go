package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ProductType is the closed set of things an organization can buy. Each value
// has exactly one fulfillment handler.
type ProductType string

const (
	ProductTypeTeamRegistration ProductType = "team_registration"
	ProductTypeTentRental       ProductType = "tent_rental"
	ProductTypeMerchandise      ProductType = "merchandise"
	ProductTypeService          ProductType = "service"
	ProductTypeEquipment        ProductType = "equipment"
	ProductTypeOther            ProductType = "other"
)

var productTypes = []ProductType{
	ProductTypeTeamRegistration,
	ProductTypeTentRental,
	ProductTypeMerchandise,
	ProductTypeService,
	ProductTypeEquipment,
	ProductTypeOther,
}

func ProductTypes() []ProductType {
	out := make([]ProductType, len(productTypes))
	copy(out, productTypes)
	return out
}

func (t ProductType) Valid() bool {
	for _, known := range productTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseProductType accepts stored spellings, including the older
// "company_team" and "tent" codes.
func ParseProductType(raw string) (ProductType, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, "-", "_")
	switch value {
	case "company_team", "team":
		return ProductTypeTeamRegistration, nil
	case "tent":
		return ProductTypeTentRental, nil
	case "services":
		return ProductTypeService, nil
	}
	t := ProductType(value)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidProductType, raw)
	}
	return t, nil
}

type Product struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	EventYearID snowflake.ID      `json:"event_year_id" gorm:"column:event_year_id;not null;index"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	Type        ProductType       `json:"type" gorm:"type:text;not null"`
	PriceAmount int64             `json:"price_amount" gorm:"not null"`
	MaxPerOrg   *int              `json:"max_per_org,omitempty" gorm:"column:max_per_org"`
	Active      bool              `json:"active" gorm:"not null;default:true"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (Product) TableName() string { return "products" }
