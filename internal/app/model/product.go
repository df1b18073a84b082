package model

import (
	"time"
)

type ProductCategory string // catalog section
type ProductBrand string    // carried brand

const (
	CategoryMen         ProductCategory = "men"
	CategoryWomen       ProductCategory = "women"
	CategoryAccessories ProductCategory = "accessories"
)

const (
	BrandGuess     ProductBrand = "guess"
	BrandNorthFace ProductBrand = "northface"
	BrandCK        ProductBrand = "ck"
	BrandEA7       ProductBrand = "ea7"
	BrandCoach     ProductBrand = "coach"
	BrandMK        ProductBrand = "mk"
	BrandAE        ProductBrand = "ae"
	BrandVersace   ProductBrand = "versace"
	BrandTommy     ProductBrand = "tommy"
)

var (
	productCategories = map[ProductCategory]string{
		CategoryMen:         "Hombre",
		CategoryWomen:       "Mujer",
		CategoryAccessories: "Accesorios",
	}
	productBrands = map[ProductBrand]string{
		BrandGuess:     "Guess",
		BrandNorthFace: "The North Face",
		BrandCK:        "Calvin Klein",
		BrandEA7:       "Emporio Armani EA7",
		BrandCoach:     "Coach",
		BrandMK:        "Michael Kors",
		BrandAE:        "American Eagle",
		BrandVersace:   "Versace",
		BrandTommy:     "Tommy Hilfiger",
	}
)

func (c ProductCategory) Valid() bool {
	_, ok := productCategories[c]
	return ok
}

// Label is the storefront display name.
func (c ProductCategory) Label() string {
	return productCategories[c]
}

func (b ProductBrand) Valid() bool {
	_, ok := productBrands[b]
	return ok
}

func (b ProductBrand) Label() string {
	return productBrands[b]
}

// ProductCategories lists every category, unordered.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, 0, len(productCategories))
	for c := range productCategories {
		out = append(out, c)
	}
	return out
}

// ProductBrands lists every brand, unordered.
func ProductBrands() []ProductBrand {
	out := make([]ProductBrand, 0, len(productBrands))
	for b := range productBrands {
		out = append(out, b)
	}
	return out
}

type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`                            // product ID
	Name        string          `gorm:"size:200;not null;index" json:"name"`             // product name
	Category    ProductCategory `gorm:"type:varchar(20);not null;index" json:"category"` // men / women / accessories
	Brand       ProductBrand    `gorm:"type:varchar(20);not null;index" json:"brand"`    // brand code
	Price       int64           `gorm:"not null" json:"price"`                           // unit price, whole currency units
	Description string          `gorm:"type:text" json:"description"`                    // long description
	ImageURL    string          `gorm:"type:text" json:"image_url"`                      // garment image, also sent to try-on
	Active      bool            `gorm:"not null;index" json:"active"`                    // false hides it from the catalog
	CreatedAt   time.Time       `json:"created_at"`                                      // created at
	UpdatedAt   time.Time       `json:"updated_at"`                                      // updated at

	Variants []Variant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"` // size/color stock units
}

func (Product) TableName() string {
	return "products"
}

// TotalStock sums stock across loaded variants.
func (p *Product) TotalStock() int {
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}
