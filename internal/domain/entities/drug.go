package entities

import (
	"time"
)

// DrugCategory classifies a pharmacy item
type DrugCategory string

const (
	DrugCategoryAnalgesic        DrugCategory = "analgesic"
	DrugCategoryAntibiotic       DrugCategory = "antibiotic"
	DrugCategoryAntiInflammatory DrugCategory = "anti_inflammatory"
	DrugCategoryAntiparasitic    DrugCategory = "antiparasitic"
	DrugCategoryVaccine          DrugCategory = "vaccine"
	DrugCategoryVitamin          DrugCategory = "vitamin"
	DrugCategorySupplement       DrugCategory = "supplement"
	DrugCategoryAntiseptic       DrugCategory = "antiseptic"
	DrugCategorySedative         DrugCategory = "sedative"
	DrugCategoryAnesthetic       DrugCategory = "anesthetic"
	DrugCategoryCardiovascular   DrugCategory = "cardiovascular"
	DrugCategoryDermatological   DrugCategory = "dermatological"
	DrugCategoryDigestive        DrugCategory = "digestive"
	DrugCategoryRespiratory      DrugCategory = "respiratory"
	DrugCategoryOphthalmic       DrugCategory = "ophthalmic"
	DrugCategoryOther            DrugCategory = "other"
)

// Valid reports whether the category is a known value
func (c DrugCategory) Valid() bool {
	switch c {
	case DrugCategoryAnalgesic, DrugCategoryAntibiotic, DrugCategoryAntiInflammatory,
		DrugCategoryAntiparasitic, DrugCategoryVaccine, DrugCategoryVitamin,
		DrugCategorySupplement, DrugCategoryAntiseptic, DrugCategorySedative,
		DrugCategoryAnesthetic, DrugCategoryCardiovascular, DrugCategoryDermatological,
		DrugCategoryDigestive, DrugCategoryRespiratory, DrugCategoryOphthalmic,
		DrugCategoryOther:
		return true
	}
	return false
}

// Drug represents a pharmacy item owned by one branch. Stock is the
// committed on-hand quantity and never goes negative. Name is unique
// within a branch.
type Drug struct {
	ID          string       `json:"id" db:"id"`
	BranchID    string       `json:"branch_id" db:"branch_id"`
	Name        string       `json:"name" db:"name"`
	Category    DrugCategory `json:"category" db:"category"`
	Description string       `json:"description" db:"description"`
	Stock       int          `json:"stock" db:"stock"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}
