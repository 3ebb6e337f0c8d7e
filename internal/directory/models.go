package directory

import "time"

type Company struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex" json:"name"`
	NIT       string    `json:"nit"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductModule is a sellable feature of the platform (e.g. "topo",
// "monitoring"). Access is granted per user through a License.
type ProductModule struct {
	ID   string `gorm:"primaryKey" json:"id"`
	Code string `gorm:"uniqueIndex" json:"code"`
	Name string `json:"name"`
}

type License struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"index" json:"user_id"`
	ModuleID       string    `gorm:"index" json:"module_id"`
	StartDate      time.Time `json:"start_date"`
	ExpirationDate time.Time `json:"expiration_date"`
	Status         string    `gorm:"default:'active'" json:"status"`
}

func (Company) TableName() string       { return "directory.companies" }
func (ProductModule) TableName() string { return "directory.modules" }
func (License) TableName() string       { return "directory.licenses" }
