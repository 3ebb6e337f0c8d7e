package survey

import (
	"time"

	"github.com/lib/pq"
)

type Project struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Name       string    `json:"name"`
	ClientName string    `json:"client_name"`
	LogoURL    string    `json:"logo_url"`
	CompanyID  string    `gorm:"index" json:"company_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Campaign is one survey epoch of a project. CreatedAt carries the calendar
// date of the epoch (midnight UTC), not the upload time; chronological
// ordering of campaigns relies on it. The (project_id, name) unique index
// is what keeps re-uploads and concurrent uploads from duplicating epochs.
type Campaign struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ProjectID string    `gorm:"uniqueIndex:idx_campaigns_project_name" json:"project_id"`
	Name      string    `gorm:"uniqueIndex:idx_campaigns_project_name" json:"name"`
	Status    string    `gorm:"default:'open'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Measurement is the persisted reading of one point within one campaign.
// At most one row per (campaign_id, point_id) exists; a re-upload replaces
// the row wholesale.
type Measurement struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	ProjectID  string         `gorm:"index" json:"project_id"`
	CampaignID string         `gorm:"uniqueIndex:idx_measurements_campaign_point" json:"campaign_id"`
	PointID    string         `gorm:"uniqueIndex:idx_measurements_campaign_point" json:"point_id"`
	North      float64        `json:"north"`
	East       float64        `json:"east"`
	Elevation  float64        `json:"elevation"`
	Photos     pq.StringArray `gorm:"type:text[]" json:"photos"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (Project) TableName() string     { return "survey.projects" }
func (Campaign) TableName() string    { return "survey.campaigns" }
func (Measurement) TableName() string { return "survey.measurements" }
