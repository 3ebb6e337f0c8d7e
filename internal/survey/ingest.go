package survey

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/GeoControl/GC-Backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BaselineCampaignName is the fixed label of the campaign created for the
// earliest date group of a project's very first upload. Baseline status is
// decided once, while the project is empty; it is never reassigned even if
// a later upload contributes an earlier date.
const BaselineCampaignName = "Línea Base"

func readingCampaignName(date string) string {
	return "Lectura " + date
}

// Summary is the outcome of one ingestion run.
type Summary struct {
	Count          int      `json:"count"`
	Campaigns      int      `json:"campaigns"`
	DatesProcessed []string `json:"dates_processed"`
	DatesDefaulted int      `json:"dates_defaulted"`
	RowsSkipped    int      `json:"rows_skipped"`
}

// Ingestor reconciles uploaded readings into campaigns and measurements.
// All campaign/measurement mutation during an upload goes through it.
type Ingestor struct {
	db  *gorm.DB
	now func() time.Time
}

func NewIngestor(gdb *gorm.DB) *Ingestor {
	return &Ingestor{db: gdb, now: time.Now}
}

// Run drives parse → group → resolve → replace over one upload, groups in
// ascending date order. A storage failure aborts the run; groups committed
// before the failure stay committed.
func (ing *Ingestor) Run(projectID string, r io.Reader) (Summary, error) {
	summary := Summary{DatesProcessed: []string{}}

	readings, stats, err := ParseReadings(r)
	if err != nil {
		return summary, fmt.Errorf("read upload: %w", err)
	}
	summary.RowsSkipped = stats.Skipped

	groups, defaulted := GroupByDate(readings, ing.now())
	summary.DatesDefaulted = defaulted

	var existing int64
	if err := ing.db.Model(&Campaign{}).Where("project_id = ?", projectID).Count(&existing).Error; err != nil {
		return summary, fmt.Errorf("count campaigns: %w", err)
	}
	projectWasEmpty := existing == 0

	for i, group := range groups {
		name := readingCampaignName(group.Date)
		if projectWasEmpty && i == 0 {
			name = BaselineCampaignName
		}

		campaign, created, err := ing.resolveCampaign(projectID, name, group.Date)
		if err != nil {
			return summary, err
		}
		if created {
			summary.Campaigns++
		}

		for _, reading := range group.Readings {
			if err := ing.replaceMeasurement(projectID, campaign.ID, group.Date, reading); err != nil {
				return summary, err
			}
			summary.Count++
		}

		summary.DatesProcessed = append(summary.DatesProcessed, group.Date)
	}

	return summary, nil
}

var errBaselineTaken = errors.New("baseline already assigned")

// resolveCampaign maps a date group onto an existing or new campaign.
// Reuse order: exact (project, name) match, then the baseline campaign when
// its epoch date matches the group (so re-uploading the original file stays
// idempotent even though the project is no longer empty). Creation runs in
// a transaction; a unique violation on (project_id, name) means a
// concurrent upload won the race, so the loop re-fetches instead of
// failing. The in-transaction emptiness re-check keeps two concurrent
// first uploads with distinct dates from both claiming the baseline label.
func (ing *Ingestor) resolveCampaign(projectID, name, date string) (Campaign, bool, error) {
	epoch, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Campaign{}, false, fmt.Errorf("bad canonical date %q: %w", date, err)
	}

	for attempt := 0; attempt < 5; attempt++ {
		var existing Campaign
		err := ing.db.First(&existing, "project_id = ? AND name = ?", projectID, name).Error
		if err == nil {
			if name == BaselineCampaignName && existing.CreatedAt.UTC().Format("2006-01-02") != date {
				// A concurrent upload claimed the baseline for another
				// epoch; this group becomes a regular reading campaign.
				name = readingCampaignName(date)
				continue
			}
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Campaign{}, false, fmt.Errorf("find campaign: %w", err)
		}

		if name != BaselineCampaignName {
			var baseline Campaign
			err := ing.db.First(&baseline, "project_id = ? AND name = ?", projectID, BaselineCampaignName).Error
			if err == nil && baseline.CreatedAt.UTC().Format("2006-01-02") == date {
				return baseline, false, nil
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return Campaign{}, false, fmt.Errorf("find baseline: %w", err)
			}
		}

		campaign := Campaign{
			ID:        utils.GenerateUUID(),
			ProjectID: projectID,
			Name:      name,
			Status:    "open",
			CreatedAt: epoch,
		}

		err = ing.db.Transaction(func(tx *gorm.DB) error {
			if name == BaselineCampaignName {
				var n int64
				if err := tx.Model(&Campaign{}).Where("project_id = ?", projectID).Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					return errBaselineTaken
				}
			}
			return tx.Create(&campaign).Error
		})
		if err == nil {
			return campaign, true, nil
		}
		if errors.Is(err, errBaselineTaken) {
			name = readingCampaignName(date)
			continue
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the create race; next iteration reuses the winner's row.
			continue
		}
		return Campaign{}, false, fmt.Errorf("create campaign %q: %w", name, err)
	}

	return Campaign{}, false, fmt.Errorf("campaign %q for project %s: retries exhausted", name, projectID)
}

// replaceMeasurement writes a point's reading for a campaign as one
// conditional replace, so a concurrent reader never observes the point
// missing. The timestamp is the epoch date at midday UTC to keep readings
// clear of timezone boundaries.
func (ing *Ingestor) replaceMeasurement(projectID, campaignID, date string, reading Reading) error {
	epoch, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("bad canonical date %q: %w", date, err)
	}

	m := Measurement{
		ID:         utils.GenerateUUID(),
		ProjectID:  projectID,
		CampaignID: campaignID,
		PointID:    reading.PointID,
		North:      reading.North,
		East:       reading.East,
		Elevation:  reading.Elevation,
		CreatedAt:  epoch.Add(12 * time.Hour),
	}

	err = ing.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "point_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"north", "east", "elevation", "created_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("replace measurement %s/%s: %w", campaignID, reading.PointID, err)
	}
	return nil
}
