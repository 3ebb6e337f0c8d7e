package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GeoControl/GC-Backend/internal/auth"
	"github.com/GeoControl/GC-Backend/internal/db"
	"github.com/GeoControl/GC-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// UploadCSVHandler ingests a batch of point readings for a project. The
// multipart field is csv_file; the response carries the run summary.
func UploadCSVHandler(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	file, _, err := r.FormFile("csv_file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	summary, err := ingestor.Run(projectID, file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"count":           summary.Count,
		"campaigns":       summary.Campaigns,
		"dates_processed": summary.DatesProcessed,
		"dates_defaulted": summary.DatesDefaulted,
		"rows_skipped":    summary.RowsSkipped,
	})
}

// UploadPointHandler captures a single field reading, optionally with a
// photo. The photo lands under <uploads>/<YYYY-MM-DD>/<ts>_<point>.jpg and
// its path is appended to the measurement's photo list.
func UploadPointHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	projectID := r.FormValue("project_id")
	campaignID := r.FormValue("campaign_id")
	pointID := strings.TrimSpace(r.FormValue("point_id"))
	if projectID == "" || campaignID == "" || pointID == "" {
		respondError(w, http.StatusBadRequest, "project_id, campaign_id and point_id are required")
		return
	}

	north, errN := strconv.ParseFloat(r.FormValue("north"), 64)
	east, errE := strconv.ParseFloat(r.FormValue("east"), 64)
	if errN != nil || errE != nil {
		respondError(w, http.StatusBadRequest, "north and east must be numeric")
		return
	}
	elevation, _ := strconv.ParseFloat(r.FormValue("elevation"), 64)

	var photoPath string
	if photo, header, err := r.FormFile("photo"); err == nil {
		defer photo.Close()
		photoPath, err = savePhoto(photo, header.Size, pointID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to store photo: "+err.Error())
			return
		}
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var m Measurement
		err := tx.First(&m, "campaign_id = ? AND point_id = ?", campaignID, pointID).Error
		if err == nil {
			updates := map[string]any{"north": north, "east": east, "elevation": elevation, "created_at": time.Now()}
			if photoPath != "" {
				updates["photos"] = append(m.Photos, photoPath)
			}
			return tx.Model(&m).Updates(updates).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		m = Measurement{
			ID:         utils.GenerateUUID(),
			ProjectID:  projectID,
			CampaignID: campaignID,
			PointID:    pointID,
			North:      north,
			East:       east,
			Elevation:  elevation,
			CreatedAt:  time.Now(),
		}
		if photoPath != "" {
			m.Photos = append(m.Photos, photoPath)
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func savePhoto(photo io.Reader, size int64, pointID string) (string, error) {
	if size == 0 {
		return "", nil
	}

	dateFolder := time.Now().Format("2006-01-02")
	dir := filepath.Join(uploadsDir, dateFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%d_%s.jpg", time.Now().UnixMilli(), strings.ReplaceAll(pointID, " ", ""))
	dst, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, photo); err != nil {
		return "", err
	}
	return "/uploads/" + dateFolder + "/" + fileName, nil
}

// ListProjectsHandler returns the projects visible to the session user:
// everything for admins, the user's company otherwise.
func ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var user auth.User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	query := db.DB.Order("created_at DESC")
	if user.Role != "admin" {
		query = query.Where("company_id = ?", user.CompanyID)
	}

	var projects []Project
	if err := query.Find(&projects).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch projects: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "projects": projects})
}

func CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var input struct {
		Name       string `json:"name"`
		ClientName string `json:"client_name"`
		LogoURL    string `json:"logo_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	// New projects belong to the creator's company
	var user auth.User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "User not found")
		return
	}

	project := Project{
		ID:         utils.GenerateUUID(),
		Name:       input.Name,
		ClientName: input.ClientName,
		LogoURL:    input.LogoURL,
		CompanyID:  user.CompanyID,
	}
	if err := db.DB.Create(&project).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create project: "+err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"status": "success", "id": project.ID})
}

func UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	var input struct {
		Name       string `json:"name"`
		ClientName string `json:"client_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := db.DB.Model(&Project{}).Where("id = ?", projectID).
		Updates(map[string]any{"name": input.Name, "client_name": input.ClientName}).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update project: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	if err := db.DB.Delete(&Project{}, "id = ?", projectID).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete project: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// GetCampaignsHandler lists a project's campaigns oldest first, so the
// baseline leads and displacement math downstream reads naturally.
// ?status=open narrows to active campaigns for the field app.
func GetCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	query := db.DB.Where("project_id = ?", projectID).Order("created_at ASC")
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var campaigns []Campaign
	if err := query.Find(&campaigns).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch campaigns: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "campaigns": campaigns})
}

// CreateCampaignHandler creates a manually named campaign. Uploads resolve
// their own campaigns; this exists for office-side corrections.
func CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProjectID string `json:"project_id"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.ProjectID == "" || input.Name == "" {
		respondError(w, http.StatusBadRequest, "project_id and name are required")
		return
	}

	campaign := Campaign{
		ID:        utils.GenerateUUID(),
		ProjectID: input.ProjectID,
		Name:      input.Name,
		Status:    "open",
		CreatedAt: time.Now(),
	}
	if err := db.DB.Create(&campaign).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create campaign: "+err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"status": "success", "id": campaign.ID})
}

func ToggleCampaignStatusHandler(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaign_id")

	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Status != "open" && input.Status != "closed" {
		respondError(w, http.StatusBadRequest, "status must be open or closed")
		return
	}

	err := db.DB.Model(&Campaign{}).Where("id = ?", campaignID).Update("status", input.Status).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update campaign: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func DeleteCampaignHandler(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaign_id")

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Measurement{}, "campaign_id = ?", campaignID).Error; err != nil {
			return err
		}
		return tx.Delete(&Campaign{}, "id = ?", campaignID).Error
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete campaign: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// GetCampaignLogHandler returns the last 10 measurements of a campaign for
// the field app's capture log.
func GetCampaignLogHandler(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaign_id")

	var measurements []Measurement
	err := db.DB.Where("campaign_id = ?", campaignID).
		Order("created_at DESC").Limit(10).
		Find(&measurements).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch log: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "measurements": measurements})
}

type measurementRow struct {
	Measurement
	CampaignName string `json:"campaign_name"`
}

func GetProjectDataHandler(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	var rows []measurementRow
	err := db.DB.Model(&Measurement{}).
		Select("survey.measurements.*, c.name AS campaign_name").
		Joins("JOIN survey.campaigns c ON c.id = survey.measurements.campaign_id").
		Where("survey.measurements.project_id = ?", projectID).
		Order("survey.measurements.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch data: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "data": rows})
}

func DeleteMeasurementHandler(w http.ResponseWriter, r *http.Request) {
	measurementID := chi.URLParam(r, "measurement_id")

	if err := db.DB.Delete(&Measurement{}, "id = ?", measurementID).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete measurement: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// ResetProjectDataHandler wipes every measurement and campaign of a
// project. Administrative escape hatch; the ingestion core never deletes.
func ResetProjectDataHandler(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Measurement{}, "project_id = ?", projectID).Error; err != nil {
			return err
		}
		return tx.Delete(&Campaign{}, "project_id = ?", projectID).Error
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to reset project: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
