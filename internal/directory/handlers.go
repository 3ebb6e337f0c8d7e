package directory

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/GeoControl/GC-Backend/internal/auth"
	"github.com/GeoControl/GC-Backend/internal/db"
	"github.com/GeoControl/GC-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DashboardHandler returns the module codes the session user may open.
// Admins see every module; everyone else sees their active licenses.
func DashboardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user auth.User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}

	var codes []string
	if user.Role == "admin" {
		if err := db.DB.Model(&ProductModule{}).Pluck("code", &codes).Error; err != nil {
			http.Error(w, "Failed to fetch modules: "+err.Error(), http.StatusInternalServerError)
			return
		}
	} else {
		err := db.DB.Model(&License{}).
			Joins("JOIN directory.modules m ON m.id = directory.licenses.module_id").
			Where("directory.licenses.user_id = ? AND directory.licenses.status = ? AND directory.licenses.expiration_date >= ?",
				userID, "active", time.Now().Truncate(24*time.Hour)).
			Pluck("m.code", &codes).Error
		if err != nil {
			http.Error(w, "Failed to fetch licenses: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if codes == nil {
		codes = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "success",
		"licenses": codes,
		"role":     user.Role,
	})
}

func ListCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	var companies []Company
	if err := db.DB.Order("name ASC").Find(&companies).Error; err != nil {
		http.Error(w, "Failed to fetch companies: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "companies": companies})
}

// CreateCompanyHandler registers a company together with its first manager
// account in a single transaction.
func CreateCompanyHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CompanyName string `json:"company_name"`
		NIT         string `json:"nit"`
		Address     string `json:"address"`
		Username    string `json:"username"`
		Password    string `json:"password"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Email       string `json:"email"`
		Phone       string `json:"phone"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.CompanyName == "" || input.Username == "" || input.Password == "" {
		http.Error(w, "company_name, username and password are required", http.StatusBadRequest)
		return
	}

	var existing auth.User
	if err := db.DB.First(&existing, "username = ?", input.Username).Error; err == nil {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Server error hashing password", http.StatusInternalServerError)
		return
	}

	company := Company{
		ID:      utils.GenerateUUID(),
		Name:    input.CompanyName,
		NIT:     input.NIT,
		Address: input.Address,
	}
	manager := auth.User{
		UserID:         utils.GenerateUUID(),
		Username:       input.Username,
		HashedPassword: string(hashed),
		Role:           "manager",
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		Phone:          input.Phone,
		CompanyID:      company.ID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		return tx.Create(&manager).Error
	})
	if err != nil {
		http.Error(w, "Failed to create company: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "company_id": company.ID, "user_id": manager.UserID})
}

type userRow struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
}

func ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	var rows []userRow
	err := db.DB.Model(&auth.User{}).
		Select("app_auth.users.user_id, app_auth.users.username, app_auth.users.first_name, app_auth.users.last_name, app_auth.users.role, c.name AS company_name").
		Joins("LEFT JOIN directory.companies c ON c.id = app_auth.users.company_id").
		Order("app_auth.users.username ASC").
		Scan(&rows).Error
	if err != nil {
		http.Error(w, "Failed to fetch users: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Attach active licenses per user
	type licenseRow struct {
		UserID         string    `json:"-"`
		Code           string    `json:"code"`
		Name           string    `json:"name"`
		ExpirationDate time.Time `json:"expiration_date"`
	}
	var lics []licenseRow
	err = db.DB.Model(&License{}).
		Select("directory.licenses.user_id, m.code, m.name, directory.licenses.expiration_date").
		Joins("JOIN directory.modules m ON m.id = directory.licenses.module_id").
		Where("directory.licenses.status = ? AND directory.licenses.expiration_date >= ?", "active", time.Now().Truncate(24*time.Hour)).
		Scan(&lics).Error
	if err != nil {
		http.Error(w, "Failed to fetch licenses: "+err.Error(), http.StatusInternalServerError)
		return
	}

	byUser := map[string][]licenseRow{}
	for _, l := range lics {
		byUser[l.UserID] = append(byUser[l.UserID], l)
	}

	type userWithLicenses struct {
		userRow
		Licenses []licenseRow `json:"licenses"`
	}
	out := make([]userWithLicenses, 0, len(rows))
	for _, u := range rows {
		ls := byUser[u.UserID]
		if ls == nil {
			ls = []licenseRow{}
		}
		out = append(out, userWithLicenses{userRow: u, Licenses: ls})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "users": out})
}

func GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var user auth.User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success", "user": user})
}

// UpdateUserHandler edits profile fields; the password changes only when a
// non-empty value is supplied.
func UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var input struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		Role      string `json:"role"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user auth.User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	updates := map[string]any{
		"username":   input.Username,
		"role":       input.Role,
		"first_name": input.FirstName,
		"last_name":  input.LastName,
		"email":      input.Email,
		"phone":      input.Phone,
	}
	if input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Server error hashing password", http.StatusInternalServerError)
			return
		}
		updates["hashed_password"] = string(hashed)
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		http.Error(w, "Failed to update user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success"})
}

// GrantLicenseHandler assigns or renews a module license with an exact
// expiry date. Any previous license for the same user+module is removed
// first so duplicates never accumulate.
func GrantLicenseHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID         string `json:"user_id"`
		ModuleCode     string `json:"module_code"`
		ExpirationDate string `json:"expiration_date"` // YYYY-MM-DD
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	expiry, err := time.Parse("2006-01-02", input.ExpirationDate)
	if err != nil {
		http.Error(w, "expiration_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var module ProductModule
	if err := db.DB.First(&module, "code = ?", input.ModuleCode).Error; err != nil {
		http.Error(w, "Module not found", http.StatusNotFound)
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND module_id = ?", input.UserID, module.ID).Delete(&License{}).Error; err != nil {
			return err
		}
		license := License{
			ID:             utils.GenerateUUID(),
			UserID:         input.UserID,
			ModuleID:       module.ID,
			StartDate:      time.Now(),
			ExpirationDate: expiry,
			Status:         "active",
		}
		return tx.Create(&license).Error
	})
	if err != nil {
		http.Error(w, "Failed to grant license: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success"})
}

func RevokeLicenseHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID     string `json:"user_id"`
		ModuleCode string `json:"module_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var module ProductModule
	if err := db.DB.First(&module, "code = ?", input.ModuleCode).Error; err != nil {
		http.Error(w, "Module not found", http.StatusNotFound)
		return
	}

	if err := db.DB.Where("user_id = ? AND module_id = ?", input.UserID, module.ID).Delete(&License{}).Error; err != nil {
		http.Error(w, "Failed to revoke license: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "success"})
}
