package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/amarinov1974/cmms-system-sub000/config"
	"github.com/amarinov1974/cmms-system-sub000/middleware"
	"github.com/amarinov1974/cmms-system-sub000/models"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a directory user and returns a session JWT carrying
// the full actor context.
func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := config.DB.First(&user, "email = ? AND is_active = ?", req.Email, true).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		http.Error(w, "failed to sign token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":         user.ID,
			"name":       user.Name,
			"role":       user.Role,
			"company_id": user.CompanyID,
		},
	})
}

// Profile returns the authenticated actor context from the JWT claims.
func Profile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    claims.UserID,
		"name":       claims.Name,
		"role":       claims.Role,
		"company_id": claims.CompanyID,
		"region_id":  claims.RegionID,
		"store_id":   claims.StoreID,
		"owner_type": middleware.ActorOwnerType(r),
	})
}
