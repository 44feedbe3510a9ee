package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"railway-backend/models"
	"railway-backend/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type loginPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController handles admin login for the provisioning endpoints.
type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

// Login (POST /api/auth/login)
func (ctrl *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", "username and password required")
		return
	}

	username := strings.TrimSpace(payload.Username)

	var admin models.Admin
	if err := ctrl.DB.Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONError(c, http.StatusUnauthorized, "error.invalidCredentials", "invalid credentials")
			return
		}
		log.Printf("Login lookup error for %s: %v", username, err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(payload.Password)) != nil {
		utils.JSONError(c, http.StatusUnauthorized, "error.invalidCredentials", "invalid credentials")
		return
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		log.Printf("Login token generation failed: %v", err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "login failed")
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{
			"id":        admin.ID,
			"full_name": admin.FullName,
			"username":  admin.Username,
		},
	})
}
