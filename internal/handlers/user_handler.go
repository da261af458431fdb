package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"langgol/internal/models"
	"langgol/internal/services"
)

type UserHandler struct {
	accounts services.AccountService
}

func NewUserHandler(accounts services.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// @Summary      Update profile
// @Description  Partial update of name, phone and address
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        email   path      string                true  "Account email"
// @Param        update  body      models.ProfileUpdate  true  "New values"
// @Success      200     {object}  map[string]interface{}
// @Failure      404     {object}  map[string]string
// @Router       /users/{email} [put]
// @Security     BearerAuth
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	email := c.Param("email")

	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.UpdateProfile(email, upd)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
	case errors.Is(err, services.ErrUserNotFound):
		// also hit when nothing actually changed, same as the old backend
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found or data is the same"})
	default:
		log.Printf("[users][update] failed for %q: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
	}
}

// @Summary      List users
// @Description  All non-admin accounts, password hashes never included
// @Tags         Users
// @Produce      json
// @Success      200  {array}  models.User
// @Router       /users [get]
// @Security     BearerAuth
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers()
	if err != nil {
		log.Printf("[users][list] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, users)
}
