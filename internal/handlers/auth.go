package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/response"
)

// AuthHandler manages registration and login for users and admins.
type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type registerRequest struct {
	Name          string  `json:"name" validate:"required"`
	Phone         string  `json:"phone" validate:"required,min=10,max=15"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Password      string  `json:"password" validate:"required,min=6"`
	Age           int     `json:"age" validate:"required,gte=18,lte=100"`
	Height        float64 `json:"height" validate:"required,gt=0"`
	Gender        string  `json:"gender" validate:"required"`
	MaritalStatus string  `json:"marital_status" validate:"required"`
	Religion      string  `json:"religion" validate:"required"`
	Caste         string  `json:"caste" validate:"required"`
	SubCaste      string  `json:"sub_caste"`
	MotherTongue  string  `json:"mother_tongue"`
	Location      string  `json:"location"`
}

type loginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user := &models.User{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Age:           req.Age,
		Height:        req.Height,
		Gender:        req.Gender,
		MaritalStatus: req.MaritalStatus,
		Religion:      req.Religion,
		Caste:         req.Caste,
		SubCaste:      req.SubCaste,
		MotherTongue:  req.MotherTongue,
		Location:      req.Location,
	}

	token, err := h.users.Register(requestContext(c), user, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.users.Login(requestContext(c), req.Phone, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// POST /api/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	admin, token, err := h.users.AdminLogin(requestContext(c), req.Phone, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{"id": admin.ID, "name": admin.Name, "phone": admin.Phone},
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
