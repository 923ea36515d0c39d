package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"supplymarket_api/internal/accounts"
	"supplymarket_api/internal/auth"
	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
)

// userView is the public shape of a user; credentials and lockout state stay server-side.
type userView struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Role         models.Role     `json:"role"`
	CompanyName  string          `json:"company_name,omitempty"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Location     *geo.Coordinate `json:"location,omitempty"`
	RegisteredAt time.Time       `json:"registered_at"`
}

func newUserView(u models.User) userView {
	return userView{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		CompanyName:  u.CompanyName,
		Phone:        u.Phone,
		Address:      u.Address,
		Location:     u.Location,
		RegisteredAt: u.RegisteredAt,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userView  `json:"user"`
}

type UserHandler struct {
	accounts  *accounts.Service
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserHandler(svc *accounts.Service, jwtSecret string, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{accounts: svc, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req accounts.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "failed to decode request body", err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserView(user))
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "failed to decode request body", err)
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	now := time.Now()
	token, err := auth.IssueToken(h.jwtSecret, user, h.tokenTTL, now)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: now.Add(h.tokenTTL), User: newUserView(user)})
}
