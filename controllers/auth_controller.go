package controllers

import (
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/apiclient"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/pkg/resp"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/provider"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/services"
	"github.com/Lovoh17/Al-Punto-Clientes-sub000/utils"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type AuthController struct{}

func NewAuthController() *AuthController { return &AuthController{} }

// POST /auth/login
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	cl := utils.CurrentClient(c)
	snap, err := cl.Session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil { writeError(c, err); return }
	cl.Session.TakeDestination()
	resp.OK(c, snap)
}

// POST /auth/provider
// The UI runs the provider popup and posts either the ID token or the
// provider's error code.
func (a *AuthController) Provider(c *gin.Context) {
	var cred provider.Credential
	if err := c.ShouldBindJSON(&cred); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	cl := utils.CurrentClient(c)
	snap, err := cl.Session.LoginWithProvider(c.Request.Context(), cred)
	if err != nil { writeError(c, err); return }
	cl.Session.TakeDestination()
	resp.OK(c, snap)
}

// POST /auth/register
func (a *AuthController) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	cl := utils.CurrentClient(c)
	snap, err := cl.Session.Register(c.Request.Context(), req)
	if err != nil { writeError(c, err); return }
	cl.Session.TakeDestination()
	resp.Created(c, snap)
}

// POST /auth/logout
func (a *AuthController) Logout(c *gin.Context) {
	cl := utils.CurrentClient(c)
	snap := cl.Session.Logout(c.Request.Context())
	cl.Session.TakeDestination()
	resp.OK(c, snap)
}

// GET /auth/me
// Also hands over a navigation the session decided on its own (e.g. after
// the backend rejected the token).
func (a *AuthController) Me(c *gin.Context) {
	cl := utils.CurrentClient(c)
	snap := cl.Session.Snapshot()
	snap.Destination = cl.Session.TakeDestination()
	resp.OK(c, snap)
}

// PATCH /auth/me
func (a *AuthController) UpdateMe(c *gin.Context) {
	var req apiclient.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	u, err := utils.CurrentClient(c).Session.UpdateUser(c.Request.Context(), req)
	if err != nil { writeError(c, err); return }
	resp.OK(c, u)
}

// PUT /auth/password
func (a *AuthController) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request body"); return
	}
	err := utils.CurrentClient(c).Session.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword)
	if err != nil { writeError(c, err); return }
	resp.OK(c, gin.H{"changed": true})
}
