package handler

import (
	"net/http"

	"storefront/middleware"
	"storefront/model"
	"storefront/utils"

	"github.com/gin-gonic/gin"
)

type registerResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

func (h *Handler) Register(c *gin.Context) {
	var body model.RegisterRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	user, err := h.Users.Register(c.Request.Context(), body)
	if err != nil {
		utils.RespondError(c, err, "Failed to create user")
		return
	}
	utils.RespondJSON(c, http.StatusCreated, registerResponse{
		Success: true,
		Message: "User registered successfully",
		User:    user,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var body model.LoginRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	token, err := h.Users.Login(c.Request.Context(), body)
	if err != nil {
		utils.RespondError(c, err, "Login failed")
		return
	}
	utils.RespondJSON(c, http.StatusOK, model.LoginResponse{
		Message: "User logged in successfully",
		Access:  token,
	})
}

func (h *Handler) GetAllUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), middleware.UserContextData(c))
	if err != nil {
		utils.RespondError(c, err, "Server error retrieving users.")
		return
	}
	utils.RespondJSON(c, http.StatusOK, users)
}

func (h *Handler) GetUserDetails(c *gin.Context) {
	details, err := h.Users.Details(c.Request.Context(), middleware.UserContextData(c))
	if err != nil {
		utils.RespondError(c, err, "Server error")
		return
	}
	utils.RespondJSON(c, http.StatusOK, details)
}

func (h *Handler) SetAsAdmin(c *gin.Context) {
	changed, err := h.Users.SetAsAdmin(c.Request.Context(), middleware.UserContextData(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err, "Server error")
		return
	}
	if !changed {
		utils.RespondMessage(c, http.StatusOK, "User is already an admin")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "User updated to admin successfully")
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	var body model.UpdatePasswordRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	if err := h.Users.UpdatePassword(c.Request.Context(), middleware.UserContextData(c), body.NewPassword); err != nil {
		utils.RespondError(c, err, "Internal server error.")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Password successfully updated.")
}

func (h *Handler) LikeProduct(c *gin.Context) {
	if err := h.Users.Like(c.Request.Context(), middleware.UserContextData(c), c.Param("productId")); err != nil {
		utils.RespondError(c, err, "Failed to like product")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Product liked successfully")
}

func (h *Handler) UnlikeProduct(c *gin.Context) {
	if err := h.Users.Unlike(c.Request.Context(), middleware.UserContextData(c), c.Param("productId")); err != nil {
		utils.RespondError(c, err, "Failed to unlike product")
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Product unliked successfully")
}

func (h *Handler) GetLikes(c *gin.Context) {
	products, err := h.Users.Likes(c.Request.Context(), middleware.UserContextData(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to load likes")
		return
	}
	utils.RespondJSON(c, http.StatusOK, products)
}
