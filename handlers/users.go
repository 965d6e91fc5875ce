package handlers

import (
	"encoding/json"
	"fmt"
	"formgate/auth"
	"formgate/models"
	"log"
	"net/http"
	"time"
)

type CreateUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

// CreateUser creates a new admin API user
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate input
	if req.Username == "" || req.Password == "" {
		writeError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	// Validate password strength
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Role == "" {
		req.Role = models.RoleViewer
	}

	// Check if username already exists
	existingUser, _ := h.db.GetUserByUsername(r.Context(), req.Username)
	if existingUser != nil {
		writeError(w, "Username already exists", http.StatusConflict)
		return
	}

	user := &models.User{
		UserID:    fmt.Sprintf("user-%s", req.Username),
		Username:  req.Username,
		Role:      req.Role,
		LastLogin: time.Now(),
	}

	if err := h.db.CreateUser(r.Context(), user); err != nil {
		log.Printf("❌ Failed to create user: %v", err)
		writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// Hash and store password
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		writeError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := h.db.StorePasswordHash(r.Context(), user.UserID, passwordHash); err != nil {
		log.Printf("❌ Failed to store password: %v", err)
		writeError(w, "Failed to store password", http.StatusInternalServerError)
		return
	}

	h.audit(r, "ADMIN_CREATE_USER", fmt.Sprintf("Created user '%s' with role '%s'", user.Username, user.Role))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}
