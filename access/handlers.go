package access

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"slotbook/middleware"
	"slotbook/rdx"
	"slotbook/store"
	"slotbook/utils"

	"github.com/julienschmidt/httprouter"
)

// API exposes the login flow over HTTP.
type API struct {
	Gate *Gate
}

func NewAPI(gate *Gate) *API {
	return &API{Gate: gate}
}

// Login checks the email against the allow-list and issues a session
// token. The normalized email is the userId carried in the token.
func (a *API) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	userID, err := a.Gate.Authorize(r.Context(), input.Email)
	if errors.Is(err, ErrNotApproved) {
		utils.RespondWithError(w, http.StatusUnauthorized, "You are not approved to log in.")
		return
	}
	if errors.Is(err, store.ErrUnavailable) {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Login is temporarily unavailable")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Something went wrong during login.")
		return
	}

	// Reuse the cached session token while it is still valid, so a
	// re-login from a second tab does not churn tokens.
	var tokenString string
	if cached, err := rdx.RdxHget("tokki", userID); err == nil && cached != "" {
		if _, err := middleware.ValidateJWT(cached); err == nil {
			tokenString = cached
		}
	}
	if tokenString == "" {
		fresh, err := middleware.GenerateToken(userID, []string{"student"})
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}
		if err := rdx.RdxHset("tokki", userID, fresh); err != nil {
			log.Printf("Redis token storage failed: %v", err)
		}
		tokenString = fresh
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{
		"token":  tokenString,
		"userid": userID,
	}, "Login successful", nil)
}
