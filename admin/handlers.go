package admin

import (
	"encoding/json"
	"net/http"
	"os"

	"slotbook/access"
	"slotbook/catalog"
	"slotbook/live"
	"slotbook/middleware"
	"slotbook/mq"
	"slotbook/utils"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

// API serves the admin panel: booking overview, resets, seeding and
// allow-list upload. Every route behind it requires the "admin" role.
type API struct {
	Svc     *Service
	Catalog *catalog.Catalog
	Gate    *access.Gate
	Hub     *live.Hub
}

func NewAPI(svc *Service, c *catalog.Catalog, gate *access.Gate, hub *live.Hub) *API {
	return &API{Svc: svc, Catalog: c, Gate: gate, Hub: hub}
}

// Login exchanges the admin password for an admin-role token. The hash
// comes from ADMIN_PASSWORD_HASH (bcrypt).
func (a *API) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Password is required")
		return
	}

	hash := os.Getenv("ADMIN_PASSWORD_HASH")
	if hash == "" {
		utils.RespondWithError(w, http.StatusForbidden, "Admin login is not configured")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(input.Password)); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	tokenString, err := middleware.GenerateToken("admin", []string{"admin"})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.SendResponse(w, http.StatusOK, map[string]string{"token": tokenString}, "Login successful", nil)
}

// GetBookings returns every booking joined with its slot.
func (a *API) GetBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rows, err := a.Svc.ListBookings(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to fetch bookings")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": rows})
}

// ResetBooking rolls back one booking. An already-gone booking is a
// benign race with another admin and still reports success.
func (a *API) ResetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("bookingid")
	if bookingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing booking id")
		return
	}

	found, err := a.Svc.ResetOne(r.Context(), bookingID)
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to reset booking")
		return
	}

	if found {
		a.announce(r, mq.Event{Type: "reset"})
	}
	utils.SendResponse(w, http.StatusOK, utils.M{"reset": found}, "Booking reset", nil)
}

// ResetAll restores every slot and deletes every booking, reporting
// partial success per record.
func (a *API) ResetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	report, err := a.Svc.ResetAll(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to reset bookings")
		return
	}
	a.announce(r, mq.Event{Type: "reset-all"})
	utils.SendResponse(w, http.StatusOK, report, "Reset complete", nil)
}

// Seed ensures the full slot grid exists.
func (a *API) Seed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	created, err := a.Catalog.EnsureSeeded(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Seeding failed")
		return
	}
	utils.SendResponse(w, http.StatusOK, utils.M{"created": created}, "Slots ensured", nil)
}

// UploadApproved ingests a newline-separated approved-email list from
// the request body.
func (a *API) UploadApproved(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	count, err := a.Gate.UploadApproved(r.Context(), r.Body)
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to upload emails")
		return
	}
	utils.SendResponse(w, http.StatusOK, utils.M{"uploaded": count}, "Approved emails uploaded", nil)
}

func (a *API) announce(r *http.Request, event mq.Event) {
	if a.Hub != nil {
		a.Hub.Broadcast(event)
	}
	mq.Emit(r.Context(), event)
}
