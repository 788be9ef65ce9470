package catalog

import (
	"net/http"

	"slotbook/ledger"
	"slotbook/models"
	"slotbook/utils"

	"github.com/julienschmidt/httprouter"
)

// API serves the dashboard grid.
type API struct {
	Catalog *Catalog
	Ledger  *ledger.Ledger
}

func NewAPI(c *Catalog, l *ledger.Ledger) *API {
	return &API{Catalog: c, Ledger: l}
}

type slotView struct {
	ID        string `json:"id"`
	Day       string `json:"day"`
	Time      string `json:"time"`
	Capacity  int    `json:"capacity"`
	SeatsLeft int    `json:"seatsLeft"`
}

// GetSlots returns the full ordered grid plus the caller's current
// booking, which is what drives the booked/unbooked dashboard state.
func (a *API) GetSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	slots, err := a.Catalog.ListSlots(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to load slots")
		return
	}

	views := make([]slotView, 0, len(slots))
	for _, s := range slots {
		// Occupant emails are not exposed to students.
		views = append(views, slotView{
			ID:        s.ID,
			Day:       s.Day,
			Time:      s.Time,
			Capacity:  s.Capacity,
			SeatsLeft: s.SeatsLeft,
		})
	}

	var booking *models.Booking
	if userID := utils.GetUserIDFromRequest(r); userID != "" {
		booking, err = a.Ledger.FindUserBooking(r.Context(), userID)
		if err != nil {
			utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to load booking")
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"slots":   views,
		"booking": booking,
	})
}
