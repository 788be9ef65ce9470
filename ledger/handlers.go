package ledger

import (
	"encoding/json"
	"errors"
	"net/http"

	"slotbook/live"
	"slotbook/mq"
	"slotbook/store"
	"slotbook/utils"

	"github.com/julienschmidt/httprouter"
)

// API serves the booking endpoints.
type API struct {
	Ledger *Ledger
	Hub    *live.Hub
}

func NewAPI(l *Ledger, hub *live.Hub) *API {
	return &API{Ledger: l, Hub: hub}
}

// BookSlot books one seat for the authenticated user.
func (a *API) BookSlot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid user")
		return
	}

	var input struct {
		SlotID string `json:"slotId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.SlotID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing or invalid slotId")
		return
	}

	booking, slot, err := a.Ledger.Book(r.Context(), userID, input.SlotID)
	switch {
	case errors.Is(err, ErrAlreadyBooked):
		utils.RespondWithError(w, http.StatusConflict, "You already booked a slot")
		return
	case errors.Is(err, ErrSlotNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Slot not found")
		return
	case errors.Is(err, ErrSlotFull):
		utils.RespondWithError(w, http.StatusConflict, "No seats remaining in this slot")
		return
	case errors.Is(err, ErrDuplicateOccupant):
		utils.RespondWithError(w, http.StatusConflict, "You already occupy this slot")
		return
	case errors.Is(err, store.ErrUnavailable):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Booking is temporarily unavailable, try again")
		return
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to book slot")
		return
	}

	event := mq.Event{
		Type:      "booked",
		SlotID:    slot.ID,
		Day:       slot.Day,
		Time:      slot.Time,
		SeatsLeft: slot.SeatsLeft,
	}
	if a.Hub != nil {
		a.Hub.Broadcast(event)
	}
	mq.Emit(r.Context(), event)

	utils.SendResponse(w, http.StatusCreated, utils.M{
		"booking":   booking,
		"seatsLeft": slot.SeatsLeft,
	}, "Slot booked successfully", nil)
}

// GetMyBooking returns the caller's current booking, if any.
func (a *API) GetMyBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid user")
		return
	}

	booking, err := a.Ledger.FindUserBooking(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to load booking")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": booking})
}
