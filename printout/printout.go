package printout

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"slotbook/catalog"
	"slotbook/ledger"
	"slotbook/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

func hmacSecret() []byte {
	if s := os.Getenv("QR_HMAC_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev-only-qr-secret")
}

// SignPayload returns the QR payload: bookingID|code|timestamp|signature.
// Interviewers scan it at check-in and verify the signature offline.
func SignPayload(bookingID, code string) string {
	data := fmt.Sprintf("%s|%s|%d", bookingID, code, time.Now().Unix())
	h := hmac.New(sha256.New, hmacSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// VerifyPayload checks the signature on a scanned QR payload.
func VerifyPayload(payload string) bool {
	idx := len(payload) - 1
	for ; idx >= 0; idx-- {
		if payload[idx] == '|' {
			break
		}
	}
	if idx <= 0 {
		return false
	}
	data, sig := payload[:idx], payload[idx+1:]
	h := hmac.New(sha256.New, hmacSecret())
	h.Write([]byte(data))
	want := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(want))
}

// API renders the booking-confirmation PDF.
type API struct {
	Ledger  *ledger.Ledger
	Catalog *catalog.Catalog
}

func NewAPI(l *ledger.Ledger, c *catalog.Catalog) *API {
	return &API{Ledger: l, Catalog: c}
}

// Confirmation streams a PDF with the caller's slot details and a
// signed QR code for check-in.
func (a *API) Confirmation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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
	if booking == nil {
		utils.RespondWithError(w, http.StatusNotFound, "No booking to confirm")
		return
	}

	slot, err := a.Catalog.GetSlot(r.Context(), booking.SlotID)
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Failed to load slot")
		return
	}

	qrPNG, err := qrcode.Encode(SignPayload(booking.ID, booking.Code), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; the time ranges carry an en-dash.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Interview Slot Confirmation")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Email: %s", userID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Day: %s", slot.Day))
	pdf.Ln(8)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Time: %s", slot.Time)))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Reference: %s", booking.Code))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 15, 90, 60, 60, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="confirmation.pdf"`)
	w.Write(buf.Bytes())
}
