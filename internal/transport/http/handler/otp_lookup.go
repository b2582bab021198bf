package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/occamy/fieldops-api/internal/application/otp"
	"github.com/occamy/fieldops-api/internal/pkg/validate"
)

// FarmerAuthCookie carries the verification receipt between the OTP flow and
// session issuance. The cookie holds an opaque single-use token, never a JWT.
const FarmerAuthCookie = "farmer-auth"

const farmerAuthCookieTTL = 24 * time.Hour

// OTPLookupHandler bridges a completed phone verification into the session
// flow by issuing the receipt cookie.
type OTPLookupHandler struct {
	svc otp.Service
}

func NewOTPLookupHandler(svc otp.Service) *OTPLookupHandler {
	return &OTPLookupHandler{svc: svc}
}

type lookupRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type lookupEnvelope struct {
	User *SafeUser `json:"user"`
}

func (h *OTPLookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := h.svc.Lookup(r.Context(), req.Phone)
	if err != nil {
		httpError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     FarmerAuthCookie,
		Value:    result.Receipt.Token,
		Path:     "/",
		MaxAge:   int(farmerAuthCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, lookupEnvelope{User: toSafeUser(result.User)})
}
