package handler

import (
	"encoding/json"
	"net/http"

	"github.com/occamy/fieldops-api/internal/application/otp"
	"github.com/occamy/fieldops-api/internal/pkg/validate"
)

// OTPHandler handles one-time-code endpoints.
type OTPHandler struct {
	svc otp.Service
}

func NewOTPHandler(svc otp.Service) *OTPHandler {
	return &OTPHandler{svc: svc}
}

type otpRequest struct {
	Action string `json:"action" validate:"required,oneof=send verify"`
	Phone  string `json:"phone" validate:"required"`
	Code   string `json:"code"`
}

// sendEnvelope carries the code back to the caller in dev mode only; in
// production DevOTP is always empty and omitted.
type sendEnvelope struct {
	Message string `json:"message"`
	DevOTP  string `json:"dev_otp,omitempty"`
}

type verifyEnvelope struct {
	Message string    `json:"message"`
	User    *SafeUser `json:"user"`
}

// Action dispatches send and verify on the one-time-code lifecycle.
func (h *OTPHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	switch req.Action {
	case "send":
		devCode, err := h.svc.Send(r.Context(), req.Phone)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sendEnvelope{Message: "verification code sent", DevOTP: devCode})
	case "verify":
		if req.Code == "" {
			writeError(w, http.StatusBadRequest, "code required")
			return
		}
		user, err := h.svc.Verify(r.Context(), req.Phone, req.Code)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, verifyEnvelope{Message: "phone verified", User: toSafeUser(user)})
	}
}
