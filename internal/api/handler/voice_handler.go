package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/pkg/voice"
)

const twimlContentType = "text/xml; charset=utf-8"

// VoiceHandler serves the TwiML scripts Twilio fetches when a notification
// call connects. These routes are public: Twilio calls them without our auth.
type VoiceHandler struct{}

// NewVoiceHandler creates the VoiceHandler.
func NewVoiceHandler() *VoiceHandler {
	return &VoiceHandler{}
}

// FacultyScript GET /api/v1/voice/script
func (h *VoiceHandler) FacultyScript(c *gin.Context) {
	c.Data(http.StatusOK, twimlContentType, []byte(voice.FacultyScript()))
}

// HodSummaryScript GET /api/v1/voice/hod-summary?pending=N
func (h *VoiceHandler) HodSummaryScript(c *gin.Context) {
	pending, err := strconv.Atoi(c.DefaultQuery("pending", "0"))
	if err != nil || pending < 0 {
		pending = 0
	}
	c.Data(http.StatusOK, twimlContentType, []byte(voice.HodSummaryScript(pending)))
}
