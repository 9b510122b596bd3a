package voice

import "fmt"

// Script paths served by the HTTP layer and handed to Twilio as callback URLs.
const (
	FacultyScriptPath    = "/api/v1/voice/script"
	HodSummaryScriptPath = "/api/v1/voice/hod-summary"
)

// FacultyScript returns the TwiML spoken to a faculty member when a student
// applies for an outpass. The script is fixed: it points at the dashboard
// rather than reading request details over the phone.
func FacultyScript() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say voice="alice" language="en-IN">Hello professor. A student has applied for an outpass. Please check your QuickPass dashboard to review and approve the request.</Say>
  <Pause length="1"/>
  <Say voice="alice">Thank you.</Say>
  <Hangup/>
</Response>`
}

// HodSummaryScript returns the TwiML spoken to an HOD during the recurring
// pending-approvals sweep.
func HodSummaryScript(pendingCount int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say voice="alice" language="en-IN">Hello. You have %d outpass requests waiting for your approval. Please check your QuickPass dashboard.</Say>
  <Pause length="1"/>
  <Say voice="alice">Thank you.</Say>
  <Hangup/>
</Response>`, pendingCount)
}
