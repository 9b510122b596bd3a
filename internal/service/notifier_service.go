package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/pkg/mailer"
	"github.com/visweshnarni/qptestbackend/pkg/voice"
)

// Notifier fans a notification out to one target over both channels: a
// structured mail and a voice call. The two channels are independent
// (failure of one never blocks the other) and both are best-effort: callers
// get no error back and never wait for delivery.
type Notifier interface {
	// Dispatch notifies one faculty member about a new or still-pending
	// outpass request.
	Dispatch(target model.Employee, student *model.Student, outpass *model.Outpass)
	// DispatchHodSummary notifies an HOD with an aggregate pending count,
	// not per-student detail.
	DispatchHodSummary(hod model.Employee, pendingCount int64)
}

const dispatchTimeout = 30 * time.Second

type notifier struct {
	mail     mailer.Sender
	voice    voice.Caller
	location *time.Location
	logger   *zap.Logger
}

// NewNotifier creates the dual-channel dispatcher.
func NewNotifier(mail mailer.Sender, voiceCaller voice.Caller, location *time.Location, logger *zap.Logger) Notifier {
	return &notifier{mail: mail, voice: voiceCaller, location: location, logger: logger}
}

func (n *notifier) Dispatch(target model.Employee, student *model.Student, outpass *model.Outpass) {
	subject := fmt.Sprintf("Outpass Request for %s", student.Name)
	body := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>A student, <b>%s</b>, has requested an outpass for the following reason:</p>
<p><b>Reason:</b> %s</p>
<p><b>Time:</b> %s to %s</p>
<p>Please log in to your QuickPass dashboard to approve or reject this request.</p>
<p>Thank you.</p>`,
		target.Name,
		student.Name,
		outpass.Reason,
		outpass.DateFrom.In(n.location).Format("3:04 PM"),
		outpass.DateTo.In(n.location).Format("3:04 PM"),
	)

	go n.sendMail(target, subject, body)
	go n.placeCall(target, voice.FacultyScriptPath)
}

func (n *notifier) DispatchHodSummary(hod model.Employee, pendingCount int64) {
	subject := "Pending outpass approvals"
	body := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>There are <b>%d</b> outpass requests in your department waiting for your approval.</p>
<p>Please log in to your QuickPass dashboard to review them.</p>
<p>Thank you.</p>`,
		hod.Name, pendingCount,
	)

	go n.sendMail(hod, subject, body)
	go n.placeCall(hod, fmt.Sprintf("%s?pending=%d", voice.HodSummaryScriptPath, pendingCount))
}

// sendMail runs on its own goroutine; delivery failures are logged and die
// here; they must never surface into the transition that triggered them.
func (n *notifier) sendMail(target model.Employee, subject, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := n.mail.Send(ctx, target.Email, subject, body); err != nil {
		n.logger.Warn("notification mail failed",
			zap.String("employee_id", target.EmployeeID),
			zap.String("email", target.Email),
			zap.Error(err))
		return
	}
	n.logger.Info("notification mail sent",
		zap.String("employee_id", target.EmployeeID),
		zap.String("email", target.Email))
}

func (n *notifier) placeCall(target model.Employee, scriptPath string) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := n.voice.Call(ctx, target.Phone, scriptPath); err != nil {
		n.logger.Warn("notification call failed",
			zap.String("employee_id", target.EmployeeID),
			zap.String("phone", target.Phone),
			zap.Error(err))
		return
	}
	n.logger.Info("notification call placed",
		zap.String("employee_id", target.EmployeeID),
		zap.String("phone", target.Phone))
}
