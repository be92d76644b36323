package driver

import (
	"fmt"
	"strings"

	"RideDesk/entity"
)

// StatusText renders the driver's onboarding progress for the status command
// and for idempotent restarts of a finished onboarding.
func StatusText(d *entity.Driver) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Driver status</b>\n")
	if d.Name != "" {
		sb.WriteString(fmt.Sprintf("Name: %s\n", d.Name))
	}
	if d.Phone != "" {
		sb.WriteString(fmt.Sprintf("Phone: %s\n", d.Phone))
	}
	sb.WriteString(fmt.Sprintf("Documents: %d of %d\n", d.DocumentsFilled(), len(entity.DocumentSlots)))

	switch {
	case d.Step != entity.StepCompleted:
		sb.WriteString("Onboarding: in progress\n")
	case d.Approval == entity.ApprovalApproved:
		sb.WriteString("Approval: approved ✅\n")
	case d.Approval == entity.ApprovalRejected:
		sb.WriteString("Approval: rejected ❌\n")
	default:
		sb.WriteString("Approval: pending review ⏳\n")
	}
	return sb.String()
}
