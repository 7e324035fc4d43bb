package workflow

import (
	"context"
	"fmt"

	"masterflow/master"
	"masterflow/report"
	"masterflow/request"
	"masterflow/user"
)

// Admin panel operations. Unlike HandleEvent these return errors: the panel
// shows them to a trusted operator instead of a generic reply. Notifications
// still fire only after the write committed.

// AssignRequest overrides a request's master and status on behalf of the
// administrator. The affected client is told when their request enters work.
func (c *Coordinator) AssignRequest(ctx context.Context, requestID string, masterID *string, status request.Status) error {
	updated, err := c.requests.Assign(ctx, requestID, masterID, status)
	if err != nil {
		return err
	}

	if updated.MasterID != nil && updated.Status == request.StatusInProgress {
		c.deliver(ctx, updated.ClientID, fmt.Sprintf("ℹ️ Статус вашей заявки №%s изменён на: %s", updated.ID, statusLabel(updated.Status)))
	}
	return nil
}

// SetMasterLoad overwrites a master's load.
func (c *Coordinator) SetMasterLoad(ctx context.Context, masterID string, load int) error {
	return c.masters.SetLoad(ctx, masterID, load)
}

// SendFeedback answers a report and tells its owner.
func (c *Coordinator) SendFeedback(ctx context.Context, reportID, feedback string) error {
	rep, err := c.reports.SetFeedback(ctx, reportID, feedback)
	if err != nil {
		return err
	}

	c.deliver(ctx, rep.UserID, fmt.Sprintf("📢 Новый фидбек по вашему отчету:\n\nВаш отчет: %s\n\nФидбек администратора: %s", rep.Text, feedback))
	return nil
}

// SaveUser creates or edits a user record. Promoting a user to admin also
// drops any masters row so the role resolver cannot see both.
func (c *Coordinator) SaveUser(ctx context.Context, params user.SaveParams) (user.User, error) {
	return c.users.AdminSave(ctx, params)
}

// ResolveApplication is the panel's counterpart of the confirm-master
// dialogue.
func (c *Coordinator) ResolveApplication(ctx context.Context, applicantID string, decision master.Decision) error {
	if err := c.masters.Resolve(ctx, applicantID, decision); err != nil {
		return err
	}

	if decision == master.DecisionConfirm {
		c.deliver(ctx, applicantID, "✅ Ваш запрос на статус мастера подтвержден!")
	} else {
		c.deliver(ctx, applicantID, "❌ Ваш запрос на статус мастера отклонен.")
	}
	return nil
}

// DemoteMaster removes a user's masters row.
func (c *Coordinator) DemoteMaster(ctx context.Context, userID string) error {
	return c.masters.Demote(ctx, userID)
}

// MasterRoster lists confirmed masters for the panel.
func (c *Coordinator) MasterRoster(ctx context.Context) ([]master.Master, error) {
	return c.masters.List(ctx)
}

// AllReports lists every report for the panel.
func (c *Coordinator) AllReports(ctx context.Context) ([]report.Report, error) {
	return c.reports.List(ctx)
}
