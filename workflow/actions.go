package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"masterflow/dialog"
	"masterflow/master"
	"masterflow/request"
	"masterflow/user"
)

func statusLabel(s request.Status) string {
	switch s {
	case request.StatusPending:
		return "⏳ Ожидает"
	case request.StatusInProgress:
		return "🚗 В процессе"
	case request.StatusCompleted:
		return "✅ Завершена"
	default:
		return "❓ Неизвестно"
	}
}

// --- client actions ---

func (c *Coordinator) startReport(ctx context.Context, userID string) string {
	prompt, err := c.dialogues.Begin(userID, dialog.KindReport)
	if err != nil {
		return c.internal("begin report", err)
	}
	return prompt
}

func (c *Coordinator) startRequestMaster(ctx context.Context, userID string) string {
	prompt, err := c.dialogues.Begin(userID, dialog.KindRequestMaster)
	if err != nil {
		return c.internal("begin request", err)
	}
	return prompt
}

func (c *Coordinator) viewFeedback(ctx context.Context, userID string) string {
	reports, err := c.reports.Recent(ctx, userID)
	if err != nil {
		return c.internal("list feedback", err)
	}
	if len(reports) == 0 {
		return "ℹ️ У вас пока нет отчетов."
	}

	lines := []string{"Ваши последние отчеты и фидбек:"}
	for _, rep := range reports {
		feedback := "Нет фидбека"
		if rep.Feedback != nil {
			feedback = *rep.Feedback
		}
		lines = append(lines, fmt.Sprintf("Отчет: %s\nФидбек: %s\n", rep.Text, feedback))
	}
	return strings.Join(lines, "\n")
}

func (c *Coordinator) becomeMaster(ctx context.Context, userID string) string {
	if err := c.masters.Apply(ctx, userID); err != nil {
		if errors.Is(err, master.ErrApplicationExists) {
			return "⚠️ Вы уже отправили запрос на статус мастера. Ожидайте подтверждения."
		}
		return c.internal("apply master", err)
	}

	if adminID, err := c.users.AdminID(ctx); err == nil {
		applicant, gerr := c.users.Get(ctx, userID)
		name := userID
		if gerr == nil {
			name = applicant.FullName
		}
		c.deliver(ctx, adminID, fmt.Sprintf("Пользователь %s (ID: %s) запросил статус мастера.", name, userID))
	}
	return "✅ Запрос на статус мастера отправлен. Ожидайте подтверждения от администратора."
}

// --- master actions ---

func (c *Coordinator) myRequests(ctx context.Context, masterID string) string {
	views, err := c.requests.ListForMaster(ctx, masterID)
	if err != nil {
		return c.internal("list requests", err)
	}
	if len(views) == 0 {
		return "У вас нет активных заявок"
	}

	lines := []string{"Ваши заявки:"}
	for _, v := range views {
		lines = append(lines, fmt.Sprintf("№%s | Адрес: %s | Статус: %s | Клиент: %s", v.ID, v.Address, statusLabel(v.Status), v.ClientName))
	}
	return strings.Join(lines, "\n")
}

func (c *Coordinator) currentAddress(ctx context.Context, masterID string) string {
	address, err := c.requests.CurrentAddress(ctx, masterID)
	if err != nil {
		if errors.Is(err, request.ErrNoActiveRequest) {
			return "У вас нет активных заявок в работе"
		}
		return c.internal("current address", err)
	}
	return fmt.Sprintf("🏠 Текущий адрес: %s", address)
}

func (c *Coordinator) startMessageClient(ctx context.Context, masterID string) string {
	// Checked again at completion; the client is resolved from whatever
	// request is in progress at send time, not captured here.
	if _, _, err := c.requests.ActiveClient(ctx, masterID); err != nil {
		if errors.Is(err, request.ErrNoActiveRequest) {
			return "⚠️ У вас нет активных заявок для связи с клиентом."
		}
		return c.internal("resolve client", err)
	}

	prompt, err := c.dialogues.Begin(masterID, dialog.KindMessageClient)
	if err != nil {
		return c.internal("begin message", err)
	}
	return prompt
}

func (c *Coordinator) startChangeStatus(ctx context.Context, masterID string) string {
	views, err := c.requests.ListForMaster(ctx, masterID)
	if err != nil {
		return c.internal("list requests", err)
	}
	active := false
	for _, v := range views {
		if v.Status != request.StatusCompleted {
			active = true
			break
		}
	}
	if !active {
		return "⚠️ У вас нет активных заявок для изменения статуса."
	}

	prompt, err := c.dialogues.Begin(masterID, dialog.KindChangeStatus)
	if err != nil {
		return c.internal("begin status change", err)
	}
	return prompt
}

// --- admin actions ---

func (c *Coordinator) listUsers(ctx context.Context, _ string) string {
	users, err := c.stats.Users(ctx)
	if err != nil {
		return c.internal("list users", err)
	}

	lines := []string{"Список пользователей:"}
	for _, u := range users {
		var role string
		switch u.Role {
		case string(user.RoleAdmin):
			role = "👑 Админ"
		case string(user.RoleMaster):
			role = "👨‍🔧 Мастер"
		default:
			role = "👤 Клиент"
		}
		lines = append(lines, fmt.Sprintf("ID: %s | %s | %s", u.ID, u.FullName, role))
	}
	return strings.Join(lines, "\n")
}

func (c *Coordinator) showStats(ctx context.Context, _ string) string {
	o, err := c.stats.Overview(ctx)
	if err != nil {
		return c.internal("overview", err)
	}
	return fmt.Sprintf("📈 Статистика:\n👥 Всего пользователей: %d\n⏳ Ожидающих заявок: %d\n📦 Средняя загрузка мастеров: %.1f", o.TotalUsers, o.PendingRequests, o.AverageLoad)
}

func (c *Coordinator) pendingRequests(ctx context.Context, _ string) string {
	pending, err := c.stats.PendingRequests(ctx)
	if err != nil {
		return c.internal("pending requests", err)
	}
	if len(pending) == 0 {
		return "Нет новых заявок"
	}

	lines := []string{"Новые заявки:"}
	for _, p := range pending {
		lines = append(lines, fmt.Sprintf("№%s | Клиент: %s | Адрес: %s", p.ID, p.ClientName, p.Address))
	}
	return strings.Join(lines, "\n")
}

func (c *Coordinator) startConfirmMaster(ctx context.Context, adminID string) string {
	apps, err := c.masters.Applications(ctx)
	if err != nil {
		return c.internal("list applications", err)
	}
	if len(apps) == 0 {
		return "Нет запросов на статус мастера."
	}

	lines := []string{"Запросы на статус мастера:"}
	for _, a := range apps {
		lines = append(lines, fmt.Sprintf("ID: %s | %s", a.UserID, a.FullName))
	}

	prompt, err := c.dialogues.Begin(adminID, dialog.KindConfirmMaster)
	if err != nil {
		return c.internal("begin confirmation", err)
	}
	return strings.Join(lines, "\n") + "\n" + prompt
}

// --- dialogue completions ---

func (c *Coordinator) completeDialogue(ctx context.Context, userID string, res dialog.Result) string {
	switch res.Kind {
	case dialog.KindRegistration:
		return c.finishRegistration(ctx, userID, res.Fields)
	case dialog.KindReport:
		return c.finishReport(ctx, userID, res.Fields)
	case dialog.KindRequestMaster:
		return c.finishRequestMaster(ctx, userID, res.Fields)
	case dialog.KindMessageClient:
		return c.finishMessageClient(ctx, userID, res.Fields)
	case dialog.KindChangeStatus:
		return c.finishChangeStatus(ctx, userID, res.Fields)
	case dialog.KindConfirmMaster:
		return c.finishConfirmMaster(ctx, userID, res.Fields)
	default:
		return c.internal("complete dialogue", fmt.Errorf("unknown kind %q", res.Kind))
	}
}

func (c *Coordinator) finishRegistration(ctx context.Context, userID string, fields map[string]string) string {
	_, err := c.users.Register(ctx, userID, fields[dialog.FieldFullName], fields[dialog.FieldPhone])
	if err != nil {
		if errors.Is(err, user.ErrAlreadyRegistered) {
			return "⚠️ Вы уже зарегистрированы!"
		}
		return c.internal("register", err)
	}
	return c.menu(ctx, userID)
}

func (c *Coordinator) finishReport(ctx context.Context, userID string, fields map[string]string) string {
	if err := c.reports.Create(ctx, userID, fields[dialog.FieldText]); err != nil {
		return c.internal("save report", err)
	}
	return "✅ Отчёт успешно сохранён!"
}

func (c *Coordinator) finishRequestMaster(ctx context.Context, userID string, fields map[string]string) string {
	if _, err := c.requests.Create(ctx, userID, fields[dialog.FieldAddress]); err != nil {
		if errors.Is(err, request.ErrActiveRequestExists) {
			return "⚠️ У вас уже есть активная заявка!"
		}
		return c.internal("create request", err)
	}
	return "✅ Заявка создана! Администратор назначит мастера в ближайшее время."
}

func (c *Coordinator) finishMessageClient(ctx context.Context, masterID string, fields map[string]string) string {
	// Resolved again here: the in_progress request may have changed since
	// the dialogue started.
	clientID, _, err := c.requests.ActiveClient(ctx, masterID)
	if err != nil {
		if errors.Is(err, request.ErrNoActiveRequest) {
			return "⚠️ У вас нет активных заявок для связи с клиентом."
		}
		return c.internal("resolve client", err)
	}

	if !c.deliver(ctx, clientID, fmt.Sprintf("Сообщение от мастера: %s", fields[dialog.FieldText])) {
		return "⚠️ Ошибка при отправке сообщения"
	}
	return "✅ Сообщение отправлено клиенту!"
}

func (c *Coordinator) finishChangeStatus(ctx context.Context, masterID string, fields map[string]string) string {
	next := request.Status(fields[dialog.FieldStatus])
	adv, err := c.requests.AdvanceStatus(ctx, masterID, next)
	if err != nil {
		switch {
		case errors.Is(err, request.ErrStatusUnchanged):
			return "⚠️ Этот статус уже установлен."
		case errors.Is(err, request.ErrNoActiveRequest):
			return "⚠️ Нет активных заявок для изменения статуса."
		default:
			return c.internal("change status", err)
		}
	}

	label := statusLabel(adv.Next)
	c.deliver(ctx, adv.ClientID, fmt.Sprintf("ℹ️ Статус вашей заявки №%s изменён на: %s", adv.RequestID, label))
	return fmt.Sprintf("✅ Статус заявки №%s изменён на: %s", adv.RequestID, label)
}

func (c *Coordinator) finishConfirmMaster(ctx context.Context, adminID string, fields map[string]string) string {
	parts := strings.Fields(fields[dialog.FieldDecision])
	applicantID, decision := parts[0], master.Decision(parts[1])

	applicant, err := c.users.Get(ctx, applicantID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "⚠️ Пользователь не найден."
		}
		return c.internal("load applicant", err)
	}

	if err := c.masters.Resolve(ctx, applicantID, decision); err != nil {
		if errors.Is(err, master.ErrApplicationNotFound) {
			return "⚠️ Запрос от этого пользователя не найден."
		}
		return c.internal("resolve application", err)
	}

	if decision == master.DecisionConfirm {
		c.deliver(ctx, applicantID, "✅ Ваш запрос на статус мастера подтвержден!")
		return fmt.Sprintf("Пользователь %s теперь мастер.", applicant.FullName)
	}
	c.deliver(ctx, applicantID, "❌ Ваш запрос на статус мастера отклонен.")
	return fmt.Sprintf("Запрос пользователя %s отклонен.", applicant.FullName)
}
