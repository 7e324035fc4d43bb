// Package workflow is the engine core: it routes each inbound user event
// through registration, the per-user dialogue store, and the role-gated
// action table, and turns the outcome into a reply. Notifications to other
// users go out only after the underlying state change committed.
package workflow

import (
	"context"
	"errors"
	"log"
	"strings"

	"masterflow/dialog"
	"masterflow/master"
	"masterflow/notify"
	"masterflow/report"
	"masterflow/request"
	"masterflow/stats"
	"masterflow/user"
)

const cmdStart = "/start"

// Inbound action labels. These double as the menu entries shown per role.
const (
	ActionSubmitReport  = "📝 Отправить отчёт"
	ActionRequestMaster = "🔧 Вызвать мастера"
	ActionViewFeedback  = "📨 Посмотреть фидбек"
	ActionBecomeMaster  = "/become_master"

	ActionMyRequests     = "📋 Мои заявки"
	ActionCurrentAddress = "📍 Текущий адрес"
	ActionMessageClient  = "✉️ Сообщить клиенту"
	ActionChangeStatus   = "🔄 Изменить статус заявки"

	ActionListUsers       = "👥 Пользователи"
	ActionStats           = "📊 Статистика"
	ActionPendingRequests = "🔔 Новые заявки"
	ActionConfirmMaster   = "✅ Подтвердить мастера"
)

const (
	msgChooseAction = "Выберите действие:"
	msgNeedStart    = "👋 Добро пожаловать! Отправьте /start для регистрации."
	msgInternal     = "⚠️ Произошла ошибка. Попробуйте позже."
)

// Users is the slice of the user service the coordinator consumes.
type Users interface {
	Register(ctx context.Context, id, fullName, phone string) (user.User, error)
	IsRegistered(ctx context.Context, id string) (bool, error)
	ResolveRole(ctx context.Context, id string) (user.Role, error)
	Get(ctx context.Context, id string) (user.User, error)
	AdminID(ctx context.Context) (string, error)
	AdminSave(ctx context.Context, params user.SaveParams) (user.User, error)
}

// Requests is the slice of the request service the coordinator consumes.
type Requests interface {
	Create(ctx context.Context, clientID, address string) (request.Request, error)
	Assign(ctx context.Context, requestID string, masterID *string, status request.Status) (request.Request, error)
	AdvanceStatus(ctx context.Context, masterID string, next request.Status) (request.Advance, error)
	CurrentAddress(ctx context.Context, masterID string) (string, error)
	ActiveClient(ctx context.Context, masterID string) (clientID, requestID string, err error)
	ListForMaster(ctx context.Context, masterID string) ([]request.MasterView, error)
}

// Masters is the slice of the master service the coordinator consumes.
type Masters interface {
	Apply(ctx context.Context, userID string) error
	Applications(ctx context.Context) ([]master.Application, error)
	Resolve(ctx context.Context, userID string, decision master.Decision) error
	SetLoad(ctx context.Context, masterID string, load int) error
	Demote(ctx context.Context, userID string) error
	List(ctx context.Context) ([]master.Master, error)
}

// Reports is the slice of the report service the coordinator consumes.
type Reports interface {
	Create(ctx context.Context, userID, text string) error
	Recent(ctx context.Context, userID string) ([]report.Report, error)
	SetFeedback(ctx context.Context, reportID, feedback string) (report.Report, error)
	List(ctx context.Context) ([]report.Report, error)
}

// Stats serves the admin's read-only projections.
type Stats interface {
	Overview(ctx context.Context) (stats.Overview, error)
	Users(ctx context.Context) ([]stats.UserRow, error)
	PendingRequests(ctx context.Context) ([]stats.PendingRow, error)
}

// Coordinator wires the domain services behind one inbound entry point.
type Coordinator struct {
	users     Users
	requests  Requests
	masters   Masters
	reports   Reports
	stats     Stats
	dialogues *dialog.Store
	sender    notify.Sender

	actions map[string]action
}

type action struct {
	role   user.Role
	handle func(ctx context.Context, userID string) string
}

// New creates a coordinator over the domain services.
func New(users Users, requests Requests, masters Masters, reports Reports, st Stats, dialogues *dialog.Store, sender notify.Sender) *Coordinator {
	c := &Coordinator{
		users:     users,
		requests:  requests,
		masters:   masters,
		reports:   reports,
		stats:     st,
		dialogues: dialogues,
		sender:    sender,
	}
	c.actions = map[string]action{
		ActionSubmitReport:  {user.RoleClient, c.startReport},
		ActionRequestMaster: {user.RoleClient, c.startRequestMaster},
		ActionViewFeedback:  {user.RoleClient, c.viewFeedback},
		ActionBecomeMaster:  {user.RoleClient, c.becomeMaster},

		ActionMyRequests:     {user.RoleMaster, c.myRequests},
		ActionCurrentAddress: {user.RoleMaster, c.currentAddress},
		ActionMessageClient:  {user.RoleMaster, c.startMessageClient},
		ActionChangeStatus:   {user.RoleMaster, c.startChangeStatus},

		ActionListUsers:       {user.RoleAdmin, c.listUsers},
		ActionStats:           {user.RoleAdmin, c.showStats},
		ActionPendingRequests: {user.RoleAdmin, c.pendingRequests},
		ActionConfirmMaster:   {user.RoleAdmin, c.startConfirmMaster},
	}
	return c
}

// HandleEvent processes one inbound message and returns the reply text.
// Internal failures are logged and surface as a generic error reply; the
// caller never sees raw errors.
func (c *Coordinator) HandleEvent(ctx context.Context, userID, text string) string {
	text = strings.TrimSpace(text)

	// /start always resets: it abandons any half-finished dialogue.
	if text == cmdStart {
		c.dialogues.Cancel(userID)
		return c.handleStart(ctx, userID)
	}

	if _, open := c.dialogues.Active(userID); open {
		return c.continueDialogue(ctx, userID, text)
	}

	registered, err := c.users.IsRegistered(ctx, userID)
	if err != nil {
		return c.internal("check registration", err)
	}
	if !registered {
		return msgNeedStart
	}

	act, ok := c.actions[text]
	if !ok {
		return c.menu(ctx, userID)
	}

	role, err := c.users.ResolveRole(ctx, userID)
	if err != nil {
		return c.internal("resolve role", err)
	}
	if role != act.role {
		return roleDenied(act.role)
	}
	return act.handle(ctx, userID)
}

func (c *Coordinator) handleStart(ctx context.Context, userID string) string {
	registered, err := c.users.IsRegistered(ctx, userID)
	if err != nil {
		return c.internal("check registration", err)
	}
	if registered {
		return c.menu(ctx, userID)
	}
	prompt, err := c.dialogues.Begin(userID, dialog.KindRegistration)
	if err != nil {
		return c.internal("begin registration", err)
	}
	return prompt
}

func (c *Coordinator) continueDialogue(ctx context.Context, userID, text string) string {
	res, err := c.dialogues.Submit(userID, text)
	if err != nil {
		// The dialogue vanished between Active and Submit; fall back to the menu.
		return c.menu(ctx, userID)
	}

	switch res.Outcome {
	case dialog.Rejected:
		return rejectionMessage(res.Err)
	case dialog.Advanced:
		return res.Prompt
	default:
		return c.completeDialogue(ctx, userID, res)
	}
}

func (c *Coordinator) menu(ctx context.Context, userID string) string {
	role, err := c.users.ResolveRole(ctx, userID)
	if err != nil {
		return c.internal("resolve role", err)
	}

	var entries []string
	switch role {
	case user.RoleAdmin:
		entries = []string{ActionListUsers, ActionStats, ActionPendingRequests, ActionConfirmMaster}
	case user.RoleMaster:
		entries = []string{ActionMyRequests, ActionCurrentAddress, ActionMessageClient, ActionChangeStatus}
	default:
		entries = []string{ActionSubmitReport, ActionRequestMaster, ActionViewFeedback}
	}
	return msgChooseAction + "\n" + strings.Join(entries, "\n")
}

func (c *Coordinator) internal(op string, err error) string {
	log.Printf("workflow: %s: %v", op, err)
	return msgInternal
}

// deliver pushes a post-commit notification. Delivery failure never undoes
// the state change; it is logged and the flow continues.
func (c *Coordinator) deliver(ctx context.Context, userID, text string) bool {
	if err := c.sender.Notify(ctx, userID, text); err != nil {
		log.Printf("workflow: notify %s: %v", userID, err)
		return false
	}
	return true
}

func roleDenied(role user.Role) string {
	switch role {
	case user.RoleAdmin:
		return "⚠️ Эта команда доступна только администраторам!"
	case user.RoleMaster:
		return "⚠️ Эта команда доступна только мастерам!"
	default:
		return "⚠️ Эта команда доступна только клиентам!"
	}
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, user.ErrInvalidFullName):
		return "⚠️ Введите корректное ФИО (не менее 3 букв, только буквы и пробелы)."
	case errors.Is(err, user.ErrInvalidPhone):
		return "⚠️ Неверный формат телефона. Используйте международный формат (например: +71234567890)."
	case errors.Is(err, dialog.ErrBadStatusChoice):
		return "⚠️ Выберите статус: pending, in_progress или completed."
	case errors.Is(err, dialog.ErrBadDecision):
		return "⚠️ Ошибка. Формат: 'ID confirm' или 'ID reject'."
	default:
		return "⚠️ Сообщение не должно быть пустым."
	}
}
