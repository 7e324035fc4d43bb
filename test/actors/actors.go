package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"masterflow/master"
	"masterflow/request"
	"masterflow/user"
)

var statuses = []request.Status{request.StatusPending, request.StatusInProgress, request.StatusCompleted}

func pause(minMS, spreadMS int) {
	time.Sleep(time.Duration(minMS+rand.Intn(spreadMS)) * time.Millisecond)
}

// RequestCreator hammers Create for one client. Under contention every
// attempt but the first must fail with the active-request conflict until
// someone completes the open request.
func RequestCreator(ctx context.Context, svc *request.Service, clientID string, stop <-chan struct{}) error {
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := svc.Create(ctx, clientID, fmt.Sprintf("ул. Стресс, %d", i))
		if err != nil && !errors.Is(err, request.ErrActiveRequestExists) {
			return fmt.Errorf("creator: %w", err)
		}
		pause(10, 20)
	}
}

// Assigner picks a random pending request and hands it to a random confirmed
// master.
func Assigner(ctx context.Context, pool *pgxpool.Pool, svc *request.Service, masterIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		var reqID string
		err := pool.QueryRow(ctx, `SELECT id FROM service_requests WHERE status = 'pending' ORDER BY random() LIMIT 1`).Scan(&reqID)
		if err == nil {
			masterID := masterIDs[rand.Intn(len(masterIDs))]
			_, err = svc.Assign(ctx, reqID, &masterID, request.StatusInProgress)
			if err != nil && !errors.Is(err, request.ErrNotFound) &&
				!errors.Is(err, request.ErrMasterNotConfirmed) &&
				!errors.Is(err, request.ErrActiveRequestExists) {
				return fmt.Errorf("assigner: %w", err)
			}
		} else if !errors.Is(err, pgx.ErrNoRows) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("assigner pick: %w", err)
		}
		pause(15, 30)
	}
}

// RogueAssigner keeps trying to hand requests to users who never got
// confirmed. Every attempt must bounce.
func RogueAssigner(ctx context.Context, pool *pgxpool.Pool, svc *request.Service, impostorID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		var reqID string
		err := pool.QueryRow(ctx, `SELECT id FROM service_requests ORDER BY random() LIMIT 1`).Scan(&reqID)
		if err == nil {
			_, err = svc.Assign(ctx, reqID, &impostorID, request.StatusInProgress)
			switch {
			case err == nil:
				return fmt.Errorf("rogue assigner: unconfirmed user %s accepted", impostorID)
			case errors.Is(err, request.ErrMasterNotConfirmed), errors.Is(err, request.ErrNotFound):
			default:
				return fmt.Errorf("rogue assigner: %w", err)
			}
		} else if !errors.Is(err, pgx.ErrNoRows) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("rogue assigner pick: %w", err)
		}
		pause(20, 40)
	}
}

// Advancer walks the master's current request through random transitions.
func Advancer(ctx context.Context, svc *request.Service, masterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		next := statuses[rand.Intn(len(statuses))]
		_, err := svc.AdvanceStatus(ctx, masterID, next)
		if err != nil && !errors.Is(err, request.ErrNoActiveRequest) && !errors.Is(err, request.ErrStatusUnchanged) {
			return fmt.Errorf("advancer: %w", err)
		}
		pause(15, 35)
	}
}

// LoadEditor writes random loads, including out-of-range values that must be
// rejected rather than clamped.
func LoadEditor(ctx context.Context, svc *master.Service, masterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		load := rand.Intn(141) - 20
		err := svc.SetLoad(ctx, masterID, load)
		switch {
		case err == nil:
		case errors.Is(err, master.ErrLoadOutOfRange):
			if load >= master.MinLoad && load <= master.MaxLoad {
				return fmt.Errorf("load editor: valid load %d rejected", load)
			}
		case errors.Is(err, master.ErrMasterNotFound):
		default:
			return fmt.Errorf("load editor: %w", err)
		}
		pause(10, 25)
	}
}

// Applicant re-applies for master status until a confirmation lands, then
// stops so the promoted user never holds a fresh application.
func Applicant(ctx context.Context, users *user.Service, masters *master.Service, userID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		role, err := users.ResolveRole(ctx, userID)
		if err != nil {
			return fmt.Errorf("applicant role: %w", err)
		}
		if role == user.RoleMaster {
			return nil
		}

		if err := masters.Apply(ctx, userID); err != nil && !errors.Is(err, master.ErrApplicationExists) {
			return fmt.Errorf("applicant: %w", err)
		}
		pause(20, 40)
	}
}

// Resolver drains the application queue with random confirm/reject
// decisions.
func Resolver(ctx context.Context, svc *master.Service, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		apps, err := svc.Applications(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("resolver list: %w", err)
		}
		if len(apps) > 0 {
			pick := apps[rand.Intn(len(apps))]
			decision := master.DecisionReject
			if rand.Intn(2) == 0 {
				decision = master.DecisionConfirm
			}
			if err := svc.Resolve(ctx, pick.UserID, decision); err != nil && !errors.Is(err, master.ErrApplicationNotFound) {
				return fmt.Errorf("resolver: %w", err)
			}
		}
		pause(25, 50)
	}
}
