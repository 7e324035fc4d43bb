package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_unique_active_request",
			SQL: `SELECT client_id, COUNT(*) FROM service_requests
                  WHERE status <> 'completed'
                  GROUP BY client_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_load_bounds",
			SQL:  `SELECT user_id, load FROM masters WHERE load < 0 OR load > 100`,
		},
		{
			Name: "O3_admin_without_master_row",
			SQL: `SELECT u.id FROM users u
                  JOIN masters m ON m.user_id = u.id
                  WHERE u.role = 'admin'`,
		},
		{
			Name: "O4_assignee_confirmed",
			SQL: `SELECT r.id FROM service_requests r
                  WHERE r.master_id IS NOT NULL
                    AND NOT EXISTS (SELECT 1 FROM masters m WHERE m.user_id = r.master_id)`,
		},
		{
			Name: "O5_status_domain",
			SQL:  `SELECT id, status FROM service_requests WHERE status NOT IN ('pending','in_progress','completed')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
