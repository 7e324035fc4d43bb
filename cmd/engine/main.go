package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"masterflow/auth"
	"masterflow/db"
	"masterflow/dialog"
	"masterflow/master"
	"masterflow/notify"
	"masterflow/report"
	"masterflow/request"
	"masterflow/stats"
	"masterflow/user"
	"masterflow/workflow"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, relying on environment")
	}

	connString := os.Getenv("DATABASE_URL")
	pool, err := db.NewPool(ctx, connString)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}

	users := user.NewService(user.NewRepository(pool))
	if adminID := os.Getenv("ADMIN_USER_ID"); adminID != "" {
		if err := users.EnsureAdmin(ctx, adminID, os.Getenv("ADMIN_FULL_NAME"), os.Getenv("ADMIN_PHONE")); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}

	coordinator := workflow.New(
		users,
		request.NewService(request.NewRepository(pool)),
		master.NewService(master.NewRepository(pool)),
		report.NewService(report.NewRepository(pool)),
		stats.NewRepository(pool),
		dialog.NewStore(),
		notify.LogSender{},
	)

	adminAuth := auth.NewService(os.Getenv("ADMIN_LOGIN"), os.Getenv("ADMIN_PASSWORD_HASH"), os.Getenv("JWT_SECRET"))

	log.Printf("workflow engine ready: coordinator=%t admin-auth=%t", coordinator != nil, adminAuth != nil)
}
