package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/talentlink/talentlink/internal/config"
	"github.com/talentlink/talentlink/internal/db"
	"github.com/talentlink/talentlink/internal/handlers"
	"github.com/talentlink/talentlink/internal/middleware"
	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/realtime"
	"github.com/talentlink/talentlink/internal/services/notify"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	gormDB, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Job{},
		&models.Proposal{},
		&models.JobApplication{},
		&models.Contract{},
		&models.Workspace{},
		&models.WorkspaceTask{},
		&models.TaskComment{},
		&models.PaymentTransaction{},
		&models.PaymentRequest{},
		&models.Review{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		log.Fatal("failed to migrate:", err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)

	hub := realtime.NewHub()
	go hub.Run()

	notifier := notify.NewService(gormDB, hub, rdb)

	app := fiber.New(fiber.Config{
		AppName: "TalentLink API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendBaseURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	authH := &handlers.AuthHandler{DB: gormDB, JWTSecret: cfg.JWTSecret, Expires: cfg.JWTExpiresMin}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gormDB,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	projectH := handlers.NewProjectHandler(gormDB)
	jobH := handlers.NewJobHandler(gormDB)
	proposalH := handlers.NewProposalHandler(gormDB, notifier)
	applicationH := handlers.NewApplicationHandler(gormDB, notifier)
	contractH := handlers.NewContractHandler(gormDB, notifier)
	workspaceH := handlers.NewWorkspaceHandler(gormDB, notifier)
	taskH := handlers.NewTaskHandler(gormDB, notifier)
	paymentH := handlers.NewPaymentHandler(gormDB, notifier)
	reviewH := handlers.NewReviewHandler(gormDB, notifier)
	notificationH := handlers.NewNotificationHandler(gormDB)
	chatH := handlers.NewChatHandler(gormDB, hub, notifier)
	wsH := handlers.NewWSHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authH.Register)
	auth.Post("/login", authH.Login)
	auth.Get("/google", googleH.GoogleStart)
	auth.Get("/google/callback", googleH.GoogleCallback)

	authed := api.Group("", middleware.JWTFromHeader(cfg.JWTSecret), middleware.AttachJWTLocals())

	authed.Get("/auth/me", authH.Me)
	authed.Post("/auth/logout", authH.Logout)

	client := middleware.RequireRoles(string(models.RoleClient))
	freelancer := middleware.RequireRoles(string(models.RoleFreelancer))

	projects := authed.Group("/projects")
	projects.Get("/", projectH.List)
	projects.Get("/mine", client, projectH.ListMine)
	projects.Post("/", client, projectH.Create)
	projects.Get("/:id", projectH.Get)
	projects.Put("/:id", client, projectH.Update)
	projects.Delete("/:id", client, projectH.Delete)

	jobs := authed.Group("/jobs")
	jobs.Get("/", jobH.List)
	jobs.Get("/mine", client, jobH.ListMine)
	jobs.Post("/", client, jobH.Create)
	jobs.Get("/:id", jobH.Get)
	jobs.Put("/:id", client, jobH.Update)
	jobs.Delete("/:id", client, jobH.Delete)

	proposals := authed.Group("/proposals")
	proposals.Post("/", freelancer, proposalH.Create)
	proposals.Get("/", proposalH.List)
	proposals.Get("/:id", proposalH.Get)
	proposals.Post("/:id/accept", client, proposalH.Accept)
	proposals.Post("/:id/reject", client, proposalH.Reject)
	proposals.Post("/:id/withdraw", freelancer, proposalH.Withdraw)

	applications := authed.Group("/applications")
	applications.Post("/", freelancer, applicationH.Create)
	applications.Get("/", applicationH.List)
	applications.Post("/:id/accept", client, applicationH.Accept)
	applications.Post("/:id/reject", client, applicationH.Reject)
	applications.Post("/:id/withdraw", freelancer, applicationH.Withdraw)

	contracts := authed.Group("/contracts")
	contracts.Get("/", contractH.List)
	contracts.Get("/:id", contractH.Get)
	contracts.Post("/:id/sign", contractH.Sign)
	contracts.Post("/:id/cancel", contractH.Cancel)

	workspaces := authed.Group("/workspaces")
	workspaces.Get("/", workspaceH.List)
	workspaces.Get("/:id", workspaceH.Get)
	workspaces.Post("/:id/mark_complete", workspaceH.MarkComplete)
	workspaces.Get("/:id/payment_stats", workspaceH.PaymentStats)

	tasks := authed.Group("/tasks")
	tasks.Post("/", taskH.Create)
	tasks.Get("/", taskH.List)
	tasks.Get("/:id", taskH.Get)
	tasks.Post("/:id/update_status", taskH.UpdateStatus)
	tasks.Post("/:id/add_comment", taskH.AddComment)
	tasks.Get("/:id/comments", taskH.ListComments)

	payments := authed.Group("/payments")
	payments.Post("/", client, paymentH.Create)
	payments.Get("/", paymentH.List)
	payments.Post("/:id/confirm", freelancer, paymentH.Confirm)

	paymentRequests := authed.Group("/payment-requests")
	paymentRequests.Post("/", freelancer, paymentH.CreateRequest)
	paymentRequests.Get("/", paymentH.ListRequests)
	paymentRequests.Post("/:id/approve", client, paymentH.ApproveRequest)
	paymentRequests.Post("/:id/reject", client, paymentH.RejectRequest)

	reviews := authed.Group("/reviews")
	reviews.Post("/", reviewH.Create)
	reviews.Put("/:id", reviewH.Update)
	reviews.Delete("/:id", reviewH.Delete)
	authed.Get("/users/:id/reviews", reviewH.ListForUser)

	notifications := authed.Group("/notifications")
	notifications.Get("/", notificationH.List)
	notifications.Get("/unread_count", notificationH.UnreadCount)
	notifications.Post("/:id/read", notificationH.MarkRead)
	notifications.Post("/read_all", notificationH.MarkAllRead)

	conversations := authed.Group("/conversations")
	conversations.Get("/", chatH.ListConversations)
	conversations.Post("/", chatH.StartConversation)
	conversations.Get("/:id/messages", chatH.ListMessages)
	conversations.Post("/:id/messages", chatH.SendMessage)

	app.Use("/ws/notifications", wsH.Upgrade)
	app.Get("/ws/notifications", wsH.Serve())

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
