package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal/auditlog"
	"github.com/frahmantamala/expense-approval/internal/auth"
	"github.com/frahmantamala/expense-approval/internal/category"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/frahmantamala/expense-approval/internal/masterdata"
	"github.com/frahmantamala/expense-approval/internal/storage"
	"github.com/frahmantamala/expense-approval/internal/transport/middleware"
	"github.com/frahmantamala/expense-approval/internal/transport/swagger"
	"github.com/frahmantamala/expense-approval/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Expense    *expense.Handler
	Category   *category.Handler
	MasterData *masterdata.Handler
	AuditLog   *auditlog.Handler
	Storage    *storage.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Public categories route (no auth required)
		r.Get("/categories", h.Category.GetCategories)

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			// Current user
			pr.Get("/users/me", h.User.GetCurrentUser)

			// Master data (read-only for all authenticated users)
			pr.Get("/projects", h.MasterData.GetProjects)
			pr.Get("/sites", h.MasterData.GetSites)

			// Attachment uploads back expense receipts and payment proofs
			pr.Post("/attachments", h.Storage.Upload)
			pr.Get("/attachments/{ref}", h.Storage.Download)

			// Expense routes; role checks for workflow moves live in the
			// domain's transition rules, not in route middleware.
			pr.Route("/expenses", func(er chi.Router) {
				er.Post("/", h.Expense.CreateExpense)
				er.Get("/", h.Expense.ListExpenses)
				er.Post("/bulk-status", h.Expense.BulkTransition)
				er.Get("/stats", h.Expense.ExpenseStats)
				er.Get("/{id}", h.Expense.GetExpense)
				er.Patch("/{id}/verify", h.Expense.VerifyExpense)
				er.Patch("/{id}/approve", h.Expense.ApproveExpense)
				er.Patch("/{id}/reject", h.Expense.RejectExpense)
				er.Patch("/{id}/pay", h.Expense.MarkPaid)
				er.Patch("/{id}/priority", h.Expense.TogglePriority)
				er.Post("/{id}/comments", h.Expense.AddComment)
				er.Delete("/{id}", h.Expense.DeleteExpense)
				er.Post("/{id}/restore", h.Expense.RestoreExpense)
				er.Delete("/{id}/purge", h.Expense.PurgeExpense)
			})

			// Admin surface
			pr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireRole(auth.RoleAdmin))

				ar.Route("/admin", func(adm chi.Router) {
					adm.Get("/users", h.User.ListUsers)
					adm.Post("/users", h.User.CreateUser)
					adm.Patch("/users/{id}", h.User.UpdateUser)

					adm.Get("/categories", h.Category.GetAllCategories)
					adm.Post("/categories", h.Category.CreateCategory)
					adm.Get("/categories/{id}", h.Category.GetCategory)
					adm.Patch("/categories/{id}", h.Category.UpdateCategory)
					adm.Post("/categories/{id}/subcategories", h.Category.CreateSubcategory)

					adm.Post("/projects", h.MasterData.CreateProject)
					adm.Post("/sites", h.MasterData.CreateSite)

					adm.Get("/audit-logs", h.AuditLog.ListAuditLogs)
				})
			})
		})
	})
}
