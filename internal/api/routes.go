// 文件: internal/api/routes.go
package api

import (
	"Tracks_Transfer/internal/task"
	"Tracks_Transfer/pkg/database"
	"Tracks_Transfer/pkg/transfer"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RegisterRoutes 注册所有API路由
func RegisterRoutes(tm *task.Manager, tr *transfer.Transferer, db database.Store, configPath string) *chi.Mux {
	r := chi.NewRouter()

	// --- 中间件 (Middleware) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	handlers := NewAPIHandlers(tm, tr, db, configPath)

	// --- API路由 ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tasks/transfer", handlers.HandleStartTransferTask)
		r.Get("/tasks/{taskId}", handlers.HandleGetTaskStatus)
		r.Post("/preview", handlers.HandlePreview)
		r.Get("/transfers", handlers.HandleListTransfers)
		r.Get("/config", handlers.HandleGetConfig)
		r.Put("/config", handlers.HandleUpdateConfig)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
