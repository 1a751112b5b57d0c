package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/AvineetYadav/CHAT-APP/internal/config"
	"github.com/AvineetYadav/CHAT-APP/internal/database"
	postgresrepo "github.com/AvineetYadav/CHAT-APP/internal/repository/postgres"
	"github.com/AvineetYadav/CHAT-APP/internal/service"
	"github.com/AvineetYadav/CHAT-APP/internal/storage"
	"github.com/AvineetYadav/CHAT-APP/internal/transport/http/handlers"
	"github.com/AvineetYadav/CHAT-APP/internal/transport/http/middleware"
	"github.com/AvineetYadav/CHAT-APP/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Blob store
	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		log.Fatal(err)
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	convRepo := postgresrepo.NewConversationRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	userService := service.NewUserService(userRepo)
	convService := service.NewConversationService(convRepo, userRepo)
	messageService := service.NewMessageService(messageRepo, convRepo)

	// Realtime hub
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()
	messageService.SetNotifier(ws.NewHubNotifier(hub))

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, store)
	userHandler := handlers.NewUserHandler(userService)
	convHandler := handlers.NewConversationHandler(convService)
	messageHandler := handlers.NewMessageHandler(messageService, store)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(store.Dir()))))

	// Protected - Auth
	mux.Handle("GET /api/auth/me", auth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/profile", auth(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("POST /api/auth/avatar", auth(http.HandlerFunc(authHandler.UploadAvatar)))

	// Protected - Users
	mux.Handle("GET /api/users/search", auth(http.HandlerFunc(userHandler.Search)))
	mux.Handle("GET /api/users/{id}", auth(http.HandlerFunc(userHandler.Get)))

	// Protected - Conversations
	mux.Handle("GET /api/conversations", auth(http.HandlerFunc(convHandler.List)))
	mux.Handle("POST /api/conversations", auth(http.HandlerFunc(convHandler.Create)))
	mux.Handle("GET /api/conversations/{id}", auth(http.HandlerFunc(convHandler.Get)))
	mux.Handle("PUT /api/conversations/{id}", auth(http.HandlerFunc(convHandler.Update)))
	mux.Handle("DELETE /api/conversations/{id}", auth(http.HandlerFunc(convHandler.Delete)))
	mux.Handle("POST /api/conversations/{id}/users", auth(http.HandlerFunc(convHandler.AddUser)))
	mux.Handle("DELETE /api/conversations/{id}/users/{userId}", auth(http.HandlerFunc(convHandler.RemoveUser)))

	// Protected - Messages
	mux.Handle("GET /api/messages/{conversationId}", auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("POST /api/messages", auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("POST /api/messages/upload", auth(http.HandlerFunc(messageHandler.Upload)))
	mux.Handle("DELETE /api/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))

	// Realtime channel
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
