package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"websiter-server/internal/billing"
	"websiter-server/internal/config"
	"websiter-server/internal/domain"
	"websiter-server/internal/events"
	"websiter-server/internal/handler"
	"websiter-server/internal/middleware"
	"websiter-server/internal/repository"
	"websiter-server/internal/service"
	"websiter-server/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created database: %s", cfg.Database.Name)
	}

	clientRepo := repository.NewClientRepository(client, cfg.Database.Name)
	noteRepo := repository.NewNoteRepository(client, cfg.Database.Name)
	projectRepo := repository.NewProjectRepository(client, cfg.Database.Name)
	invoiceRepo := repository.NewInvoiceRepository(client, cfg.Database.Name)
	notificationRepo := repository.NewNotificationRepository(client, cfg.Database.Name)

	// Change bus: in-process by default, Redis when several server
	// instances share one feed.
	var bus events.Bus
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		bus = events.NewRedisBus(redisClient, cfg.Redis.Channel)
		log.Printf("Change feed backed by Redis at %s", cfg.Redis.Addr)
	} else {
		bus = events.NewMemoryBus()
	}
	defer bus.Close()

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	// Every committed change flows from the bus to the matching sockets.
	unsubscribe := bus.Subscribe(func(event domain.ChangeEvent) {
		if err := wsManager.BroadcastChange(event); err != nil {
			log.Printf("Failed to broadcast change: %v", err)
		}
	})
	defer unsubscribe()

	var biller service.Biller
	if cfg.Stripe.Enabled {
		biller = billing.NewService(billing.Config{
			SecretKey: cfg.Stripe.SecretKey,
			Currency:  cfg.Stripe.Currency,
		})
		log.Printf("Stripe billing enabled (%s)", cfg.Stripe.Currency)
	}

	authService := service.NewAuthService(clientRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	notificationService := service.NewNotificationService(notificationRepo, bus)
	noteService := service.NewNoteService(noteRepo, clientRepo, bus)
	projectService := service.NewProjectService(projectRepo, clientRepo, notificationService, bus)
	invoiceService := service.NewInvoiceService(invoiceRepo, projectRepo, clientRepo, biller, bus, cfg.Invoice.NumberPrefix, cfg.Invoice.DefaultTaxRate)

	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler(clientRepo))

	authHandler := handler.NewAuthHandler(authService)
	noteHandler := handler.NewNoteHandler(noteService)
	projectHandler := handler.NewProjectHandler(projectService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	wsHandler := handler.NewWebSocketHandler(wsManager, clientRepo, cfg.JWT.Secret)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret, clientRepo))

	admin := protected.PathPrefix("").Subrouter()
	admin.Use(middleware.AdminMiddleware())

	protected.HandleFunc("/me", authHandler.Me).Methods("GET", "OPTIONS")

	// Literal paths go in before the {id} routes that would otherwise
	// swallow them.
	admin.HandleFunc("/projects/board", projectHandler.Board).Methods("GET", "OPTIONS")
	protected.HandleFunc("/projects", projectHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/projects", projectHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/projects/{id}", projectHandler.Get).Methods("GET", "OPTIONS")
	admin.HandleFunc("/projects/{id}", projectHandler.Update).Methods("PUT", "OPTIONS")
	admin.HandleFunc("/projects/{id}/status", projectHandler.UpdateStatus).Methods("PUT", "OPTIONS")
	admin.HandleFunc("/projects/{id}", projectHandler.Delete).Methods("DELETE", "OPTIONS")

	admin.HandleFunc("/invoices", invoiceHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/invoices", invoiceHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/invoices/{id}", invoiceHandler.Get).Methods("GET", "OPTIONS")
	admin.HandleFunc("/invoices/{id}/send", invoiceHandler.Send).Methods("POST", "OPTIONS")
	admin.HandleFunc("/invoices/{id}/status", invoiceHandler.SetStatus).Methods("PUT", "OPTIONS")

	admin.HandleFunc("/notifications", notificationHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/notifications", notificationHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notifications/unread", notificationHandler.UnreadCount).Methods("GET", "OPTIONS")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods("POST", "OPTIONS")

	admin.HandleFunc("/clients", authHandler.ListClients).Methods("GET", "OPTIONS")
	admin.HandleFunc("/clients/{clientId}/notes", noteHandler.ListByClient).Methods("GET", "OPTIONS")
	admin.HandleFunc("/clients/{clientId}/notes/stats", noteHandler.Stats).Methods("GET", "OPTIONS")

	admin.HandleFunc("/notes", noteHandler.Create).Methods("POST", "OPTIONS")
	admin.HandleFunc("/notes/{id}", noteHandler.Get).Methods("GET", "OPTIONS")
	admin.HandleFunc("/notes/{id}", noteHandler.Update).Methods("PUT", "OPTIONS")
	admin.HandleFunc("/notes/{id}", noteHandler.Delete).Methods("DELETE", "OPTIONS")
	admin.HandleFunc("/notes/{id}/toggle", noteHandler.Toggle).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)
	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Websiter Server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"websiter-server"}`))
}
