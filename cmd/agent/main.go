package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notification-agent/config"
	"notification-agent/internal/domain/repository"
	httpHandlers "notification-agent/internal/handler/http"
	"notification-agent/internal/infrastructure/cache"
	"notification-agent/internal/infrastructure/cue"
	"notification-agent/internal/infrastructure/repository/sqlite"
	"notification-agent/internal/infrastructure/rest"
	"notification-agent/internal/infrastructure/websocket"
	"notification-agent/internal/usecase"
	"notification-agent/pkg/events"
	"notification-agent/pkg/logging"
	"notification-agent/pkg/metrics"
	"notification-agent/pkg/throttling"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Cargar configuración
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Configurar logger
	logger := logging.NewLogger(
		logging.WithLevel(logging.ParseLevel(cfg.Logging.Level)),
		logging.WithPrefix("notification-agent"),
		logging.WithColors(cfg.Logging.UseColors),
	)

	logger.Info("Starting notification agent")

	metrics.SetupMetrics()

	// Gestor de eventos y su traducción a métricas
	eventManager := events.NewEventManager(logger, 200)
	metricsHandler := events.NewMetricsEventHandler()
	eventManager.Subscribe(events.EventReconnecting, metricsHandler)
	eventManager.Subscribe(events.EventGaveUp, metricsHandler)

	// Archivo local de notificaciones
	var archive repository.ArchiveRepository
	if cfg.Archive.Enabled {
		sqliteArchive, err := sqlite.NewArchiveRepository(cfg.Archive.Path)
		if err != nil {
			logger.Fatal("Failed to open notification archive: %v", err)
		}
		defer sqliteArchive.Close()
		archive = sqliteArchive
		logger.Info("Notification archive enabled at %s", cfg.Archive.Path)
	}

	// Fuente de la credencial bearer para el gateway REST
	tokenSource := func() string {
		return cfg.Session.Token
	}

	// Gateway REST de la plataforma
	gateway := rest.NewGateway(cfg.API.BaseURL, tokenSource, cfg.API.Timeout, logger)

	// Almacén de notificaciones
	serviceOptions := []usecase.NotificationServiceOption{
		usecase.WithEvents(eventManager),
	}
	if archive != nil {
		serviceOptions = append(serviceOptions, usecase.WithArchive(archive))
	}
	notificationService := usecase.NewNotificationService(gateway, logger, serviceOptions...)

	// Señal sonora
	var cuePlayer cue.Player
	var cueThrottle throttling.Throttler
	if cfg.Cue.Enabled {
		cuePlayer = cue.NewCommandPlayer(cfg.Cue.Command, cfg.Cue.Asset)
		cueThrottle = throttling.NewRateThrottler(cfg.Cue.PerSecond, cfg.Cue.Burst)
	}

	// Caché de frames vistos para absorber redeliveries del canal
	seenCache := cache.NewSeenCache(cfg.WebSocket.SeenTTL, time.Minute)
	defer seenCache.Stop()

	// Transporte de push
	transport := websocket.NewTransport(notificationService, websocket.Options{
		URL:            cfg.WebSocket.URL,
		PingInterval:   cfg.WebSocket.PingInterval,
		PongWait:       cfg.WebSocket.PongWait,
		WriteWait:      cfg.WebSocket.WriteWait,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		Policy: websocket.ReconnectPolicy{
			BaseDelay:   cfg.Reconnect.BaseDelay,
			MaxDelay:    cfg.Reconnect.MaxDelay,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
		Cue:         cuePlayer,
		CueThrottle: cueThrottle,
		Seen:        seenCache,
		Events:      eventManager,
		Logger:      logger,
	})

	sessionService := usecase.NewSessionService(transport, logger)

	// Arrancar la sesión si hay credenciales configuradas
	if cfg.Session.UserID != "" && cfg.Session.Token != "" {
		if err := sessionService.Start(cfg.Session.UserID, cfg.Session.Token); err != nil {
			// La política de re-conexión sigue en segundo plano; el fallo
			// inicial no es fatal
			logger.Warn("Initial push channel connection failed: %v", err)
		}

		// Sincronización inicial contra la plataforma
		syncCtx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
		if err := notificationService.FetchAll(syncCtx); err != nil {
			logger.Warn("Initial notification sync failed: %v", err)
		}
		cancel()
	} else {
		logger.Warn("No session credentials configured, agent starts idle")
	}

	// Crear handlers HTTP
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService, archive)
	connectionHandler := httpHandlers.NewConnectionHandler(sessionService, eventManager)
	healthHandler := httpHandlers.NewHealthHandler(sessionService)

	// Crear router
	router := mux.NewRouter()

	// Rutas API
	apiRouter := router.PathPrefix("/api").Subrouter()

	// Rutas de notificaciones
	apiRouter.HandleFunc("/notifications", notificationHandler.ListNotifications).Methods("GET")
	apiRouter.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	apiRouter.HandleFunc("/notifications/refresh", notificationHandler.Refresh).Methods("POST")
	apiRouter.HandleFunc("/notifications/read-all", notificationHandler.MarkAllRead).Methods("POST")
	apiRouter.HandleFunc("/notifications/history", notificationHandler.GetHistory).Methods("GET")
	apiRouter.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods("POST")
	apiRouter.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")

	// Rutas de conexión
	apiRouter.HandleFunc("/connection", connectionHandler.GetStatus).Methods("GET")
	apiRouter.HandleFunc("/events", connectionHandler.GetEvents).Methods("GET")

	// Rutas de health y métricas
	router.HandleFunc("/health", healthHandler.Check).Methods("GET")

	if cfg.Monitoring.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}

	// Configurar middleware
	router.Use(createLoggingMiddleware(logger))

	// Configurar servidor HTTP
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Iniciar el servidor en una goroutine
	go func() {
		logger.Info("Starting local server on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	gracefulShutdown(srv, sessionService, cfg.Server.ShutdownTimeout, logger)
}

// Middleware para loggear peticiones
func createLoggingMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("%s %s %s", r.Method, r.RequestURI, time.Since(start))
		})
	}
}

// Manejo de cierre gracioso
func gracefulShutdown(srv *http.Server, sessionService *usecase.SessionService, timeout time.Duration, logger *logging.Logger) {
	// Canal para recibir señales de sistema
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Esperar señal
	<-stop
	logger.Info("Shutting down gracefully...")

	// Crear contexto con timeout para shutdown
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Primero cerrar el servidor HTTP local
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error: %v", err)
	}

	// Luego cerrar la sesión y el canal de push
	if err := sessionService.Close(); err != nil {
		logger.Error("Session shutdown error: %v", err)
	}

	logger.Info("Agent gracefully stopped")
}
