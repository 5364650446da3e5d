package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config contiene todas las configuraciones del agente
type Config struct {
	API        APIConfig
	WebSocket  WebSocketConfig
	Reconnect  ReconnectConfig
	Session    SessionConfig
	Cue        CueConfig
	Archive    ArchiveConfig
	Server     ServerConfig
	Monitoring MonitoringConfig
	Logging    LoggingConfig
}

// APIConfig contiene la configuración del gateway REST de la plataforma
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// WebSocketConfig contiene la configuración del canal de push
type WebSocketConfig struct {
	URL            string
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SeenTTL        time.Duration
}

// ReconnectConfig contiene la política de re-conexión del canal de push
type ReconnectConfig struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// SessionConfig contiene las credenciales de la sesión autenticada
type SessionConfig struct {
	UserID string
	Token  string
}

// CueConfig contiene la configuración de la señal sonora
type CueConfig struct {
	Enabled   bool
	Command   string
	Asset     string
	PerSecond float64
	Burst     int
}

// ArchiveConfig contiene la configuración del archivo local de notificaciones
type ArchiveConfig struct {
	Enabled bool
	Path    string
}

// ServerConfig contiene la configuración del servidor HTTP local del agente
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// MonitoringConfig contiene la configuración de monitoreo
type MonitoringConfig struct {
	MetricsEnabled bool
}

// LoggingConfig contiene la configuración de logging
type LoggingConfig struct {
	Level     string
	UseColors bool
}

// LoadConfig carga la configuración desde variables de entorno o archivo .env
func LoadConfig() (*Config, error) {
	// Cargar variables de entorno del archivo .env si existe
	_ = godotenv.Load() // No importa si falla (en producción no se usa .env)

	config := &Config{
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8080/api"),
			Timeout: getEnvAsDuration("API_TIMEOUT", 10*time.Second),
		},
		WebSocket: WebSocketConfig{
			URL:            getEnv("WS_URL", "ws://localhost:8080/ws"),
			PingInterval:   getEnvAsDuration("WS_PING_INTERVAL", 54*time.Second),
			PongWait:       getEnvAsDuration("WS_PONG_WAIT", 60*time.Second),
			WriteWait:      getEnvAsDuration("WS_WRITE_WAIT", 10*time.Second),
			MaxMessageSize: getEnvAsInt64("WS_MAX_MESSAGE_SIZE", 4096),
			SeenTTL:        getEnvAsDuration("WS_SEEN_TTL", 5*time.Minute),
		},
		Reconnect: ReconnectConfig{
			BaseDelay:   getEnvAsDuration("RECONNECT_BASE_DELAY", 500*time.Millisecond),
			MaxDelay:    getEnvAsDuration("RECONNECT_MAX_DELAY", 3000*time.Millisecond),
			MaxAttempts: getEnvAsInt("RECONNECT_MAX_ATTEMPTS", 5),
		},
		Session: SessionConfig{
			UserID: getEnv("SESSION_USER_ID", ""),
			Token:  getEnv("SESSION_TOKEN", ""),
		},
		Cue: CueConfig{
			Enabled:   getEnvAsBool("CUE_ENABLED", false),
			Command:   getEnv("CUE_COMMAND", "aplay"),
			Asset:     getEnv("CUE_ASSET", "assets/notification.wav"),
			PerSecond: getEnvAsFloat("CUE_PER_SECOND", 0.5),
			Burst:     getEnvAsInt("CUE_BURST", 2),
		},
		Archive: ArchiveConfig{
			Enabled: getEnvAsBool("ARCHIVE_ENABLED", true),
			Path:    getEnv("ARCHIVE_PATH", "notifications.db"),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8090),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Monitoring: MonitoringConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		Logging: LoggingConfig{
			Level:     getEnv("LOG_LEVEL", "INFO"),
			UseColors: getEnvAsBool("LOG_USE_COLORS", true),
		},
	}

	return config, nil
}

// Funciones auxiliares para obtener variables de entorno

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
