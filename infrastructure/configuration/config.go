package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"creator-hub/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Automation  Automation  `json:"automation"`
	OAuth       OAuth       `json:"oauth"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port          int    `json:"port"`
	SecretKey     string `json:"secretKey"`
	PublicBaseURL string `json:"publicBaseURL"`
	AuthMode      string `json:"authMode"` // strict | permissive
	TLSEnabled    bool   `json:"tlsEnabled"`
	TLSCertFile   string `json:"tlsCertFile"`
	TLSKeyFile    string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mssql Db `json:"mssql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

// Automation configures the contract with the external workflow engine: where
// immediate triggers are pushed, and the shared secret the engine must present
// on every inbound call.
type Automation struct {
	WebhookURL   string `json:"webhookURL"`
	SharedSecret string `json:"sharedSecret"`
	CallbackPath string `json:"callbackPath"`
}

// OAuth holds per-platform client credentials for the connect flows.
type OAuth struct {
	YouTube   OAuthClient `json:"youtube"`
	Instagram OAuthClient `json:"instagram"`
	TikTok    OAuthClient `json:"tiktok"`
}

type OAuthClient struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	LoadConfig()
	initApp(&C)
	initDatabase(&C)
	initAutomation(&C)
	initOAuth(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
}

func getConfig() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		C.App.PublicBaseURL = strings.TrimRight(v, "/")
	}
	if C.App.PublicBaseURL == "" {
		C.App.PublicBaseURL = fmt.Sprintf("http://localhost:%d", C.App.Port)
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		C.App.AuthMode = v
	}
	if C.App.AuthMode == "" {
		C.App.AuthMode = "strict"
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = "localhost"
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = "5432"
	}

	// Optional MSSQL config for the production user store.
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_PORT"); v != "" && C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = "1433"
	}
}

func initAutomation(C *Config) {
	if v := os.Getenv("AUTOMATION_WEBHOOK_URL"); v != "" {
		C.Automation.WebhookURL = v
	}
	if v := os.Getenv("AUTOMATION_SHARED_SECRET"); v != "" {
		C.Automation.SharedSecret = v
	}
	if C.Automation.CallbackPath == "" {
		C.Automation.CallbackPath = "/api/automation/post-status"
	}
	if C.Automation.SharedSecret == "" {
		logger.GetLogger().Warn("Automation.SharedSecret not set; engine-facing endpoints will reject all calls.")
	}
}

func initOAuth(C *Config) {
	clients := []struct {
		name string
		c    *OAuthClient
	}{
		{"youtube", &C.OAuth.YouTube},
		{"instagram", &C.OAuth.Instagram},
		{"tiktok", &C.OAuth.TikTok},
	}
	for _, pc := range clients {
		prefix := strings.ToUpper(pc.name)
		if v := os.Getenv(prefix + "_CLIENT_ID"); v != "" && pc.c.ClientID == "" {
			pc.c.ClientID = v
		}
		if v := os.Getenv(prefix + "_CLIENT_SECRET"); v != "" && pc.c.ClientSecret == "" {
			pc.c.ClientSecret = v
		}
		// Redirect URIs must exactly match what each platform has registered;
		// default is computed from the public base URL.
		if pc.c.RedirectURI == "" {
			pc.c.RedirectURI = fmt.Sprintf("%s/auth/%s/callback", C.App.PublicBaseURL, pc.name)
		}
	}
}
