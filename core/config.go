package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database engines
const (
	EngineMongoDB = "mongodb"
	EngineBolt    = "bolt"
)

// File storage backends
const (
	StorageLocal = "local"
	StorageB2    = "b2"
)

type (
	Config struct {
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		SendgridApiKey            string
		RollbarToken              string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration

		Server   serverConfig
		Database databaseConfig
		Storage  storageConfig

		defaultFromEmail string
	}

	serverConfig struct {
		Host            string
		Address         string
		DebugHost       string
		BodyLimit       string
		ShutdownTimeout time.Duration
	}

	databaseConfig struct {
		Engine         string
		URI            string
		Name           string
		BoltPath       string
		ConnectTimeout time.Duration
		MaxPoolSize    uint64
	}

	storageConfig struct {
		Backend     string
		Dir         string
		BaseURL     string
		B2AccountID string
		B2AppKey    string
		B2Bucket    string
	}
)

// NewConfig loads the configuration from the environment.
// `config/.env.<env>` is loaded first when it exists; real environment variables prefixed by
// the upper-cased env name (eg. DEV_DATABASE_URI) win over it.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "CSBS SYNC")
	v.SetDefault("secretKey", "x!8c)l7u2v$=f@d_%rg#cp1mz&o(j3w0+6n9q4e5yk*sah-b^t")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "CSBS SYNC <csbssync@gmail.com>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("jwtExpirationDelta", 48*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.bodyLimit", "20M")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("database.engine", EngineMongoDB)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "csbs_sync")
	v.SetDefault("database.boltPath", filepath.Join("var", "csbs_sync.db"))
	v.SetDefault("database.connectTimeout", 10*time.Second)
	v.SetDefault("database.maxPoolSize", 50)

	v.SetDefault("storage.backend", StorageLocal)
	v.SetDefault("storage.dir", filepath.Join("var", "uploads"))
	v.SetDefault("storage.baseURL", "/files")
	v.SetDefault("storage.b2AccountID", "")
	v.SetDefault("storage.b2AppKey", "")
	v.SetDefault("storage.b2Bucket", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
		JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		Server: serverConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			BodyLimit:       v.GetString("server.bodyLimit"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: databaseConfig{
			Engine:         strings.ToLower(v.GetString("database.engine")),
			URI:            v.GetString("database.uri"),
			Name:           v.GetString("database.name"),
			BoltPath:       v.GetString("database.boltPath"),
			ConnectTimeout: v.GetDuration("database.connectTimeout"),
			MaxPoolSize:    uint64(v.GetInt64("database.maxPoolSize")),
		},
		Storage: storageConfig{
			Backend:     strings.ToLower(v.GetString("storage.backend")),
			Dir:         v.GetString("storage.dir"),
			BaseURL:     strings.TrimSuffix(v.GetString("storage.baseURL"), "/"),
			B2AccountID: v.GetString("storage.b2AccountID"),
			B2AppKey:    v.GetString("storage.b2AppKey"),
			B2Bucket:    v.GetString("storage.b2Bucket"),
		},
		defaultFromEmail: v.GetString("defaultFromEmail"),
	}
}

// NewTestConfig returns a Config suitable for tests: no .env loading and no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "CSBS SYNC",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:3000",
		JWTExpirationDelta:        48 * time.Hour,
		JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
		Server: serverConfig{
			Host:            "localhost",
			BodyLimit:       "20M",
			ShutdownTimeout: time.Second,
		},
		Database: databaseConfig{
			Engine: EngineBolt,
			Name:   "csbs_sync_test",
		},
		Storage: storageConfig{
			Backend: StorageLocal,
			BaseURL: "/files",
		},
		defaultFromEmail: "CSBS SYNC <noreply@localhost>",
	}
}

// DefaultFromEmail parses the configured sender address.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return filepath.Join(wd, "config")
}
