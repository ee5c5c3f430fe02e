package config

import "os"

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	RedisAddr               string
	RedisPassword           string
	GraphBackend            string // firestore | badger
	BadgerPath              string
	ReconcileSchedule       string // cron spec for the counter reconciler
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		GraphBackend:            getEnv("GRAPH_BACKEND", "firestore"),
		BadgerPath:              getEnv("BADGER_PATH", "./data/socialgraph"),
		ReconcileSchedule:       getEnv("RECONCILE_SCHEDULE", "@every 6h"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
