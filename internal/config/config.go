package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints and floats
// for days and rates.
type Config struct {
	Env              string  // application environment (e.g. "dev", "prod")
	Port             string  // HTTP port to listen on
	DBUser           string  // database username
	DBPass           string  // database password (optional)
	DBHost           string  // database host address
	DBPort           string  // database port number
	DBName           string  // database name
	JWTSecret        string  // secret used to verify JWTs issued by the identity service
	GatewayBaseURL   string  // payment gateway API base URL
	GatewaySecretKey string  // payment gateway secret key
	PaymentReturnURL string  // URL the gateway redirects payers back to
	BillingDueDay    int     // day of month on which recurring fees fall due
	ServiceFeeRate   float64 // fraction of each disbursement withheld as platform income
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),              // environment (dev/test/prod)
		Port:             must("APP_PORT"),             // port to bind the HTTP server
		DBUser:           must("DB_USER"),              // database user
		DBPass:           os.Getenv("DB_PASS"),         // database password (empty allowed)
		DBHost:           must("DB_HOST"),              // database host
		DBPort:           must("DB_PORT"),              // database port
		DBName:           must("DB_NAME"),              // database name
		JWTSecret:        must("JWT_SECRET"),           // secret used to verify JWTs
		GatewayBaseURL:   must("PAYMENT_BASE_URL"),     // gateway API root
		GatewaySecretKey: must("PAYMENT_SECRET_KEY"),   // gateway credential
		PaymentReturnURL: must("PAYMENT_RETURN_URL"),   // payer redirect target
		BillingDueDay:    envInt("BILLING_DUE_DAY", 10),     // fee due day of month
		ServiceFeeRate:   envFloat("SERVICE_FEE_RATE", 0.1), // platform cut
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envInt reads an optional integer environment variable, falling back
// to the provided default when unset or malformed.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

// envFloat reads an optional float environment variable, falling back
// to the provided default when unset.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid float for %s: %q", key, v)
	}
	return f
}
