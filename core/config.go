package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host string
		Port int
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	// TaxRates holds the GST percentages applied to the taxable portion of a fee.
	// IGST applies alone (inter-state); otherwise SGST and CGST apply together.
	TaxRates struct {
		SGSTPercent decimal.Decimal
		CGSTPercent decimal.Decimal
		IGSTPercent decimal.Decimal
	}

	EnrollmentConfig struct {
		StudentCodePrefix    string
		OverpaymentTolerance decimal.Decimal
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		FromEmail      string
		SendgridApiKey string
		RollbarToken   string

		Server     ServerConfig
		Database   DatabaseConfig
		Tax        TaxRates
		Enrollment EnrollmentConfig
	}
)

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.FromEmail}
}

// NewConfig loads configuration from defaults, an optional .env.<env> file
// and environment variables, in increasing order of precedence.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("DEBUG", true)
	v.SetDefault("APP_NAME", "Instacad")
	v.SetDefault("BUILD", "dev")
	v.SetDefault("DEFAULT_FROM_EMAIL", "noreply@localhost")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("ROLLBAR_TOKEN", "")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8000)

	v.SetDefault("DATABASE_ENGINE", "postgres")
	v.SetDefault("DATABASE_NAME", "instacad")
	v.SetDefault("DATABASE_USER", "instacad")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_ADMIN_USER", "")
	v.SetDefault("DATABASE_ADMIN_PASSWORD", "")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_DISABLE_TLS", true)

	v.SetDefault("SGST_PERCENTAGE", 9.0)
	v.SetDefault("CGST_PERCENTAGE", 9.0)
	v.SetDefault("IGST_PERCENTAGE", 18.0)

	v.SetDefault("STUDENT_CODE_PREFIX", "STI")
	v.SetDefault("OVERPAYMENT_TOLERANCE", 0.0)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:      env,
		Debug:    v.GetBool("DEBUG"),
		TestMode: env == "TEST",
		AppName:  v.GetString("APP_NAME"),
		Build:    v.GetString("BUILD"),

		FromEmail:      v.GetString("DEFAULT_FROM_EMAIL"),
		SendgridApiKey: v.GetString("SENDGRID_API_KEY"),
		RollbarToken:   v.GetString("ROLLBAR_TOKEN"),

		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("DATABASE_ENGINE"),
			Name:          v.GetString("DATABASE_NAME"),
			User:          v.GetString("DATABASE_USER"),
			Password:      v.GetString("DATABASE_PASSWORD"),
			AdminUser:     v.GetString("DATABASE_ADMIN_USER"),
			AdminPassword: v.GetString("DATABASE_ADMIN_PASSWORD"),
			Host:          v.GetString("DATABASE_HOST"),
			Port:          v.GetInt("DATABASE_PORT"),
			DisableTLS:    v.GetBool("DATABASE_DISABLE_TLS"),
		},
		Tax: TaxRates{
			SGSTPercent: decimal.NewFromFloat(v.GetFloat64("SGST_PERCENTAGE")),
			CGSTPercent: decimal.NewFromFloat(v.GetFloat64("CGST_PERCENTAGE")),
			IGSTPercent: decimal.NewFromFloat(v.GetFloat64("IGST_PERCENTAGE")),
		},
		Enrollment: EnrollmentConfig{
			StudentCodePrefix:    v.GetString("STUDENT_CODE_PREFIX"),
			OverpaymentTolerance: decimal.NewFromFloat(v.GetFloat64("OVERPAYMENT_TOLERANCE")),
		},
	}
}
