package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Store struct {
		Driver string `env:"DRIVER" envDefault:"postgres"` // postgres or memory
	} `envPrefix:"STORE_"`
	Database struct {
		DSN                string `env:"DSN"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
		AutoMigrate        bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Secret     string `env:"SECRET,required,notEmpty"`
		CookieName string `env:"COOKIE_NAME" envDefault:"__teachhire_token"`
	} `envPrefix:"JWT_"`
	Hiring struct {
		CandidateFreeQuota int `env:"CANDIDATE_FREE_QUOTA" envDefault:"5"` // applications per period
		InstituteFreeQuota int `env:"INSTITUTE_FREE_QUOTA" envDefault:"2"` // job posts per period
		QuotaPeriodMonths  int `env:"QUOTA_PERIOD_MONTHS" envDefault:"1"`
		MaxConflictRetries int `env:"MAX_CONFLICT_RETRIES" envDefault:"3"`
		ActiveJobsLimit    int `env:"ACTIVE_JOBS_LIMIT" envDefault:"100"`
	} `envPrefix:"HIRING_"`
	Stats struct {
		CacheTTL int `env:"CACHE_TTL" envDefault:"300"` // seconds, 0 disables the cache
	} `envPrefix:"STATS_"`
	Payment struct {
		WebhookSecret  string   `env:"WEBHOOK_SECRET,required,notEmpty"`
		PremiumPlanIDs []string `env:"PREMIUM_PLAN_IDS" envSeparator:"," envDefault:"premium_monthly,premium_yearly"`
		EventTTL       int      `env:"EVENT_TTL" envDefault:"604800"` // 7 days
	} `envPrefix:"PAYMENT_"`
	Files struct {
		ResumeBaseURL string `env:"RESUME_BASE_URL" envDefault:"https://files.teachhire.local/resumes"`
	} `envPrefix:"FILES_"`
	Seed struct {
		Candidates int    `env:"CANDIDATES" envDefault:"10"`
		Institutes int    `env:"INSTITUTES" envDefault:"3"`
		EmailHost  string `env:"EMAIL_HOST" envDefault:"example.com"`
	} `envPrefix:"SEED_"`
	Email struct {
		From string `env:"FROM"`
		SMTP struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
		TemplateDir string `env:"TEMPLATE_DIR" envDefault:"./templates"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"` // empty disables mail delivery
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST"` // empty falls back to the in-process cache
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"5"`
	} `envPrefix:"REDIS_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only the first error, keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if cfg.Store.Driver == "postgres" && cfg.Database.DSN == "" {
		return nil, errors.New("DATABASE_DSN is required when STORE_DRIVER=postgres")
	}

	return cfg, nil
}
