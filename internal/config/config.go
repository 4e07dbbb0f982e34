package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort string
	AppEnv  string

	// LenderID is the distinguished identity allowed to fund, approve
	// and liquidate.
	LenderID string

	// Collateral policy knobs.
	RiskPercent         int64
	LateFeePercent      int64
	CollateralThreshold decimal.Decimal

	// PoolSeed is minted to the lender and deposited into the pool at
	// startup, mirroring the funded deployment of the reference system.
	PoolSeed decimal.Decimal

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint64(k string, d int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	// Local development convenience; the file is optional.
	_ = godotenv.Load()

	c := &Config{
		AppPort: getenv("APP_PORT", "8080"),
		AppEnv:  getenv("APP_ENV", "dev"),

		LenderID:       getenv("LENDER_ID", "lender"),
		RiskPercent:    getint64("RISK_PERCENT", 150),
		LateFeePercent: getint64("LATE_FEE_PERCENT", 10),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lending"),
		MySQLUser: getenv("MYSQL_USER", "lending"),
		MySQLPass: getenv("MYSQL_PASS", "lending"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		IdempTTLSecs: 300,
	}
	c.CollateralThreshold = decimal.NewFromInt(100)
	if v := os.Getenv("COLLATERAL_THRESHOLD"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			c.CollateralThreshold = d
		}
	}
	c.PoolSeed = decimal.NewFromInt(500)
	if v := os.Getenv("POOL_SEED"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			c.PoolSeed = d
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.LenderID == "" {
		return errors.New("missing LENDER_ID")
	}
	if c.RiskPercent < 0 || c.LateFeePercent < 0 {
		return errors.New("RISK_PERCENT and LATE_FEE_PERCENT must be non-negative")
	}
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
