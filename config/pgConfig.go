package config

import (
	"fmt"
)

type DbConfig interface {
	GetConnectionString() string
	String() string
}

// PostgresConfig represents the configuration needed to connect to a PostgreSQL database
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (pc *PostgresConfig) GetConnectionString() string {
	sslMode := pc.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, sslMode)
}

// String identifies the target without the password, for logs.
func (pc *PostgresConfig) String() string {
	return fmt.Sprintf("%s@%s:%s/%s", pc.User, pc.Host, pc.Port, pc.DBName)
}
