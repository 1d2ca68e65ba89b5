package models

// Config is the full starmirror configuration, persisted as yaml at
// ~/.starmirror/config.yaml.
type Config struct {
	Source      Source      `yaml:"source"`
	Target      Target      `yaml:"target"`
	Replication Replication `yaml:"replication"`
	Seed        Seed        `yaml:"seed"`
	Scheduler   Scheduler   `yaml:"scheduler"`
}

// Source describes the operational PostgreSQL database the star schema is
// extracted from.
type Source struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Schema   string `yaml:"schema"`   // schema qualifier for star-schema tables
	SSLMode  string `yaml:"ssl_mode"` // passed through to the driver
}

// Target describes the file-based mirror database. Database is a filesystem
// path; parent directories are created on open.
type Target struct {
	Database string `yaml:"database"`
}

type Replication struct {
	ReportDir string `yaml:"report_dir"`
}

// Seed configures the CSV seeding utility for the source database.
type Seed struct {
	DataDir string `yaml:"data_dir"`
}

// Scheduler configures the recurring-execution wrapper around the
// replication engine.
type Scheduler struct {
	Time          string        `yaml:"time"`    // daily run time, "HH:MM"
	Timeout       string        `yaml:"timeout"` // wall-clock ceiling for one child run
	HistoryFile   string        `yaml:"history_file"`
	Notifications Notifications `yaml:"notifications"`
}

// Notifications configures optional email dispatch keyed on run outcome.
type Notifications struct {
	Enabled  bool     `yaml:"enabled"`
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// ApplyDefaults fills unset fields with the conventional defaults.
func (c *Config) ApplyDefaults() {
	if c.Source.Port == 0 {
		c.Source.Port = 5432
	}
	if c.Source.Schema == "" {
		c.Source.Schema = "bi_schema"
	}
	if c.Source.SSLMode == "" {
		c.Source.SSLMode = "disable"
	}
	if c.Target.Database == "" {
		c.Target.Database = "cloud_mirror/data_warehouse.db"
	}
	if c.Replication.ReportDir == "" {
		c.Replication.ReportDir = "reports"
	}
	if c.Seed.DataDir == "" {
		c.Seed.DataDir = "data"
	}
	if c.Scheduler.Time == "" {
		c.Scheduler.Time = "02:00"
	}
	if c.Scheduler.Timeout == "" {
		c.Scheduler.Timeout = "1h"
	}
	if c.Scheduler.HistoryFile == "" {
		c.Scheduler.HistoryFile = "logs/execution_history.json"
	}
	if c.Scheduler.Notifications.SMTPPort == 0 {
		c.Scheduler.Notifications.SMTPPort = 587
	}
}
