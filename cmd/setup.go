package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"starmirror/internal/config"
	"starmirror/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration setup",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println("Setting up starmirror...")
	fmt.Println()

	if config.Exists() {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "Configuration already exists. Do you want to overwrite it?",
			Default: false,
		}
		if err := survey.AskOne(prompt, &overwrite); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	cfg := &models.Config{}
	cfg.ApplyDefaults()

	fmt.Println("PostgreSQL Source")
	fmt.Println("-----------------")
	sourceQs := []*survey.Question{
		{
			Name:     "host",
			Prompt:   &survey.Input{Message: "Host:", Default: "localhost"},
			Validate: survey.Required,
		},
		{
			Name:   "port",
			Prompt: &survey.Input{Message: "Port:", Default: "5432"},
			Validate: func(ans interface{}) error {
				s, _ := ans.(string)
				if _, err := strconv.Atoi(s); err != nil {
					return fmt.Errorf("port must be a number")
				}
				return nil
			},
		},
		{
			Name:     "database",
			Prompt:   &survey.Input{Message: "Database:", Default: cfg.Source.Database},
			Validate: survey.Required,
		},
		{
			Name:     "user",
			Prompt:   &survey.Input{Message: "User:"},
			Validate: survey.Required,
		},
		{
			Name:   "password",
			Prompt: &survey.Password{Message: "Password:"},
		},
		{
			Name:   "schema",
			Prompt: &survey.Input{Message: "Schema:", Default: cfg.Source.Schema},
		},
	}
	source := struct {
		Host     string
		Port     string
		Database string
		User     string
		Password string
		Schema   string
	}{}
	if err := survey.Ask(sourceQs, &source); err != nil {
		return err
	}
	cfg.Source.Host = source.Host
	cfg.Source.Port, _ = strconv.Atoi(source.Port)
	cfg.Source.Database = source.Database
	cfg.Source.User = source.User
	cfg.Source.Password = source.Password
	cfg.Source.Schema = source.Schema

	fmt.Println()
	fmt.Println("SQLite Mirror")
	fmt.Println("-------------")
	if err := survey.AskOne(
		&survey.Input{Message: "Database file:", Default: cfg.Target.Database},
		&cfg.Target.Database,
	); err != nil {
		return err
	}
	if err := survey.AskOne(
		&survey.Input{Message: "Report directory:", Default: cfg.Replication.ReportDir},
		&cfg.Replication.ReportDir,
	); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Scheduler")
	fmt.Println("---------")
	if err := survey.AskOne(
		&survey.Input{Message: "Daily run time (HH:MM):", Default: cfg.Scheduler.Time},
		&cfg.Scheduler.Time,
	); err != nil {
		return err
	}
	if err := survey.AskOne(
		&survey.Confirm{Message: "Send email notifications after scheduled runs?", Default: false},
		&cfg.Scheduler.Notifications.Enabled,
	); err != nil {
		return err
	}
	if cfg.Scheduler.Notifications.Enabled {
		notifyQs := []*survey.Question{
			{
				Name:     "host",
				Prompt:   &survey.Input{Message: "SMTP host:"},
				Validate: survey.Required,
			},
			{
				Name:   "port",
				Prompt: &survey.Input{Message: "SMTP port:", Default: "587"},
			},
			{
				Name:   "username",
				Prompt: &survey.Input{Message: "SMTP username:"},
			},
			{
				Name:   "password",
				Prompt: &survey.Password{Message: "SMTP password:"},
			},
			{
				Name:     "from",
				Prompt:   &survey.Input{Message: "From address:"},
				Validate: survey.Required,
			},
			{
				Name:     "to",
				Prompt:   &survey.Input{Message: "Recipients (comma-separated):"},
				Validate: survey.Required,
			},
		}
		notify := struct {
			Host     string
			Port     string
			Username string
			Password string
			From     string
			To       string
		}{}
		if err := survey.Ask(notifyQs, &notify); err != nil {
			return err
		}
		cfg.Scheduler.Notifications.SMTPHost = notify.Host
		cfg.Scheduler.Notifications.SMTPPort, _ = strconv.Atoi(notify.Port)
		cfg.Scheduler.Notifications.Username = notify.Username
		cfg.Scheduler.Notifications.Password = notify.Password
		cfg.Scheduler.Notifications.From = notify.From
		cfg.Scheduler.Notifications.To = splitAddresses(notify.To)
	}

	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", config.GetConfigFile())
	fmt.Println("Run 'starmirror replicate' to start a replication run.")
	return nil
}

func splitAddresses(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
