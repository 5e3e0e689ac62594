package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"musicstore/infrastructure/config"
	"musicstore/infrastructure/di"
	"musicstore/pkg/auth"
	"musicstore/pkg/container"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "storectl",
		Usage: "Music store operator tooling",
		Commands: []*cli.Command{
			registrationsCmd(),
			tokenCmd(),
			seedCmd(),
		},
	}
}

// registrationRow is the printable form of container.RegistrationInfo.
type registrationRow struct {
	Sequence       int      `yaml:"sequence"`
	Capability     string   `yaml:"capability"`
	Qualifier      string   `yaml:"qualifier,omitempty"`
	Lifetime       string   `yaml:"lifetime"`
	Strategy       string   `yaml:"strategy"`
	Implementation string   `yaml:"implementation"`
	Dependencies   []string `yaml:"dependencies,omitempty"`
	Active         bool     `yaml:"active"`
}

func registrationRows(infos []container.RegistrationInfo) []registrationRow {
	rows := make([]registrationRow, 0, len(infos))
	for _, info := range infos {
		row := registrationRow{
			Sequence:   info.Sequence,
			Capability: info.Capability.String(),
			Qualifier:  info.Qualifier,
			Lifetime:   info.Lifetime.String(),
			Strategy:   info.Strategy,
			Active:     info.Active,
		}
		if info.Implementation != nil {
			row.Implementation = info.Implementation.String()
		}
		for _, dep := range info.Dependencies {
			row.Dependencies = append(row.Dependencies, dep.String())
		}
		rows = append(rows, row)
	}
	return rows
}

func writeRegistrations(w io.Writer, format string, rows []registrationRow) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tCAPABILITY\tQUALIFIER\tLIFETIME\tSTRATEGY\tACTIVE")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n", r.Sequence, r.Capability, r.Qualifier, r.Lifetime, r.Strategy, r.Active)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

func registrationsCmd() *cli.Command {
	return &cli.Command{
		Name:  "registrations",
		Usage: "List the registrations the server starts with",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"t"},
				Value:   "table",
				Usage:   "Output format (table or yaml)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			c, cleanup, err := di.InitializeContainer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer cleanup()

			return writeRegistrations(cmd.Root().Writer, cmd.String("format"), registrationRows(c.Registry.Registrations()))
		},
	}
}

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a signed token for the store manager",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "secret",
				Usage:    "HMAC signing secret",
				Sources:  cli.EnvVars("JWT_SECRET"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "issuer",
				Value:   "musicstore",
				Sources: cli.EnvVars("JWT_ISSUER"),
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Value: time.Hour,
			},
			&cli.StringFlag{
				Name:     "subject",
				Required: true,
			},
			&cli.StringFlag{
				Name: "name",
			},
			&cli.StringSliceFlag{
				Name:  "role",
				Value: []string{auth.RoleManager},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tokens, err := auth.NewJWTManager(cmd.String("secret"), cmd.String("issuer"), cmd.Duration("ttl"))
			if err != nil {
				return err
			}
			token, err := tokens.Issue(cmd.String("subject"), cmd.String("name"), cmd.StringSlice("role")...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, token)
			return err
		},
	}
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Write the starter catalog to the configured DynamoDB table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "table",
				Sources: cli.EnvVars("DYNAMODB_TABLE"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if !strings.EqualFold(cfg.StoreBackend, config.BackendDynamoDB) {
				return fmt.Errorf("seed needs the %s store backend, got %q", config.BackendDynamoDB, cfg.StoreBackend)
			}
			if table := cmd.String("table"); table != "" {
				cfg.DynamoDBTable = table
			}
			cfg.SeedCatalog = true

			_, cleanup, err := di.InitializeContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = fmt.Fprintf(cmd.Root().Writer, "seeded %s\n", cfg.DynamoDBTable)
			return err
		},
	}
}
