package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/ryhazerus/userstore"
	"github.com/ryhazerus/userstore/internal/config"
	"github.com/ryhazerus/userstore/store"
)

// CLI is the command line of the userstore tool.
type CLI struct {
	Config   string `help:"Path to a YAML config file (default: ./userstore.yaml if present)" type:"path"`
	DB       string `help:"SQLite database file, overrides db.path"`
	LogLevel string `help:"Log level (debug, info, warn, error), overrides log.level"`

	Init   InitCmd   `cmd:"" help:"Create the requests and users tables"`
	Record RecordCmd `cmd:"" help:"Increment the global request counter"`
	Count  CountCmd  `cmd:"" help:"Print the global request counter"`
	Get    GetCmd    `cmd:"" help:"Print a user record as JSON"`
	Add    AddCmd    `cmd:"" help:"Insert a user record with times=1"`
	Update UpdateCmd `cmd:"" help:"Overwrite times and blocked of a user record"`
}

// app carries what every command needs once flags and config are resolved.
type app struct {
	ctx context.Context
	cfg config.Config
	db  *userstore.DB
	out io.Writer
}

// InitCmd creates the schema.
type InitCmd struct{}

func (c *InitCmd) Run(a *app) error {
	s, err := store.NewSQLiteStore(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := store.InitSchema(a.ctx, s.DB()); err != nil {
		return err
	}
	slog.Info("schema ready", "path", a.cfg.DBPath)
	return nil
}

// RecordCmd increments the request counter.
type RecordCmd struct{}

func (c *RecordCmd) Run(a *app) error {
	return a.db.RecordRequest(a.ctx)
}

// CountCmd prints the request counter.
type CountCmd struct{}

func (c *CountCmd) Run(a *app) error {
	n, err := a.db.Requests(a.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, n)
	return nil
}

// GetCmd prints one user record.
type GetCmd struct {
	User    string `arg:"" help:"Hashed user identifier"`
	Service string `arg:"" help:"Service name, e.g. smtp"`
}

type userJSON struct {
	User        string `json:"user"`
	Service     string `json:"service"`
	Times       int64  `json:"times"`
	Blocked     bool   `json:"blocked"`
	LastRequest string `json:"last_request"`
}

func (c *GetCmd) Run(a *app) error {
	u, err := a.db.GetUser(a.ctx, c.User, c.Service)
	if err != nil {
		return err
	}
	if u == nil {
		fmt.Fprintln(a.out, "not found")
		return nil
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(userJSON{
		User:        u.User,
		Service:     u.Service,
		Times:       u.Times,
		Blocked:     u.Blocked,
		LastRequest: u.LastRequest,
	})
}

// AddCmd inserts a user record. Like the library, it does not check for an
// existing record.
type AddCmd struct {
	User    string `arg:"" help:"Hashed user identifier"`
	Service string `arg:"" help:"Service name, e.g. smtp"`
	Blocked bool   `help:"Mark the user as blocked"`
}

func (c *AddCmd) Run(a *app) error {
	return a.db.AddUser(a.ctx, c.User, c.Service, c.Blocked)
}

// UpdateCmd overwrites a user record.
type UpdateCmd struct {
	User    string `arg:"" help:"Hashed user identifier"`
	Service string `arg:"" help:"Service name, e.g. smtp"`
	Times   int64  `arg:"" help:"Request count to store"`
	Blocked bool   `help:"Mark the user as blocked"`
}

func (c *UpdateCmd) Run(a *app) error {
	return a.db.UpdateUser(a.ctx, c.User, c.Service, c.Times, c.Blocked)
}

// run parses args, resolves configuration, connects and dispatches to the
// selected command.
func run(args []string, out, errOut io.Writer, opts ...kong.Option) error {
	var cli CLI
	parser, err := kong.New(&cli, append([]kong.Option{
		kong.Name("userstore"),
		kong.Description("Inspect and edit per-user request throttling state."),
		kong.UsageOnError(),
		kong.Writers(out, errOut),
	}, opts...)...)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.DB != "" {
		cfg.DBPath = cli.DB
	}
	if cli.LogLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(cli.LogLevel)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}

	initLogging(errOut, cfg.LogLevel)

	a := &app{ctx: context.Background(), cfg: cfg, out: out}

	if kctx.Command() != "init" {
		var dbOpts []userstore.Option
		if cfg.Tiered {
			s, err := store.NewSQLiteStore(cfg.DBPath)
			if err != nil {
				return err
			}
			dbOpts = append(dbOpts, userstore.WithStore(store.NewTieredStore(s)))
		}

		a.db = userstore.New(cfg.DBPath, dbOpts...)
		if err := a.db.Connect(a.ctx); err != nil {
			return err
		}
		defer a.db.Close()
	}

	return kctx.Run(a)
}

func initLogging(w io.Writer, level slog.Level) {
	handler := humanlog.NewHandler(w, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
