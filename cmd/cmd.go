// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration, database and users",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the bundled example",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
			{
				Name:  "user",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "login",
						Usage:    "Login name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Password",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "authority",
						Usage: "Granted authority, repeatable (default " + models.RoleUser + ")",
					},
				},
				Action: r.SetupUser,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (host:port), overrides the config",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "Development mode: relaxed security headers",
			},
		},
		Action: r.Serve,
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the stored session token",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate against the backend and store the token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Login name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Password",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "remember-me",
						Usage: "Request a long-lived token",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the stored token's subject, authorities and expiry",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "ping",
						Usage: "Also check the backend health endpoint",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

func albumsCommand(r *Runner) *cli.Command {
	return entityCommand(&entityActions[models.Album]{
		r: r, name: "Album", plural: "albums", newService: services.NewAlbumService,
	})
}

func singersCommand(r *Runner) *cli.Command {
	return entityCommand(&entityActions[models.Singer]{
		r: r, name: "Singer", plural: "singers", newService: services.NewSingerService,
	})
}

func songsCommand(r *Runner) *cli.Command {
	return entityCommand(&entityActions[models.Song]{
		r: r, name: "Song", plural: "songs", newService: services.NewSongService,
	})
}

func entityCommand[E entity](a *entityActions[E]) *cli.Command {
	return &cli.Command{
		Name:  a.plural,
		Usage: "List and edit " + a.plural,
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "Print one page of " + a.plural,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number, starting at 1",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Items per page (default from config)",
					},
					&cli.StringSliceFlag{
						Name:  "sort",
						Usage: "Sort key field[,asc|desc], repeatable",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: a.List,
			},
			{
				Name:      "get",
				Usage:     "Print one " + a.name,
				Arguments: idArgs(),
				Flags:     []cli.Flag{prettyFlag()},
				Action:    a.Get,
			},
			{
				Name:   "create",
				Usage:  "Create a " + a.name,
				Flags:  []cli.Flag{dataFlag(), prettyFlag()},
				Action: a.Create,
			},
			{
				Name:      "update",
				Usage:     "Replace a " + a.name,
				Arguments: idArgs(),
				Flags:     []cli.Flag{dataFlag(), prettyFlag()},
				Action:    a.Update,
			},
			{
				Name:      "patch",
				Usage:     "Merge-patch a " + a.name,
				Arguments: idArgs(),
				Flags:     []cli.Flag{dataFlag(), prettyFlag()},
				Action:    a.Patch,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a " + a.name,
				Arguments: idArgs(),
				Action:    a.Delete,
			},
		},
	}
}

func idArgs() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true}
}

func dataFlag() cli.Flag {
	return &cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON document", Required: true}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the whole catalogue to files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: csv, markdown, txt or json",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default jukebox_export_<timestamp>)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of collections exported concurrently",
				Value: tasks.DefaultWorkers,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Page requests per second across all workers",
				Value: tasks.DefaultRate,
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "Items per page request",
				Value: tasks.DefaultPageSize,
			},
		},
		Action: r.Export,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive catalogue browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "route",
				Usage: "Initial route, e.g. /album or /song/3/view",
				Value: "/album",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file (the terminal is taken by the UI)",
				Value: "./tmp/jukebox-tui.log",
			},
		},
		Action: r.TUI,
	}
}
