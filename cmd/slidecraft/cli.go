package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/mcp"
	"github.com/hpungsan/slidecraft/internal/ops"
	"github.com/hpungsan/slidecraft/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(open envOpener) *cli.App {
	app := &cli.App{
		Name:    "slidecraft",
		Usage:   "Presentation editor backend",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", EnvVars: []string{"SLIDECRAFT_HOME"}, Usage: "Data directory (default ~/.slidecraft)"},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"SLIDECRAFT_LOG_LEVEL"}, Usage: "debug|info|warn|error"},
			&cli.StringFlag{Name: "secret-key", EnvVars: []string{"SLIDECRAFT_SECRET_KEY"}, Usage: "Token signing key"},
			&cli.StringFlag{Name: "chat-api-key", EnvVars: []string{"SLIDECRAFT_CHAT_API_KEY"}, Usage: "Chat model API key"},
			&cli.StringFlag{Name: "hosted-api-key", EnvVars: []string{"SLIDECRAFT_HOSTED_API_KEY"}, Usage: "Hosted image API key"},
			&cli.StringFlag{Name: "pipeline-api-key", EnvVars: []string{"SLIDECRAFT_PIPELINE_API_KEY"}, Usage: "Pipeline image API key"},
			&cli.StringFlag{Name: "pipeline-secret-key", EnvVars: []string{"SLIDECRAFT_PIPELINE_SECRET_KEY"}, Usage: "Pipeline image API secret"},
			&cli.StringFlag{Name: "relay-token", EnvVars: []string{"SLIDECRAFT_RELAY_TOKEN"}, Usage: "Image relay bot token"},
			&cli.StringFlag{Name: "s3-access-key", EnvVars: []string{"SLIDECRAFT_S3_ACCESS_KEY"}, Usage: "S3 access key"},
			&cli.StringFlag{Name: "s3-secret-key", EnvVars: []string{"SLIDECRAFT_S3_SECRET_KEY"}, Usage: "S3 secret key"},
		},
		Commands: []*cli.Command{
			serveCmd(open),
			mcpCmd(open),
			userCmd(open),
			templateCmd(open),
			deckCmd(open),
			versionCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// withEnv opens the environment around fn.
func withEnv(open envOpener, fn func(c *cli.Context, env *ops.Env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, release, err := open(c)
		if err != nil {
			return outputError(err)
		}
		defer release()
		return fn(c, env)
	}
}

func serveCmd(open envOpener) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", EnvVars: []string{"SLIDECRAFT_BIND"}, Usage: "Listen address (overrides config)"},
			&cli.IntFlag{Name: "port", EnvVars: []string{"SLIDECRAFT_PORT"}, Usage: "Listen port (overrides config)"},
		},
		Action: withEnv(open, func(c *cli.Context, env *ops.Env) error {
			if env.Config.SecretKey == "" {
				return outputError(errors.NewInvalidRequest("secret key is required: set SLIDECRAFT_SECRET_KEY or secret_key in config.json"))
			}
			if bind := c.String("bind"); bind != "" {
				env.Config.Bind = bind
			}
			if port := c.Int("port"); port > 0 {
				env.Config.Port = port
			}
			srv := web.NewServer(env, env.Logger, env.Config.Addr())
			return web.Run(srv, env.Logger)
		}),
	}
}

func mcpCmd(open envOpener) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio as the configured user",
		Action: withEnv(open, func(c *cli.Context, env *ops.Env) error {
			if unknown := mcp.ValidateDisabledTools(env.Config.MCP.DisabledTools); len(unknown) > 0 {
				env.Logger.Warn(c.Context, "ignoring unknown disabled tools", "tools", unknown)
			}
			return mcp.Run(env, Version)
		}),
	}
}

func userCmd(open envOpener) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an account (prompts for the password when --password is omitted)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Usage: "Account password"},
					&cli.BoolFlag{Name: "admin", Usage: "Grant the admin flag"},
				},
				Action: withEnv(open, func(c *cli.Context, env *ops.Env) error {
					password := c.String("password")
					if password == "" {
						p, err := readPassword("Password: ")
						if err != nil {
							return outputError(errors.NewInvalidRequest("could not read password: " + err.Error()))
						}
						password = p
					}
					u, err := ops.CreateUser(c.Context, env, ops.CreateUserInput{
						Email:    c.String("email"),
						Password: password,
						IsAdmin:  c.Bool("admin"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, u)
				}),
			},
			{
				Name:      "make-admin",
				Usage:     "Grant the admin flag to an existing account",
				ArgsUsage: "<email>",
				Action: withEnv(open, func(c *cli.Context, env *ops.Env) error {
					u, err := ops.MakeAdmin(c.Context, env, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, u)
				}),
			},
			{
				Name:  "list",
				Usage: "List accounts",
				Action: withEnv(open, func(c *cli.Context, env *ops.Env) error {
					users, err := ops.ListUsersLocal(c.Context, env)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, users)
				}),
			},
		},
	}
}

func templateCmd(open envOpener) *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Manage the template gallery",
		Subcommands: []*cli.Command{
			{
				Name:  "seed",
				Usage: "Replace all templates with the built-in set",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Required: true, Usage: "Email of the admin account that owns the templates"},
				},
				Action: withEnv(open, func(c *cli.Context, env *ops.Env) error {
					caller, err := ops.CallerByEmail(c.Context, env, c.String("owner"))
					if err != nil {
						return outputError(err)
					}
					templates, err := ops.SeedTemplates(c.Context, env, caller)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, templates)
				}),
			},
		},
	}
}

func deckCmd(open envOpener) *cli.Command {
	return &cli.Command{
		Name:  "deck",
		Usage: "Work with presentations",
		Subcommands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "Export a presentation to a file",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "pptx", Usage: "pptx|pdf"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output path (default: <data dir>/exports/<title>.<format>)"},
					&cli.StringFlag{Name: "as", Usage: "Email of the owning account (default: mcp.user_email)"},
				},
				Action: withEnv(open, func(c *cli.Context, env *ops.Env) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("presentation id is required"))
					}
					email := c.String("as")
					if email == "" {
						email = env.Config.MCP.UserEmail
					}
					caller, err := ops.CallerByEmail(c.Context, env, email)
					if err != nil {
						return outputError(err)
					}
					out, err := ops.ExportToFile(c.Context, env, caller, ops.ExportToFileInput{
						ID:     c.Args().First(),
						Format: c.String("format"),
						Path:   c.String("out"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				}),
			},
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintf(c.App.Writer, "slidecraft %s\n", Version)
			return err
		},
	}
}

// Helper functions

// outputJSON writes v to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err as "[CODE] message" with exit status 1.
func outputError(err error) error {
	appErr := errors.As(err)
	if appErr.Code == errors.ErrInternal {
		if cause := appErr.Unwrap(); cause != nil {
			return cli.Exit(fmt.Sprintf("[%s] %s: %v", appErr.Code, appErr.Message, cause), 1)
		}
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
}

// readPassword reads a password without echo when stdin is a terminal and
// a single line otherwise. Tests replace it.
var readPassword = func(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
