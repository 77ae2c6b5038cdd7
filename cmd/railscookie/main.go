// Command railscookie decodes and inspects the source framework's session
// cookies and signed messages from the command line.
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/railscompat/railscompat.go/actionpack/session"
	"github.com/railscompat/railscompat.go/activesupport"
	"github.com/railscompat/railscompat.go/internal/config"
	"github.com/railscompat/railscompat.go/rubymarshal"
)

// CLI mirrors the shape kept minimal deliberately: one subcommand per
// core operation, plus a shared output --format flag.
type CLI struct {
	Format  string `short:"f" help:"Output format for decoded values: json, cbor, or go" default:"json" enum:"json,cbor,go"`
	Verbose bool   `short:"v" help:"Enable verbose diagnostic logging"`
	Config  string `short:"c" help:"Path to a railscookie.yaml config file (overrides RAILSCOOKIE_CONFIG)"`

	DecodeCookie    decodeCookieCmd    `cmd:"" help:"Decrypt and decode a session cookie value"`
	VerifyMessage   verifyMessageCmd   `cmd:"" help:"Verify a signed message token"`
	GenerateMessage generateMessageCmd `cmd:"" help:"Generate a signed message token"`
	DeriveKey       deriveKeyCmd       `cmd:"" help:"Derive a key via PBKDF2-HMAC-SHA1"`
}

type decodeCookieCmd struct {
	SecretKeyBase string `help:"Secret key base (overrides config file)"`
	Cookie        string `arg:"" help:"The cookie value to decrypt"`
}

type verifyMessageCmd struct {
	Secret  string `help:"HMAC secret (overrides config file)"`
	Purpose string `help:"Expected purpose (overrides config file default)"`
	Token   string `arg:"" help:"The signed message token"`
}

type generateMessageCmd struct {
	Secret  string `help:"HMAC secret (overrides config file)"`
	Purpose string `help:"Purpose to embed (overrides config file default)"`
	Value   string `arg:"" help:"The message text to sign"`
}

type deriveKeyCmd struct {
	Secret     string `help:"Secret (overrides config file)"`
	Salt       string `required:"" help:"Salt string"`
	Bits       int    `default:"256" help:"Derived key length in bits"`
	Iterations int    `help:"PBKDF2 iteration count (overrides config file)"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("railscookie"),
		kong.Description("Decrypt and inspect Rails-compatible session cookies and signed messages."),
	)

	logger := newLogger(cli.Verbose)

	if err := ctx.Run(&runContext{cli: &cli, logger: logger}); err != nil {
		logger.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// runContext is threaded through kong's Run() dispatch so each
// subcommand's Run method can reach the shared --format flag and logger
// without depending on package-level state.
type runContext struct {
	cli    *CLI
	logger *slog.Logger
}

func (c *decodeCookieCmd) Run(rc *runContext) error {
	start := time.Now()
	secret := c.SecretKeyBase
	if secret == "" {
		cfg, err := loadConfig(rc.cli.Config)
		if err != nil {
			return fmt.Errorf("no --secret-key-base given and config load failed: %w", err)
		}
		secret = cfg.SecretKeyBase
	}

	env := session.NewEnvelope(c.Cookie, secret)
	v, err := env.Decrypt()
	if err != nil {
		return err
	}
	rc.logger.Debug("decoded cookie", "elapsed", time.Since(start), "entries", len(v.Map))
	return printValue(rc.cli.Format, v)
}

func (c *verifyMessageCmd) Run(rc *runContext) error {
	secret := c.Secret
	purpose := c.Purpose
	if secret == "" || purpose == "" {
		cfg, err := loadConfig(rc.cli.Config)
		if err == nil {
			if secret == "" {
				secret = cfg.SecretKeyBase
			}
			if purpose == "" {
				purpose = cfg.DefaultPurpose
			}
		} else if secret == "" {
			return fmt.Errorf("no --secret given and config load failed: %w", err)
		}
	}

	mv := activesupport.NewMessageVerifier([]byte(secret))
	v := mv.Verify(c.Token, purpose)
	return printValue(rc.cli.Format, v)
}

func (c *generateMessageCmd) Run(rc *runContext) error {
	secret := c.Secret
	purpose := c.Purpose
	if secret == "" || purpose == "" {
		cfg, err := loadConfig(rc.cli.Config)
		if err == nil {
			if secret == "" {
				secret = cfg.SecretKeyBase
			}
			if purpose == "" {
				purpose = cfg.DefaultPurpose
			}
		} else if secret == "" {
			return fmt.Errorf("no --secret given and config load failed: %w", err)
		}
	}

	mv := activesupport.NewMessageVerifier([]byte(secret))
	token, err := mv.Generate(c.Value, purpose)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func (c *deriveKeyCmd) Run(rc *runContext) error {
	secret := c.Secret
	iterations := c.Iterations
	if secret == "" || iterations == 0 {
		cfg, err := loadConfig(rc.cli.Config)
		if err == nil {
			if secret == "" {
				secret = cfg.SecretKeyBase
			}
			if iterations == 0 {
				iterations = cfg.PBKDF2Iterations
			}
		} else if secret == "" {
			return fmt.Errorf("no --secret given and config load failed: %w", err)
		}
	}
	if iterations == 0 {
		iterations = 1000
	}

	kg := activesupport.NewKeyGenerator(secret, iterations, true)
	key := kg.Derive(c.Salt, c.Bits)
	fmt.Println(hex.EncodeToString(key))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadEnv()
}

func printValue(format string, v rubymarshal.Value) error {
	switch format {
	case "go":
		fmt.Println(v.String())
		return nil
	case "cbor":
		out, err := rubymarshal.ToCBOR(v)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(out))
		return nil
	case "json":
		return printJSON(v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
