// Command pqkit derives, stores, and uses Falcon-512-shaped key material.
//
// Usage:
//
//	pqkit <command> [flags]
//
// Commands:
//
//	seed         Generate or derive a root seed
//	keygen       Expand a seed into a key pair
//	derive       Derive a child seed from a master seed
//	sign         Sign a message
//	verify       Verify a signature
//	mnemonic     Generate a mnemonic or recover a seed from one
//	store        Seal a seed into the keystore
//	list         List keystore fingerprints
//	version      Print version and exit
//
// Global flags (before the command):
//
//	--config     Config file path (default: pqkit.yaml, configs/pqkit.yaml)
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pqkit/pqkit/backend"
	"github.com/pqkit/pqkit/config"
	"github.com/pqkit/pqkit/falcon"
	"github.com/pqkit/pqkit/log"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) and the output writer so it can be
// tested in isolation.
func run(args []string, out io.Writer) int {
	configPath := ""
	for len(args) > 0 && strings.HasPrefix(args[0], "--config") {
		if args[0] == "--config" && len(args) > 1 {
			configPath = args[1]
			args = args[2:]
			continue
		}
		if rest, ok := strings.CutPrefix(args[0], "--config="); ok {
			configPath = rest
			args = args[1:]
			continue
		}
		break
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: pqkit <command> [flags], see pqkit help")
		return 2
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "version":
		fmt.Fprintf(out, "pqkit %s (%s)\n", version, commit)
		return 0
	case "help", "-h", "--help":
		fmt.Fprintln(out, "Commands: seed, keygen, derive, sign, verify, mnemonic, store, list, version")
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log.SetDefault(log.New(log.ParseLevel(cfg.Log.Level)))

	app := &app{cfg: cfg, out: out}
	switch cmd {
	case "seed":
		return app.cmdSeed(rest)
	case "keygen":
		return app.cmdKeygen(rest)
	case "derive":
		return app.cmdDerive(rest)
	case "sign":
		return app.cmdSign(rest)
	case "verify":
		return app.cmdVerify(rest)
	case "mnemonic":
		return app.cmdMnemonic(rest)
	case "store":
		return app.cmdStore(rest)
	case "list":
		return app.cmdList(rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", cmd)
		return 2
	}
}

type app struct {
	cfg config.Config
	out io.Writer
}

// provider loads the backend the configuration prefers and returns it Ready.
func (a *app) provider() (*backend.Provider, error) {
	opts := backend.Options{}
	if a.cfg.Backend.Preferred == config.BackendFallback {
		opts.Loader = func(ctx context.Context) (falcon.Backend, error) {
			return &falcon.Engine{}, nil
		}
	}
	p := backend.NewProvider(opts)
	if err := p.Load(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}
