package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrEthical07/authtoken"
	"github.com/MrEthical07/authtoken/envconfig"
	"github.com/sirupsen/logrus"
)

const usage = `usage: authtoken <command> [flags]

commands:
  issue    sign a token for an entity type
  verify   verify a token and print its claims
  bench    measure concurrent issue and verify throughput

configuration is read from AUTHTOKEN_* variables and an optional .env file.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	logger := logrus.New()
	logger.SetOutput(stderr)

	var err error
	switch args[0] {
	case "issue":
		err = runIssue(args[1:], stdin, stdout, logger)
	case "verify":
		err = runVerify(args[1:], stdin, stdout, logger)
	case "bench":
		err = runBench(args[1:], stdout, logger)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "authtoken %s: %v\n", args[0], err)
		if errors.Is(err, authtoken.ErrTokenInvalid) {
			return 1
		}
		return 2
	}
	return 0
}

func newEngine(envFile string, logger logrus.FieldLogger) (*authtoken.Engine, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := envconfig.Load(files...)
	if err != nil {
		return nil, err
	}
	return authtoken.New().WithConfig(cfg).WithLogger(logger).Build()
}

func runIssue(args []string, stdin io.Reader, stdout io.Writer, logger logrus.FieldLogger) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	var (
		entityType = fs.String("type", string(authtoken.DefaultEntityType), "entity type")
		sub        = fs.String("sub", "", "subject claim")
		claimsJSON = fs.String("claims", "", `extra claims as a JSON object, "-" reads stdin`)
		envFile    = fs.String("env-file", "", "dotenv file to load")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload := authtoken.Claims{}
	if *claimsJSON != "" {
		var src io.Reader = strings.NewReader(*claimsJSON)
		if *claimsJSON == "-" {
			src = stdin
		}
		if err := json.NewDecoder(src).Decode(&payload); err != nil {
			return fmt.Errorf("decode claims: %w", err)
		}
	}
	if *sub != "" {
		payload[authtoken.ClaimSubject] = *sub
	}

	engine, err := newEngine(*envFile, logger)
	if err != nil {
		return err
	}

	tok, err := engine.Issue(authtoken.EntityType(*entityType), payload)
	if err != nil {
		return err
	}
	return json.NewEncoder(stdout).Encode(tok)
}

func runVerify(args []string, stdin io.Reader, stdout io.Writer, logger logrus.FieldLogger) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	var (
		entityType = fs.String("type", string(authtoken.DefaultEntityType), "entity type")
		skipAud    = fs.Bool("skip-audience", false, "do not check aud")
		skipExp    = fs.Bool("skip-expiration", false, "do not check exp")
		audience   = fs.String("audience", "", "require this audience")
		envFile    = fs.String("env-file", "", "dotenv file to load")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	token := fs.Arg(0)
	if token == "" || token == "-" {
		raw, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	var opts []authtoken.VerifyOption
	if *audience != "" {
		opts = append(opts, authtoken.RequireAudience(*audience))
	}
	if *skipAud {
		opts = append(opts, authtoken.SkipAudienceCheck())
	}
	if *skipExp {
		opts = append(opts, authtoken.SkipExpirationCheck())
	}

	engine, err := newEngine(*envFile, logger)
	if err != nil {
		return err
	}

	tok, err := engine.Verify(token, authtoken.EntityType(*entityType), opts...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tok.Payload())
}
