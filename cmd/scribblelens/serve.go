package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/scribblelens/internal/server"
)

// serveCmd runs the analysis backend.
type serveCmd struct {
	*root
	fs        *flag.FlagSet
	program   string
	addr      string
	provider  string
	model     string
	baseURL   string
	maxTokens int
	envFile   string
}

func (s *serveCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func (s *serveCmd) Program() string {
	return s.program
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	s := &serveCmd{root: r, fs: fset, program: r.subcommand("serve")}
	fset.Usage = usageFunc(s)
	fset.StringVar(&s.addr, "addr", server.DefaultAddr, "address to listen on")
	fset.StringVar(&s.provider, "provider", "", "vision provider: openai or anthropic (default from "+server.EnvProvider+", else openai)")
	fset.StringVar(&s.model, "model", "", "model override (default from "+server.EnvModel+")")
	fset.StringVar(&s.baseURL, "base-url", "", "provider API base URL, for proxies and compatible gateways")
	fset.IntVar(&s.maxTokens, "max-tokens", 1000, "maximum tokens in the model reply")
	fset.StringVar(&s.envFile, "env", ".env", "dotenv file loaded before reading the environment")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	if err := loadEnv(s.envFile); err != nil {
		return err
	}
	p, err := server.Select(firstNonEmpty(s.provider, os.Getenv(server.EnvProvider)), server.ProviderConfig{
		Model:     firstNonEmpty(s.model, os.Getenv(server.EnvModel)),
		BaseURL:   s.baseURL,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return err
	}
	log := s.log.Named("server")
	if !p.Configured() {
		log.Warn("provider key is not set; requests will fail until it is",
			zap.String("provider", p.Name()),
			zap.String("env", p.KeyVar()),
		)
	}
	srv := server.New(p,
		server.WithAccessToken(os.Getenv(server.EnvAccessToken)),
		server.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, s.addr)
}

// loadEnv applies a dotenv file over the process environment. A missing
// file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
