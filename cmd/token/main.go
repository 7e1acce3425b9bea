// Command token mints chat session tokens for an account.
package main

import (
	"fmt"
	"os"
	"time"

	"assistix/internal/chat"
	"assistix/internal/config"
	"assistix/internal/middleware"

	"github.com/spf13/pflag"
)

func main() {
	var (
		account   chat.Sender
		ttl       time.Duration
		secretEnv string
	)
	flags := pflag.NewFlagSet("token", pflag.ExitOnError)
	flags.Int64Var(&account.ID, "id", 0, "numeric account id (required)")
	flags.StringVar(&account.Username, "username", "", "username shown to admins")
	flags.StringVar(&account.FirstName, "first-name", "", "first name used when there is no username")
	flags.DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime, 0 for no expiry")
	flags.StringVar(&secretEnv, "secret-env", "", "read the signing secret from this variable instead of the service config")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: token --id ID [flags]\n\n%s", flags.FlagUsages())
	}
	_ = flags.Parse(os.Args[1:])

	if account.ID <= 0 {
		flags.Usage()
		os.Exit(2)
	}

	secret, err := signingSecret(secretEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}

	tok, err := middleware.IssueToken(secret, account, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}

func signingSecret(envName string) ([]byte, error) {
	if envName != "" {
		v := os.Getenv(envName)
		if v == "" {
			return nil, fmt.Errorf("%s is empty", envName)
		}
		return []byte(v), nil
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return []byte(cfg.BotToken), nil
}
