package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	urfave "github.com/urfave/cli/v3"

	"github.com/bibbank/creditrisk/pkg/auth"
	"github.com/bibbank/creditrisk/pkg/tlsutil"
)

// TokenResult is the output of riskctl token.
type TokenResult struct {
	Token     string    `json:"token" yaml:"token"`
	ClientID  string    `json:"client_id" yaml:"client_id"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
	Roles     []string  `json:"roles" yaml:"roles"`
}

func (a *app) tokenCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "token",
		Usage: "Issue a JWT for calling /predict or the gRPC API",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    "secret",
				Usage:   "HS256 signing secret",
				Sources: urfave.EnvVars("JWT_SECRET"),
			},
			&urfave.StringFlag{
				Name:  "private-key",
				Usage: "PEM file with an RSA private key for RS256 signing",
			},
			&urfave.StringFlag{
				Name:    "issuer",
				Value:   "creditrisk",
				Sources: urfave.EnvVars("JWT_ISSUER"),
			},
			&urfave.StringFlag{
				Name:     "client",
				Usage:    "Client ID placed in the subject claim",
				Required: true,
			},
			&urfave.StringSliceFlag{
				Name:  "role",
				Usage: "Role to grant, repeatable (default: api_client)",
			},
			&urfave.DurationFlag{
				Name:  "ttl",
				Value: time.Hour,
			},
		},
		Action: func(_ context.Context, cmd *urfave.Command) error {
			cfg := auth.JWTConfig{
				Secret:     cmd.String("secret"),
				Issuer:     cmd.String("issuer"),
				Expiration: cmd.Duration("ttl"),
			}
			if path := cmd.String("private-key"); path != "" {
				pem, err := auth.LoadKeyFromFile(path)
				if err != nil {
					return err
				}
				cfg.PrivateKeyPEM = pem
			}
			if cfg.Secret == "" && cfg.PrivateKeyPEM == "" {
				return errors.New("one of --secret or --private-key is required")
			}

			svc, err := auth.NewJWTService(cfg)
			if err != nil {
				return err
			}

			roles := cmd.StringSlice("role")
			if len(roles) == 0 {
				roles = []string{auth.RoleAPIClient}
			}
			issuedAt := time.Now()
			token, err := svc.IssueToken(cmd.String("client"), roles)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			return encode(cmd, TokenResult{
				Token:     token,
				ClientID:  cmd.String("client"),
				Roles:     roles,
				ExpiresAt: issuedAt.Add(cfg.Expiration).UTC().Truncate(time.Second),
			})
		},
	}
}

func (a *app) devCertsCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "dev-certs",
		Usage: "Write a throwaway CA and server certificate for local gRPC TLS",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  "out",
				Value: "certs",
			},
			&urfave.StringSliceFlag{
				Name:  "host",
				Value: []string{"localhost", "127.0.0.1"},
			},
		},
		Action: func(_ context.Context, cmd *urfave.Command) error {
			files, err := tlsutil.GenerateDevCertificates(cmd.StringSlice("host"), cmd.String("out"))
			if err != nil {
				return err
			}
			a.logger.Info("development certificates written", "dir", cmd.String("out"))
			return encode(cmd, files)
		},
	}
}
