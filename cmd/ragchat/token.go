package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/internal/runtime"
)

func tokenCMD() *cobra.Command {
	var cfgPath string
	var ttl time.Duration
	var subject string
	var token = &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT for API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			secret, err := runtime.LoadJWTSecret(cfg)
			if err != nil {
				return err
			}
			signed, err := runtime.SignJWT(subject, secret, ttl)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	token.Flags().StringVar(&subject, "subject", "admin", "token subject")
	token.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return token
}
