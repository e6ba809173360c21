// Package main provides the entry point for the envlock CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/envlock/envlock/cmd/envlock/commands"
	"github.com/envlock/envlock/internal/app"
	"github.com/envlock/envlock/internal/config"
)

var version = "dev"

func main() {
	container := app.NewContainer(config.Load())
	defer func() {
		if err := container.Shutdown(context.Background()); err != nil {
			container.Logger().Error("failed to shutdown container", "error", err)
		}
	}()

	cmd := &cli.Command{
		Name:    "envlock",
		Usage:   "Encrypted secrets for env files: master key management, inline encryption, and key rotation",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "init-key",
				Usage: "Generate and persist a new master key",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing key file (orphans existing ciphertext)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunInitKey(container, os.Stdout, cmd.Bool("force"))
				},
			},
			{
				Name:      "encrypt-value",
				Usage:     "Encrypt one value and print the ENC[...] envelope",
				ArgsUsage: "<value>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one value argument")
					}
					return commands.RunEncryptValue(container, os.Stdout, cmd.Args().First())
				},
			},
			{
				Name:      "decrypt-value",
				Usage:     "Decrypt one ENC[...] envelope and print the plaintext",
				ArgsUsage: "<envelope>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one envelope argument")
					}
					return commands.RunDecryptValue(container, os.Stdout, cmd.Args().First())
				},
			},
			{
				Name:      "encrypt-file",
				Usage:     "Encrypt the sensitive-looking values of an env file in place",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "backup",
						Usage: "Keep a .bak copy of the original file",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one file argument")
					}
					return commands.RunEncryptFile(container, os.Stdout, cmd.Args().First(), cmd.Bool("backup"))
				},
			},
			{
				Name:      "decrypt-file",
				Usage:     "Replace every ENC[...] envelope in an env file with its plaintext",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "backup",
						Usage: "Keep a .bak copy of the original file",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one file argument")
					}
					return commands.RunDecryptFile(container, os.Stdout, cmd.Args().First(), cmd.Bool("backup"))
				},
			},
			{
				Name:      "rotate",
				Usage:     "Replace the master key and re-encrypt the store and the given env files",
				ArgsUsage: "[file ...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "backup-dir",
						Usage: "Directory for pre-rotation backups (defaults to ENVLOCK_BACKUP_DIR)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Stage everything and report what would change without committing",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotate(
						ctx,
						container,
						os.Stdout,
						cmd.Args().Slice(),
						cmd.String("backup-dir"),
						cmd.Bool("dry-run"),
					)
				},
			},
			{
				Name:  "history",
				Usage: "List all rotation records in chronological order",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunHistory(container, os.Stdout)
				},
			},
			{
				Name:  "verify-history",
				Usage: "Check rotation record signatures under the active key",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyHistory(container, os.Stdout)
				},
			},
			{
				Name:      "status",
				Usage:     "Report key health and the encrypted variables of the given env files",
				ArgsUsage: "[file ...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunStatus(container, os.Stdout, cmd.Args().Slice())
				},
			},
			{
				Name:  "generate",
				Usage: "Generate a random secret",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "alphanumeric",
						Usage:   "Secret format: alphanumeric, numeric, hex, or uuid",
					},
					&cli.IntFlag{
						Name:    "length",
						Aliases: []string{"l"},
						Value:   32,
						Usage:   "Secret length (ignored for uuid)",
					},
					&cli.BoolFlag{
						Name:  "encrypt",
						Usage: "Print an ENC[...] envelope instead of the plaintext",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunGenerate(
						container,
						os.Stdout,
						cmd.String("format"),
						int(cmd.Int("length")),
						cmd.Bool("encrypt"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		container.Logger().Error("command failed", "error", err)
		os.Exit(1)
	}
}
