// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/blinklabs-io/guild/database/sops"
	"github.com/blinklabs-io/guild/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config file utilities",
	}
	cmd.AddCommand(configEncryptCommand())
	cmd.AddCommand(configShowCommand())
	return cmd
}

func configEncryptCommand() *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a config file with sops",
		Long: "Encrypt a config file with sops. Keys are taken from " +
			sops.EnvAgeRecipients + ", " + sops.EnvGcpKmsResource +
			" or " + sops.EnvAwsKmsKeyArns + ".",
		Args: cobra.ExactArgs(1),
		// Skip config loading
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading config file: %w", err)
			}
			encrypted, err := sops.Encrypt(plain)
			if err != nil {
				if errors.Is(err, sops.ErrAlreadyEncrypted) {
					return fmt.Errorf("%s is already encrypted", args[0])
				}
				return err
			}
			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(encrypted)
				return err
			}
			return os.WriteFile(outputFile, encrypted, 0o600)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
