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

// Package sops encrypts guild config files, which carry the genesis ledger
// and role identities, for storage at rest
package sops

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	sopsapi "github.com/getsops/sops/v3"
	"github.com/getsops/sops/v3/aes"
	"github.com/getsops/sops/v3/age"
	scommon "github.com/getsops/sops/v3/cmd/sops/common"
	"github.com/getsops/sops/v3/config"
	"github.com/getsops/sops/v3/decrypt"
	"github.com/getsops/sops/v3/gcpkms"
	skeys "github.com/getsops/sops/v3/keys"
	awskms "github.com/getsops/sops/v3/kms"
	jsonstore "github.com/getsops/sops/v3/stores/json"
	"github.com/getsops/sops/v3/version"
)

const (
	EnvAgeRecipients  = "GUILD_AGE_RECIPIENTS"
	EnvGcpKmsResource = "GUILD_GCP_KMS_RESOURCE_ID"
	EnvAwsKmsKeyArns  = "GUILD_AWS_KMS_KEY_ARNS"
	EnvAwsKmsProfile  = "GUILD_AWS_KMS_PROFILE"

	metadataBranchName = "sops"
	binaryFormat       = "binary"
)

var ErrAlreadyEncrypted = errors.New("already encrypted")

// keySource builds one key group from the value of its environment variable
type keySource struct {
	env  string
	keys func(value string) ([]skeys.MasterKey, error)
}

var keySources = []keySource{
	{
		env: EnvAgeRecipients,
		keys: func(recipients string) ([]skeys.MasterKey, error) {
			ageKeys, err := age.MasterKeysFromRecipients(recipients)
			if err != nil {
				return nil, fmt.Errorf("invalid age recipients: %w", err)
			}
			return toMasterKeys(ageKeys), nil
		},
	},
	{
		env: EnvGcpKmsResource,
		keys: func(resourceIDs string) ([]skeys.MasterKey, error) {
			return toMasterKeys(gcpkms.MasterKeysFromResourceIDString(resourceIDs)), nil
		},
	},
	{
		env: EnvAwsKmsKeyArns,
		keys: func(arns string) ([]skeys.MasterKey, error) {
			profile := os.Getenv(EnvAwsKmsProfile)
			return toMasterKeys(awskms.MasterKeysFromArnString(arns, nil, profile)), nil
		},
	},
}

func toMasterKeys[K skeys.MasterKey](in []K) []skeys.MasterKey {
	ret := make([]skeys.MasterKey, 0, len(in))
	for _, k := range in {
		ret = append(ret, k)
	}
	return ret
}

// IsEncrypted reports whether data looks like the output of Encrypt
func IsEncrypted(data []byte) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	_, ok := doc[metadataBranchName]
	return ok
}

// Decrypt returns the plaintext of a file produced by Encrypt. Keys are found
// the way the sops CLI finds them, e.g. SOPS_AGE_KEY or cloud credentials
func Decrypt(data []byte) ([]byte, error) {
	return decrypt.Data(data, binaryFormat)
}

// Encrypt wraps data in a sops document encrypted for every key group
// configured in the environment
func Encrypt(data []byte) ([]byte, error) {
	if IsEncrypted(data) {
		return nil, ErrAlreadyEncrypted
	}
	keyGroups, err := keyGroupsFromEnv()
	if err != nil {
		return nil, err
	}
	store := jsonstore.NewBinaryStore(&config.JSONBinaryStoreConfig{})
	branches, err := store.LoadPlainFile(data)
	if err != nil {
		return nil, fmt.Errorf("load plaintext: %w", err)
	}
	tree := sopsapi.Tree{
		Branches: branches,
		Metadata: sopsapi.Metadata{
			KeyGroups: keyGroups,
			Version:   version.Version,
		},
	}
	dataKey, errs := tree.GenerateDataKey()
	if len(errs) > 0 {
		return nil, fmt.Errorf("generate data key: %w", errors.Join(errs...))
	}
	err = scommon.EncryptTree(scommon.EncryptTreeOpts{
		DataKey: dataKey,
		Tree:    &tree,
		Cipher:  aes.NewCipher(),
	})
	if err != nil {
		return nil, fmt.Errorf("encrypt tree: %w", err)
	}
	encrypted, err := store.EmitEncryptedFile(tree)
	if err != nil {
		return nil, fmt.Errorf("emit encrypted file: %w", err)
	}
	return encrypted, nil
}

func keyGroupsFromEnv() ([]sopsapi.KeyGroup, error) {
	var groups []sopsapi.KeyGroup
	envNames := make([]string, 0, len(keySources))
	for _, src := range keySources {
		envNames = append(envNames, src.env)
		value := os.Getenv(src.env)
		if value == "" {
			continue
		}
		keys, err := src.keys(value)
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			groups = append(groups, keys)
		}
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf(
			"no sops master keys configured: set one of %s",
			strings.Join(envNames, ", "),
		)
	}
	return groups, nil
}
