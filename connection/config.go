/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package connection

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is a session's static configuration: identity, timing, and role.
// It is populated either directly by the caller or via LoadConfig from a
// TOML/YAML session file, grounded on the viper-based config loading
// style used elsewhere in the example pack.
type Config struct {
	SenderCompID string        `mapstructure:"sender_comp_id"`
	TargetCompID string        `mapstructure:"target_comp_id"`
	HeartBtInt   time.Duration `mapstructure:"heart_bt_int"`
	Role         Role          `mapstructure:"-"`
	RoleName     string        `mapstructure:"role"`
	ResetOnLogon bool          `mapstructure:"reset_on_logon"`
}

// DefaultHeartBtInt is used when a loaded config omits heart_bt_int.
const DefaultHeartBtInt = 30 * time.Second

// LoadConfig reads session configuration from configPath (TOML or YAML,
// inferred from its extension) with FIXENGINE_-prefixed environment
// variable overrides, e.g. FIXENGINE_SENDER_COMP_ID.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FIXENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("connection: config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("connection: read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("connection: unmarshal config: %w", err)
	}

	if cfg.HeartBtInt == 0 {
		cfg.HeartBtInt = DefaultHeartBtInt
	}
	switch strings.ToUpper(cfg.RoleName) {
	case "ACCEPTOR":
		cfg.Role = RoleAcceptor
	default:
		cfg.Role = RoleInitiator
	}

	if cfg.SenderCompID == "" || cfg.TargetCompID == "" {
		return nil, fmt.Errorf("connection: sender_comp_id and target_comp_id are required")
	}

	return &cfg, nil
}
