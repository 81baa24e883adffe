/*
Copyright © 2022 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/mount-utils"

	"github.com/rancher-sandbox/testrig/pkg/config"
	"github.com/rancher-sandbox/testrig/pkg/constants"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

const envPrefix = "TESTRIG"

// ReadConfigRun builds the runtime configuration out of the layered config
// sources, each source overriding the previous one: config.yaml, config.d/
// snippets, environment variables and finally any explicitly set flag
func ReadConfigRun(configDir string, flags *pflag.FlagSet, mounter mount.Interface) (*v1.RunConfig, error) {
	cfg := config.NewRunConfig(
		config.WithLogger(v1.NewLogger()),
		config.WithMounter(mounter),
	)

	configLogger(cfg.Logger, cfg.Fs)

	if exists, _ := utils.Exists(cfg.Fs, filepath.Join(configDir, constants.ConfigFile)); exists {
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName(constants.ConfigFile)
		cobra.CheckErr(viper.MergeInConfig())
	}

	// config.d snippets override the main config file
	cfgExtra := fmt.Sprintf("%s/config.d/", strings.TrimSuffix(configDir, "/"))
	if exists, _ := utils.Exists(cfg.Fs, cfgExtra); exists {
		viper.AddConfigPath(cfgExtra)
		_ = filepath.WalkDir(cfgExtra, func(_ string, d fs.DirEntry, _ error) error {
			if !d.IsDir() {
				viper.SetConfigType("yaml")
				viper.SetConfigName(d.Name())
				cobra.CheckErr(viper.MergeInConfig())
			}
			return nil
		})
	}

	viperReadEnv(viper.GetViper(), constants.GetRunKeyEnvMap())

	bindGivenFlags(viper.GetViper(), flags)

	err := viper.Unmarshal(cfg, setDecoder, decodeHook)
	if err != nil {
		cfg.Logger.Warnf("error unmarshalling RunConfig: %s", err)
	}

	err = cfg.Sanitize()
	cfg.Logger.Debugf("Full config loaded: %s", litter.Sdump(cfg))
	return cfg, err
}

// ReadDeployToolSpec reads the deploy-tool section of the loaded config and
// applies any spec related flag or environment override
func ReadDeployToolSpec(r *v1.RunConfig, flags *pflag.FlagSet) (*v1.DeployToolSpec, error) {
	spec := config.NewDeployToolSpec()
	vp := viper.Sub("deploy-tool")
	if vp == nil {
		vp = viper.New()
	}

	viperReadEnv(vp, constants.GetDeployToolKeyEnvMap())

	bindGivenFlags(vp, flags)

	err := vp.Unmarshal(spec, setDecoder, decodeHook)
	if err != nil {
		r.Logger.Warnf("error unmarshalling DeployToolSpec: %s", err)
		return nil, err
	}

	err = spec.Sanitize()
	r.Logger.Debugf("Loaded deploy-tool spec: %s", litter.Sdump(spec))
	return spec, err
}

// ReadInitSpec reads the init section of the loaded config
func ReadInitSpec(r *v1.RunConfig, flags *pflag.FlagSet) (*v1.InitSpec, error) {
	spec := config.NewInitSpec()
	vp := viper.Sub("init")
	if vp == nil {
		vp = viper.New()
	}

	bindGivenFlags(vp, flags)

	err := vp.Unmarshal(spec, setDecoder, decodeHook)
	if err != nil {
		r.Logger.Warnf("error unmarshalling InitSpec: %s", err)
		return nil, err
	}

	r.Logger.Debugf("Loaded init spec: %s", litter.Sdump(spec))
	return spec, nil
}

// ReadVerifySpec reads the verify section of the loaded config
func ReadVerifySpec(r *v1.RunConfig, flags *pflag.FlagSet) (*v1.VerifySpec, error) {
	spec := config.NewVerifySpec()
	vp := viper.Sub("verify")
	if vp == nil {
		vp = viper.New()
	}

	viperReadEnv(vp, constants.GetVerifyKeyEnvMap())

	bindGivenFlags(vp, flags)

	err := vp.Unmarshal(spec, setDecoder, decodeHook)
	if err != nil {
		r.Logger.Warnf("error unmarshalling VerifySpec: %s", err)
		return nil, err
	}

	err = spec.Sanitize()
	r.Logger.Debugf("Loaded verify spec: %s", litter.Sdump(spec))
	return spec, err
}

func configLogger(log v1.Logger, vfs v1.FS) {
	// Set debug level
	if viper.GetBool("debug") {
		log.SetLevel(v1.DebugLevel())
	}

	// Set formatter so both file and stdout format are equal
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableColors:    false,
		DisableTimestamp: false,
		FullTimestamp:    true,
	})

	// Logfile
	logfile := viper.GetString("logfile")
	if logfile != "" {
		o, err := vfs.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fs.ModePerm)
		if err != nil {
			log.Errorf("Could not open %s for logging to file: %s", logfile, err.Error())
		}

		if viper.GetBool("quiet") { // if quiet is set, only set the log to the file
			log.SetOutput(o)
		} else { // else set it to both stdout and the file
			mw := io.MultiWriter(os.Stdout, o)
			log.SetOutput(mw)
		}
	} else { // no logfile
		if viper.GetBool("quiet") { // quiet is enabled so discard all logging
			log.SetOutput(io.Discard)
		} else { // default to stdout
			log.SetOutput(os.Stdout)
		}
	}
}

// bindGivenFlags binds to viper only passed flags, ignoring default values
func bindGivenFlags(vp *viper.Viper, flagSet *pflag.FlagSet) {
	if flagSet != nil {
		flagSet.VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				_ = vp.BindPFlag(f.Name, f)
			}
		})
	}
}

func viperReadEnv(vp *viper.Viper, keyEnvMap map[string]string) {
	// If we expect to override complex keys in the config, i.e. configs
	// that are nested, we probably need to manually do the env stuff
	// ourselves, as this will only match keys in the config root
	replacer := strings.NewReplacer("-", "_")
	vp.SetEnvKeyReplacer(replacer)
	vp.SetEnvPrefix(envPrefix)

	// Manually bind keys to env variables as the automatic matching
	// does not work for nested configuration sections
	for k, v := range keyEnvMap {
		_ = vp.BindEnv(k, fmt.Sprintf("%s_%s", envPrefix, v))
	}

	vp.AutomaticEnv()
}

// Unmarshaler is the interface types can implement to provide their own
// mapstructure decoding
type Unmarshaler interface {
	CustomUnmarshal(interface{}) (bool, error)
}

// UnmarshalerHook runs the custom unmarshaling of a type if implemented
func UnmarshalerHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Value, to reflect.Value) (interface{}, error) {
		// get the destination object address if it is not passed by reference
		if to.CanAddr() {
			to = to.Addr()
		}
		// If the destination implements the unmarshaling interface
		u, ok := to.Interface().(Unmarshaler)
		if !ok {
			return from.Interface(), nil
		}
		// If it is nil and a pointer, create and assign the target value first
		if to.IsNil() && to.Type().Kind() == reflect.Ptr {
			to.Set(reflect.New(to.Type().Elem()))
			u = to.Interface().(Unmarshaler)
		}
		// Call the custom unmarshaling method
		cont, err := u.CustomUnmarshal(from.Interface())
		if cont {
			// Continue with the default unmarshaling if custom did not work
			return from.Interface(), nil
		}
		return to.Interface(), err
	}
}

func setDecoder(config *mapstructure.DecoderConfig) {
	// Make sure we zero fields before applying them, slices should not
	// merge with any already present value
	config.ZeroFields = true
}

var decodeHook = viper.DecodeHook(
	mapstructure.ComposeDecodeHookFunc(
		UnmarshalerHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	),
)
