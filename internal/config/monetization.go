package config

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const monetizationModelKey = "monetization.model"

var defaultMonetizationPaths = []string{
	"/var/lib/grantgate/config", // Volume-mounted config
	"/etc/grantgate",            // System config
	".",                         // Current directory (dev mode)
}

// MonetizationHolder keeps the current monetization config. Reads are lock free;
// writes are last-writer-wins.
type MonetizationHolder struct {
	log     *zap.Logger
	v       *viper.Viper
	current atomic.Value // holds monetizationdomain.Config

	writeMu sync.Mutex
}

func NewMonetizationHolder(log *zap.Logger) (*MonetizationHolder, error) {
	return newMonetizationHolder(log, defaultMonetizationPaths)
}

// NewMonetizationHolderIn looks for monetization.yml in dir only.
func NewMonetizationHolderIn(log *zap.Logger, dir string) (*MonetizationHolder, error) {
	return newMonetizationHolder(log, []string{dir})
}

// ConfigFile is the monetization file in use, empty when none was found.
func (h *MonetizationHolder) ConfigFile() string {
	if h.v == nil {
		return ""
	}
	return h.v.ConfigFileUsed()
}

func newMonetizationHolder(log *zap.Logger, paths []string) (*MonetizationHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()

	v.SetConfigName("monetization")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("GRANTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault(monetizationModelKey, string(monetizationdomain.ModelFree))

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := readMonetization(v)
	if err != nil {
		return nil, err
	}

	holder := &MonetizationHolder{
		log: log.Named("monetization.config"),
		v:   v,
	}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := readMonetization(v)
			if err != nil {
				holder.log.Warn("invalid monetization config ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			holder.log.Info("monetization config reloaded",
				zap.String("file", e.Name),
				zap.String("model", string(updated.MonetizationModel)),
			)
		})
	}

	return holder, nil
}

// NewStaticMonetizationHolder returns a holder that is never backed by a file.
func NewStaticMonetizationHolder(cfg monetizationdomain.Config) *MonetizationHolder {
	holder := &MonetizationHolder{log: zap.NewNop()}
	holder.current.Store(cfg)
	return holder
}

func (h *MonetizationHolder) Get() monetizationdomain.Config {
	return h.current.Load().(monetizationdomain.Config)
}

// SetModel replaces the active model and writes it back to the config file when
// one is in use.
func (h *MonetizationHolder) SetModel(ctx context.Context, model monetizationdomain.Model) error {
	if !model.Known() {
		return monetizationdomain.ErrUnknownModel
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.current.Store(monetizationdomain.Config{MonetizationModel: model})

	if h.v == nil || h.v.ConfigFileUsed() == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// A separate instance keeps Set() overrides out of the watched one, so later
	// edits to the file still take effect.
	w := viper.New()
	w.SetConfigFile(h.v.ConfigFileUsed())
	if err := w.ReadInConfig(); err != nil {
		return err
	}
	w.Set(monetizationModelKey, string(model))
	if err := w.WriteConfig(); err != nil {
		return err
	}

	h.log.Info("monetization model updated", zap.String("model", string(model)))
	return nil
}

func readMonetization(v *viper.Viper) (monetizationdomain.Config, error) {
	raw := strings.TrimSpace(v.GetString(monetizationModelKey))
	if raw == "" {
		return monetizationdomain.Config{}, errors.New("monetization.model cannot be empty")
	}
	model, err := monetizationdomain.ParseModel(raw)
	if err != nil {
		return monetizationdomain.Config{}, err
	}
	return monetizationdomain.Config{MonetizationModel: model}, nil
}
