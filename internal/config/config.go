package config

import (
	"os"

	"github.com/go-yaml/yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const EnvPrefix = "REPOINDEX"

type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr" envconfig:"LISTEN_ADDR"`
	RedisAddr     string `yaml:"redisAddr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redisPassword" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redisDB" envconfig:"REDIS_DB"`
	MemcachedAddr string `yaml:"memcachedAddr" envconfig:"MEMCACHED_ADDR"`
	EnableTrace   bool   `yaml:"enableTrace" envconfig:"ENABLE_TRACE"`
	TraceEndpoint string `yaml:"traceEndpoint" envconfig:"TRACE_ENDPOINT"`
}

type Storage struct {
	Driver      string `yaml:"driver" envconfig:"DB_DRIVER"` // sqlite, postgres
	SqlitePath  string `yaml:"sqlitePath" envconfig:"SQLITE_PATH"`
	PostgresDsn string `yaml:"postgresDsn" envconfig:"POSTGRES_DSN"`
	Partition   string `yaml:"partition" envconfig:"PARTITION"`
	BestEffort  bool   `yaml:"bestEffort" envconfig:"BEST_EFFORT"`
}

func defaults() Config {
	return Config{
		Server: Server{
			ListenAddr: ":8000",
		},
		Storage: Storage{
			Driver:     "sqlite",
			SqlitePath: "repoindex.db",
		},
	}
}

// Load reads the yaml file at path, then applies REPOINDEX_* environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	config := defaults()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "decode config")
		}
	}

	if err := envconfig.Process(EnvPrefix, &config.Server); err != nil {
		return Config{}, errors.Wrap(err, "server env")
	}
	if err := envconfig.Process(EnvPrefix, &config.Storage); err != nil {
		return Config{}, errors.Wrap(err, "storage env")
	}

	return config, nil
}
