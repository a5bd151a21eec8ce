package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "BOARDLEDGER_"

type Application struct {
	Host     string   `koanf:"host"`
	Server   Server   `koanf:"server"`
	Database Database `koanf:"db"`
	Rollover Rollover `koanf:"rollover"`
	Payments Payments `koanf:"payments"`
	Live     Toggle   `koanf:"live"`
	Metrics  Toggle   `koanf:"metrics"`
	Log      Log      `koanf:"log"`
}

type Server struct {
	Port int `koanf:"port"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Rollover struct {
	// Debounce is the quiet period before a recalculated month is persisted.
	Debounce     time.Duration `koanf:"debounce"`
	WriteTimeout time.Duration `koanf:"writetimeout"`
}

type Payments struct {
	Currency string `koanf:"currency"`
	// Scheme is the deep-link prefix of the payment app, e.g. "https://pay.example.com/request".
	Scheme string `koanf:"scheme"`
}

type Toggle struct {
	Enabled bool `koanf:"enabled"`
}

type Log struct {
	Format string `koanf:"format"`
}

func Defaults() Application {
	return Application{
		Host:   "http://localhost:3000",
		Server: Server{Port: 8181},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "boardledger",
			Pass:   "",
			Name:   "boardledger",
			Schema: "boardledger",
		},
		Rollover: Rollover{
			Debounce:     2 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Payments: Payments{
			Currency: "NOK",
			Scheme:   "https://qr.vipps.no/28/2/01/031",
		},
		Live:    Toggle{Enabled: true},
		Metrics: Toggle{Enabled: true},
		Log:     Log{Format: "text"},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
