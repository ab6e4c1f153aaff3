package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultPath = "./config/application.yaml"
	envPrefix   = "MEETSTATS_"
)

var ErrInvalidStatus = errors.New("meeting status must be between 0 and 3")

type Application struct {
	Source   Source   `koanf:"source"`
	Filter   Filter   `koanf:"filter"`
	Report   Report   `koanf:"report"`
	Database Database `koanf:"db"`
	Http     Http     `koanf:"http"`
}

type Source struct {
	// Type is one of ics, google, postgres, stub.
	Type     string `koanf:"type"`
	Timezone string `koanf:"timezone"`
	Ics      Ics    `koanf:"ics"`
	Google   Google `koanf:"google"`
}

type Ics struct {
	Path string `koanf:"path"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
	TokenFile    string `koanf:"tokenfile"`
	CalendarId   string `koanf:"calendarid"`
}

type Filter struct {
	Statuses   []int  `koanf:"statuses"`
	Categories string `koanf:"categories"`
	Exclude    bool   `koanf:"exclude"`
}

type Report struct {
	OutputDir  string `koanf:"outputdir"`
	FilePrefix string `koanf:"fileprefix"`
	Format     string `koanf:"format"`
	Unit       string `koanf:"unit"`
	Notify     bool   `koanf:"notify"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Http struct {
	Addr string `koanf:"addr"`
}

func Defaults() Application {
	outputDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		outputDir = filepath.Join(home, "Downloads")
	}
	return Application{
		Source: Source{
			Type: "ics",
			Ics:  Ics{Path: "./calendar.ics"},
			Google: Google{
				TokenFile:  "./config/google_token.json",
				CalendarId: "primary",
			},
		},
		Filter: Filter{
			Statuses: []int{0, 1, 3},
		},
		Report: Report{
			OutputDir:  outputDir,
			FilePrefix: "outlook_meetings",
			Format:     "xlsx",
			Unit:       "minutes",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "meetstats",
			Pass:   "",
			Name:   "meetstats",
			Schema: "meetstats",
		},
		Http: Http{
			Addr: ":8181",
		},
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
			if k == "filter.statuses" {
				return k, splitList(v)
			}
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
	// defaults always carry statuses, so nil means a source cleared them
	if app.Filter.Statuses == nil {
		app.Filter.Statuses = []int{}
	}

	if err := app.Validate(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func splitList(v string) []string {
	parts := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// Validate rejects statuses outside 0..3. An empty list is allowed.
func (a Application) Validate() error {
	for _, s := range a.Filter.Statuses {
		if s < 0 || s > 3 {
			return fmt.Errorf("%w: got %d", ErrInvalidStatus, s)
		}
	}
	return nil
}
