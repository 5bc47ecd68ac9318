package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/library-assistant/pkg/cache"
	"github.com/Astemirdum/library-assistant/pkg/kafka"
	"github.com/Astemirdum/library-assistant/pkg/logger"
	"github.com/Astemirdum/library-assistant/pkg/ollama"
	"github.com/Astemirdum/library-assistant/pkg/postgres"
	"github.com/Astemirdum/library-assistant/pkg/rag"
	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

type Config struct {
	Server   HTTPServer    `yaml:"server"`
	Database postgres.DB   `yaml:"db"`
	Log      logger.Log    `yaml:"log"`
	Kafka    kafka.Config  `yaml:"kafka"`
	LLM      ollama.Config `yaml:"llm"`
	RAG      rag.Config    `yaml:"rag"`
	Redis    cache.Config  `yaml:"redis"`

	DefaultBorrowerID int64  `envconfig:"DEFAULT_BORROWER_ID" default:"1"`
	OverdueSchedule   string `envconfig:"OVERDUE_SCHEDULE" default:"@every 1h"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	c := *cfg
	c.Database.Password = "***"
	c.Redis.Password = "***"
	jscfg, _ := json.MarshalIndent(c, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
