// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config 汇总了所有服务共享的配置。
// 默认从 CONFIG_PATH 指向的 YAML 文件加载，个别字段允许环境变量覆盖。
type Config struct {
	App struct {
		LogLevel string `yaml:"log_level"`
		// MinPaymentAmount 是允许开票的最小金额（字符串形式的定点小数）。
		// 小于等于该值的收费不会生成支付记录。
		MinPaymentAmount string `yaml:"min_payment_amount"`
	} `yaml:"app"`
	Infra struct {
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			// TariffTTLSeconds 控制现行资费缓存的存活时间。
			TariffTTLSeconds int `yaml:"tariff_ttl_seconds"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers      []string `yaml:"brokers"`
			BillingTopic string   `yaml:"billing_topic"`
			AbonoTopic   string   `yaml:"abono_topic"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Nacos struct {
			ServerAddrs string `yaml:"server_addrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var (
	currentConfig *Config
	configOnce    sync.Once
)

// Init 加载配置文件并初始化全局配置，必须在 StartService 之前调用。
func Init() {
	configOnce.Do(func() {
		cfg := defaultConfig()
		path := getEnv("CONFIG_PATH", "config.yaml")
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("config file %s not readable (%v), falling back to defaults", path, err)
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			log.Fatalf("FATAL: invalid config file %s: %v", path, err)
		}
		applyEnvOverrides(cfg)
		currentConfig = cfg
	})
}

// GetCurrentConfig 返回已加载的全局配置。
func GetCurrentConfig() *Config {
	if currentConfig == nil {
		Init()
	}
	return currentConfig
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.LogLevel = "info"
	cfg.App.MinPaymentAmount = "0"
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/cochera?parseTime=true&charset=utf8mb4"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Redis.TariffTTLSeconds = 300
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Kafka.BillingTopic = "billing-events"
	cfg.Infra.Kafka.AbonoTopic = "abono-events"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

// applyEnvOverrides 允许容器环境用变量覆盖最常变动的几项。
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("MYSQL_DSN"); ok {
		cfg.Infra.Mysql.DSN = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		cfg.Infra.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("JAEGER_ENDPOINT"); ok {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v, ok := os.LookupEnv("NACOS_SERVER_ADDRS"); ok {
		cfg.Infra.Nacos.ServerAddrs = v
	}
	if v, ok := os.LookupEnv("NACOS_NAMESPACE"); ok {
		cfg.Infra.Nacos.Namespace = v
	}
	if v, ok := os.LookupEnv("NACOS_GROUP"); ok {
		cfg.Infra.Nacos.Group = v
	}
}

// getEnv 从环境变量中读取配置，不存在时返回默认值。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
