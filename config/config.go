package config

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// SysConfig system config
type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// WebConfig web server config
type WebConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// DBConfig database config
type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// LogConfig logger config
type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system" json:"system"`
	Web      WebConfig `yaml:"web" json:"web"`
	Database DBConfig  `yaml:"database" json:"database"`
	Logger   LogConfig `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "metrics"), 0755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "VeriSeal",
		Location: "Asia/Jakarta",
		Workdir:  "/var/veriseal",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 1898,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "veriseal_v1",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/veriseal/veriseal.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue == "true" || evalue == "1" || evalue == "on")
	}
}

func setEnvIntValue(name string, f func(v int)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(cast.ToInt(evalue))
	}
}

// LoadConfig loads the configuration file and applies environment overrides.
// A nil cfg falls back to /etc/veriseal.yml or the defaults.
func LoadConfig(cfile string) *AppConfig {
	// Default configuration
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" && FileExists(cfile) {
		data, err := os.ReadFile(cfile)
		if err != nil {
			panic(err)
		}
		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			panic(err)
		}
	} else if FileExists("/etc/veriseal.yml") {
		data := Must(os.ReadFile("/etc/veriseal.yml"))
		Must2(yaml.Unmarshal(data, cfg))
	}

	cfg.initDirs()

	setEnvValue("VERISEAL_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvBoolValue("VERISEAL_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })
	setEnvValue("VERISEAL_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvIntValue("VERISEAL_WEB_PORT", func(v int) { cfg.Web.Port = v })
	setEnvValue("VERISEAL_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("VERISEAL_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvIntValue("VERISEAL_DB_PORT", func(v int) { cfg.Database.Port = v })
	setEnvValue("VERISEAL_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("VERISEAL_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("VERISEAL_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("VERISEAL_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })
	setEnvBoolValue("VERISEAL_LOGGER_FILE_ENABLE", func(v bool) { cfg.Logger.FileEnable = v })

	return cfg
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func Must2(err error) {
	if err != nil {
		panic(err)
	}
}

func (c *AppConfig) GetDatabaseDSN() string {
	switch c.Database.Type {
	case "sqlite":
		return path.Join(c.GetDataDir(), c.Database.Name+".db")
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=%s",
			c.Database.Host, c.Database.User, c.Database.Passwd, c.Database.Name, c.Database.Port, c.System.Location)
	}
}
