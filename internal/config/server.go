package config

import "fmt"

type ServerConfig struct {
	HTTP HTTPConfig `yaml:"http" mapstructure:"http"`
}

type HTTPConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

func (c HTTPConfig) Address() string {
	port := c.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}
