package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type PowerCfg struct {
	LimitAmps float64 `yaml:"limit_amps"`
	WhiteCap  float64 `yaml:"white_cap"`
	ChanMA    float64 `yaml:"chan_ma"`
}

type Tiles struct {
	TileW int `yaml:"tile_w"`
	TileH int `yaml:"tile_h"`
}

type SPI struct {
	Port    string `yaml:"port"`     // e.g. /dev/spidev0.0, empty picks the first
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2500000
}

type I2C struct {
	Bus  string `yaml:"bus"`
	Addr uint16 `yaml:"addr"`
}

type Sensor struct {
	Kind     string  `yaml:"kind"` // "adxl345" | "sim"
	Required bool    `yaml:"required"`
	TiltX    float64 `yaml:"tilt_x"`
	TiltZ    float64 `yaml:"tilt_z"`
}

type MQTT struct {
	Broker       string `yaml:"broker"` // tcp://host:1883; empty disables
	ClientID     string `yaml:"client_id"`
	CommandTopic string `yaml:"command_topic"`
	StatusTopic  string `yaml:"status_topic"`
	Username     string `yaml:"username,omitempty"`
	Password     string `yaml:"password,omitempty"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Driver     string  `yaml:"driver"` // "nrzled" | "screen" | "term" | "window" | "sim"
	ColorOrder string  `yaml:"color_order"`
	Brightness float64 `yaml:"brightness"`
	FPS        int     `yaml:"fps"`

	Tiles Tiles    `yaml:"tiles"`
	SPI   SPI      `yaml:"spi,omitempty"`
	I2C   I2C      `yaml:"i2c,omitempty"`
	Power PowerCfg `yaml:"power"`

	Sensor Sensor `yaml:"sensor"`
	MQTT   MQTT   `yaml:"mqtt,omitempty"`
	HTTP   HTTP   `yaml:"http"`

	Effect        string `yaml:"effect"`
	AnimationsDir string `yaml:"animations_dir,omitempty"`
}

// Default mirrors the stock 16x16 build with sane daemon settings.
func Default() *Config {
	return &Config{
		Driver:     "sim",
		ColorOrder: "GRB",
		Brightness: 0.5,
		FPS:        60,
		Tiles:      Tiles{TileW: 8, TileH: 8},
		I2C:        I2C{Addr: 0x53},
		Power:      PowerCfg{LimitAmps: 4, WhiteCap: 0.8, ChanMA: 20},
		Sensor:     Sensor{Kind: "adxl345", Required: true},
		MQTT: MQTT{
			ClientID:     "matrix",
			CommandTopic: "matrix/command",
			StatusTopic:  "matrix/status",
		},
		HTTP:   HTTP{Addr: ":8080"},
		Effect: "gravity_balls",
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
