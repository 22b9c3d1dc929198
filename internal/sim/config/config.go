package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	World struct {
		Height    int `yaml:"height"`
		BoundaryR int `yaml:"boundary_r"`
	} `yaml:"world"`

	Materials Materials `yaml:"materials"`

	Data struct {
		Dir       string `yaml:"dir"`
		DisableDB bool   `yaml:"disable_db"`
		TraceLog  bool   `yaml:"trace_log"`
	} `yaml:"data"`
}

// Materials names the block roles the scanner looks for. Names resolve
// against the world palette.
type Materials struct {
	Body      string `yaml:"body"`
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Interface string `yaml:"interface"`
	Sign      string `yaml:"sign"`
	Wire      string `yaml:"wire"`
}

func Defaults() Config {
	var c Config
	c.TickRateHz = 5
	c.World.Height = 8
	c.World.BoundaryR = 4096
	c.Materials = Materials{
		Body:      "SANDSTONE",
		Input:     "IRON_BLOCK",
		Output:    "GOLD_BLOCK",
		Interface: "LAPIS_BLOCK",
		Sign:      "WALL_SIGN",
		Wire:      "WIRE",
	}
	c.Data.Dir = "./data"
	return c
}

func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("config.yaml: %w", err)
	}
	if c.TickRateHz <= 0 {
		return c, fmt.Errorf("config.yaml: tick_rate_hz must be positive")
	}
	return c, nil
}
