package dashd

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/jd3nn1s/dashd/esplink"
)

const (
	defaultSerialPort  = "/dev/ttyAMA0"
	defaultControlAddr = "127.0.0.1:7755"
)

// duration adds TOML text parsing to time.Duration.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type SerialConfig struct {
	Port         string
	Baud         int
	StaleTimeout duration
}

type RaceBoxConfig struct {
	StaleTimeout duration
}

type ControlConfig struct {
	Listen string
}

type Config struct {
	Serial  SerialConfig
	RaceBox RaceBoxConfig
	Control ControlConfig
}

func defaultConfig() Config {
	return Config{
		Serial: SerialConfig{
			Port:         defaultSerialPort,
			Baud:         esplink.DefaultBaudRate,
			StaleTimeout: duration{DefaultStaleTimeout},
		},
		RaceBox: RaceBoxConfig{
			StaleTimeout: duration{DefaultStaleTimeout},
		},
		Control: ControlConfig{
			Listen: defaultControlAddr,
		},
	}
}

// LoadConfig reads a TOML config file. A missing file yields defaults so
// the daemon runs without any configuration at all.
func LoadConfig(fileName string) (*Config, error) {
	file, err := os.Open(fileName)
	if os.IsNotExist(err) {
		config := defaultConfig()
		return &config, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

func LoadConfigFromReader(configReader io.Reader) (*Config, error) {
	configData, err := io.ReadAll(configReader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	config := defaultConfig()
	if _, err := toml.Decode(string(configData), &config); err != nil {
		return nil, errors.Wrap(err, "unable to load configuration")
	}
	return &config, nil
}
