// Package config defines the declarative shape of a relay engine
// (spec.md §3, §6) and its JSON persistence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jangala-dev/logflux-relay/filter"
)

// StreamType tags the per-type settings variant carried by a
// StreamConfig (spec.md §3, §6).
type StreamType string

const (
	TypeNone     StreamType = "None"
	TypeSerial   StreamType = "Serial"
	TypeFile     StreamType = "File"
	TypeTerminal StreamType = "Terminal"
	TypeUDP      StreamType = "Udp"
	TypeMQTT     StreamType = "Mqtt"
	TypeI2C      StreamType = "WaveformsI2c"
)

// EngineConfig is the top-level persisted document.
type EngineConfig struct {
	TickMs       int64          `json:"tick_ms,omitempty"`
	StreamConfigs []StreamConfig `json:"stream_configs"`
}

// StreamConfig is the declarative identity, graph edge list and per-type
// settings of a single stream (spec.md §3).
type StreamConfig struct {
	UUID              uuid.UUID  `json:"uuid"`
	Name              string     `json:"name"`
	InputFilter       filter.Filter `json:"input_filter"`
	OutputStreams     []uuid.UUID   `json:"output_streams"`
	MessageDelimiter  string        `json:"message_delimiter,omitempty"`
	TypeConfig        TypeConfig    `json:"type_config"`
}

// Delimiter returns the configured message delimiter, defaulting to "\n".
func (c StreamConfig) Delimiter() string {
	if c.MessageDelimiter == "" {
		return "\n"
	}
	return c.MessageDelimiter
}

// TypeConfig is the tagged-union per-type settings payload. It marshals
// as `{"<Type>": {...}}` or the bare string `"None"`, matching spec.md §6.
type TypeConfig struct {
	Type     StreamType
	Serial   *SerialConfig
	File     *FileConfig
	Terminal *TerminalConfig
	UDP      *UDPConfig
	MQTT     *MQTTConfig
	I2C      *I2CConfig
}

type SerialConfig struct {
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

type FileConfig struct {
	// FileName, when empty, is derived at open time from the stream name
	// and the current timestamp (spec.md §4.2, §6).
	FileName string `json:"file_name,omitempty"`
}

type TerminalConfig struct {
	GeneratesMessages          bool  `json:"generates_messages,omitempty"`
	InterMessageGenerationPeriodMs int64 `json:"inter_message_generation_period_ms,omitempty"`
	PrintToStandardOut         bool  `json:"print_to_standard_out,omitempty"`
}

type UDPConfig struct {
	// Direction is "output" (send each inbound message to Destination) or
	// "input" (listen on LocalPort and emit one Message per datagram).
	Direction   string `json:"direction"`
	Destination string `json:"destination,omitempty"`
	LocalPort   int    `json:"local_port,omitempty"`
}

type MQTTConfig struct {
	Broker    string `json:"broker"`
	Topic     string `json:"topic"`
	ClientID  string `json:"client_id"`
	Direction string `json:"direction"` // "publish" or "subscribe"
}

type I2CConfig struct {
	Device string `json:"device,omitempty"`
}

func (t TypeConfig) MarshalJSON() ([]byte, error) {
	switch t.Type {
	case TypeNone, "":
		return json.Marshal("None")
	case TypeSerial:
		return json.Marshal(map[string]*SerialConfig{"Serial": t.Serial})
	case TypeFile:
		return json.Marshal(map[string]*FileConfig{"File": t.File})
	case TypeTerminal:
		return json.Marshal(map[string]*TerminalConfig{"Terminal": t.Terminal})
	case TypeUDP:
		return json.Marshal(map[string]*UDPConfig{"Udp": t.UDP})
	case TypeMQTT:
		return json.Marshal(map[string]*MQTTConfig{"Mqtt": t.MQTT})
	case TypeI2C:
		return json.Marshal(map[string]*I2CConfig{"WaveformsI2c": t.I2C})
	default:
		return nil, fmt.Errorf("config: unknown stream type %q", t.Type)
	}
}

func (t *TypeConfig) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		if bare != "None" {
			return fmt.Errorf("config: unknown bare type_config %q", bare)
		}
		*t = TypeConfig{Type: TypeNone}
		return nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("config: type_config is neither a string nor an object: %w", err)
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("config: type_config object must carry exactly one variant, got %d", len(wrapper))
	}

	for tag, raw := range wrapper {
		switch StreamType(tag) {
		case TypeSerial:
			var c SerialConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			*t = TypeConfig{Type: TypeSerial, Serial: &c}
		case TypeFile:
			var c FileConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			*t = TypeConfig{Type: TypeFile, File: &c}
		case TypeTerminal:
			var c TerminalConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			*t = TypeConfig{Type: TypeTerminal, Terminal: &c}
		case TypeUDP:
			var c UDPConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			*t = TypeConfig{Type: TypeUDP, UDP: &c}
		case TypeMQTT:
			var c MQTTConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			*t = TypeConfig{Type: TypeMQTT, MQTT: &c}
		case TypeI2C:
			var c I2CConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			*t = TypeConfig{Type: TypeI2C, I2C: &c}
		default:
			return fmt.Errorf("config: unsupported type_config variant %q", tag)
		}
	}
	return nil
}

// NewUUID generates a fresh random stream identity (spec.md §3: "128-bit,
// randomly generated at configuration time").
func NewUUID() uuid.UUID { return uuid.New() }

// Load reads and decodes an EngineConfig from path.
func Load(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg EngineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.TickMs <= 0 {
		cfg.TickMs = 10
	}
	return &cfg, nil
}

// Save encodes cfg as indented JSON and writes it to path.
func Save(path string, cfg *EngineConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Tick returns the engine's configured tick cadence, defaulting to 10ms
// (spec.md §5).
func (c EngineConfig) Tick() time.Duration {
	ms := c.TickMs
	if ms <= 0 {
		ms = 10
	}
	return time.Duration(ms) * time.Millisecond
}
