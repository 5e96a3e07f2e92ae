package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"commentary-ai/internal/appdirs"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type AppConfig struct {
	// Proxy applies to outbound provider calls, empty means direct.
	Proxy      string `toml:"proxy"`
	OutputDir  string `toml:"output_dir"`
	ScratchDir string `toml:"scratch_dir"`
}

type PipelineConfig struct {
	FrameCount     int    `toml:"frame_count"`
	SampleStrategy string `toml:"sample_strategy"` // uniform | scene
	MaxConcurrency int    `toml:"max_concurrency"`
	PerCallTimeout int    `toml:"per_call_timeout"` // seconds
	MaxRetries     int    `toml:"max_retries"`
	// NarrationTarget is the narration length the script generator aims
	// for, in seconds. Zero means match the source video duration.
	NarrationTarget      int     `toml:"narration_target"`
	DurationTolerancePct float64 `toml:"duration_tolerance_pct"`
	ProviderRateLimit    float64 `toml:"provider_rate_limit"` // calls per second, 0 = unlimited
}

type VisionConfig struct {
	Provider string `toml:"provider"` // openai | gemini
	Model    string `toml:"model"`
}

type LlmConfig struct {
	Model string `toml:"model"`
}

type OpenaiConfig struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
}

type GeminiConfig struct {
	ApiKey string `toml:"api_key"`
}

type GoogleTtsConfig struct {
	ApiKey       string `toml:"api_key"`
	Voice        string `toml:"voice"`
	LanguageCode string `toml:"language_code"`
}

type OpenaiTtsConfig struct {
	Voice string `toml:"voice"`
}

type TtsConfig struct {
	Provider string          `toml:"provider"` // openai | google
	Filler   string          `toml:"filler"`   // silence | skip-note
	Google   GoogleTtsConfig `toml:"google"`
	Openai   OpenaiTtsConfig `toml:"openai"`
}

type PublishConfig struct {
	Enabled         bool   `toml:"enabled"`
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
	Privacy         string `toml:"privacy"`
	CategoryId      string `toml:"category_id"`
}

type QueueConfig struct {
	Enabled   bool   `toml:"enabled"`
	RedisAddr string `toml:"redis_addr"`
	Workers   int    `toml:"workers"`
}

type Config struct {
	Server ServerConfig `toml:"server"`
	App    AppConfig    `toml:"app"`

	Pipeline PipelineConfig `toml:"pipeline"`

	Vision VisionConfig `toml:"vision"`
	Llm    LlmConfig    `toml:"llm"`
	Tts    TtsConfig    `toml:"tts"`

	Openai OpenaiConfig `toml:"openai"`
	Gemini GeminiConfig `toml:"gemini"`

	// CategoryLabels maps provider label variants onto canonical category
	// names, merged over the built-in table.
	CategoryLabels map[string]string `toml:"category_labels"`

	Publish PublishConfig `toml:"publish"`
	Queue   QueueConfig   `toml:"queue"`
}

var Conf Config

var resolveConfigPath = func() (string, error) {
	dirs, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return dirs.ConfigFile, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8888,
		},
		App: AppConfig{
			OutputDir:  "runs",
			ScratchDir: "scratch",
		},
		Pipeline: PipelineConfig{
			FrameCount:           8,
			SampleStrategy:       "uniform",
			MaxConcurrency:       4,
			PerCallTimeout:       60,
			MaxRetries:           3,
			DurationTolerancePct: 15,
			ProviderRateLimit:    2,
		},
		Vision: VisionConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Llm: LlmConfig{
			Model: "gpt-4o",
		},
		Tts: TtsConfig{
			Provider: "openai",
			Filler:   "silence",
			Google: GoogleTtsConfig{
				Voice:        "en-GB-Journey-O",
				LanguageCode: "en-GB",
			},
			Openai: OpenaiTtsConfig{
				Voice: "alloy",
			},
		},
		Publish: PublishConfig{
			Privacy:    "private",
			CategoryId: "22",
		},
		Queue: QueueConfig{
			RedisAddr: "127.0.0.1:6379",
			Workers:   2,
		},
	}
}

// LoadOrCreateConfig loads the config file, writing the default file first
// when it does not exist yet. The returned bool reports whether a new file
// was created.
func LoadOrCreateConfig() (bool, error) {
	configPath, err := resolveConfigPath()
	if err != nil {
		return false, fmt.Errorf("resolve config path: %w", err)
	}

	if _, err = os.Stat(configPath); os.IsNotExist(err) {
		Conf = defaultConfig()
		if err = SaveConfig(); err != nil {
			return false, fmt.Errorf("write default config: %w", err)
		}
		return true, nil
	} else if err != nil {
		return false, err
	}

	Conf = defaultConfig()
	if _, err = toml.DecodeFile(configPath, &Conf); err != nil {
		return false, fmt.Errorf("decode config file %s: %w", configPath, err)
	}
	return false, nil
}

func SaveConfig() error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(Conf)
}

// CheckConfig validates the loaded configuration before the backend starts.
func CheckConfig() error {
	if Conf.Pipeline.FrameCount <= 0 {
		return fmt.Errorf("pipeline.frame_count must be positive, got %d", Conf.Pipeline.FrameCount)
	}
	if Conf.Pipeline.MaxConcurrency <= 0 {
		return fmt.Errorf("pipeline.max_concurrency must be positive, got %d", Conf.Pipeline.MaxConcurrency)
	}
	switch Conf.Pipeline.SampleStrategy {
	case "uniform", "scene":
	default:
		return fmt.Errorf("pipeline.sample_strategy must be uniform or scene, got %q", Conf.Pipeline.SampleStrategy)
	}

	switch Conf.Vision.Provider {
	case "openai":
		if strings.TrimSpace(Conf.Openai.ApiKey) == "" {
			return fmt.Errorf("openai.api_key is required for vision provider %q", Conf.Vision.Provider)
		}
	case "gemini":
		if strings.TrimSpace(Conf.Gemini.ApiKey) == "" {
			return fmt.Errorf("gemini.api_key is required for vision provider %q", Conf.Vision.Provider)
		}
	default:
		return fmt.Errorf("unsupported vision provider %q", Conf.Vision.Provider)
	}

	switch Conf.Tts.Provider {
	case "openai":
		if strings.TrimSpace(Conf.Openai.ApiKey) == "" {
			return fmt.Errorf("openai.api_key is required for tts provider %q", Conf.Tts.Provider)
		}
	case "google":
		if strings.TrimSpace(Conf.Tts.Google.ApiKey) == "" {
			return fmt.Errorf("tts.google.api_key is required for tts provider %q", Conf.Tts.Provider)
		}
	default:
		return fmt.Errorf("unsupported tts provider %q", Conf.Tts.Provider)
	}

	switch Conf.Tts.Filler {
	case "silence", "skip-note":
	default:
		return fmt.Errorf("tts.filler must be silence or skip-note, got %q", Conf.Tts.Filler)
	}

	// Script generation always goes through the chat capability.
	if strings.TrimSpace(Conf.Openai.ApiKey) == "" {
		return fmt.Errorf("openai.api_key is required for script generation")
	}

	return nil
}
