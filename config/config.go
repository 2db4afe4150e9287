package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	TempDir     string
	MediaRoot   string // API requests may only reference files under it
	CORSOrigins []string
	JWTSecret   string
	DatabaseURL string

	// External binaries
	FFmpegPath  string
	FFprobePath string

	// Provider credentials
	PexelsAPIKeys     []string
	ElevenLabsAPIKeys []string
	ElevenLabsVoiceID string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	WhisperModel      string

	// Render defaults
	DefaultAspect string
	FontPath      string
	Render        RenderProfile

	// Job handling
	MaxConcurrentRenders int
	CleanupAfter         time.Duration
	RetryDelaySeconds    int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	d := DefaultRenderProfile()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		TempDir:     getEnv("TEMP_DIR", "./temp"),
		MediaRoot:   getEnv("MEDIA_ROOT", "./media"),
		CORSOrigins: parseList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),

		PexelsAPIKeys:     parseList(getEnv("PEXELS_API_KEYS", "")),
		ElevenLabsAPIKeys: parseList(getEnv("ELEVENLABS_API_KEYS", "")),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		WhisperModel:      getEnv("WHISPER_MODEL", "whisper-1"),

		DefaultAspect: getEnv("DEFAULT_ASPECT", "9:16"),
		FontPath:      getEnv("FONT_PATH", "fonts/Montserrat-Black.ttf"),
		Render: RenderProfile{
			FPS:              getEnvAsInt("VIDEO_FPS", d.FPS),
			VideoCodec:       getEnv("VIDEO_CODEC", d.VideoCodec),
			VideoPreset:      getEnv("VIDEO_PRESET", d.VideoPreset),
			AudioCodec:       getEnv("AUDIO_CODEC", d.AudioCodec),
			AudioBitrate:     getEnv("AUDIO_BITRATE", d.AudioBitrate),
			AudioSampleRate:  getEnvAsInt("AUDIO_SAMPLE_RATE", d.AudioSampleRate),
			MusicGain:        getEnvAsFloat("MUSIC_GAIN", d.MusicGain),
			ZoomRate:         getEnvAsFloat("ZOOM_RATE", d.ZoomRate),
			CaptionFontSize:  getEnvAsInt("CAPTION_FONT_SIZE", d.CaptionFontSize),
			CaptionStroke:    getEnvAsInt("CAPTION_STROKE_WIDTH", d.CaptionStroke),
			CaptionStrokeHex: getEnv("CAPTION_STROKE_COLOR", d.CaptionStrokeHex),
			WatermarkHeight:  getEnvAsInt("WATERMARK_HEIGHT", d.WatermarkHeight),
			WatermarkMargin:  getEnvAsInt("WATERMARK_MARGIN", d.WatermarkMargin),
		},

		MaxConcurrentRenders: getEnvAsInt("MAX_CONCURRENT_RENDERS", 1),
		CleanupAfter:         getEnvAsDuration("CLEANUP_AFTER", time.Hour),
		RetryDelaySeconds:    getEnvAsInt("RETRY_DELAY_SECONDS", 60),
	}

	if path := getEnv("RENDER_PROFILE", ""); path != "" {
		profile, err := LoadRenderProfile(path, cfg.Render)
		if err != nil {
			return nil, err
		}
		cfg.Render = profile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return errors.New("FFMPEG_PATH and FFPROBE_PATH must not be empty")
	}
	if c.MediaRoot == "" {
		return errors.New("MEDIA_ROOT must not be empty")
	}
	if c.MaxConcurrentRenders <= 0 {
		return errors.New("MAX_CONCURRENT_RENDERS must be positive")
	}
	switch c.DefaultAspect {
	case "9:16", "16:9":
	default:
		return fmt.Errorf("DEFAULT_ASPECT must be 9:16 or 16:9, got %q", c.DefaultAspect)
	}
	return c.Render.Validate()
}

// CanProduce reports whether the stock media and narration providers are configured
func (c *Config) CanProduce() bool {
	return len(c.PexelsAPIKeys) > 0 && len(c.ElevenLabsAPIKeys) > 0
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, FFmpeg: %s, Pexels Keys: %d, ElevenLabs Keys: %d, Whisper: %t, DB: %t, Auth: %t}",
		c.Port, c.FFmpegPath, len(c.PexelsAPIKeys), len(c.ElevenLabsAPIKeys),
		c.OpenAIAPIKey != "", c.DatabaseURL != "", c.JWTSecret != "")
}
