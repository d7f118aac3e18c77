package cmd

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const app = "talentlens"

type Config struct {
	Listen    string         `mapstructure:"listen"`
	StateFile string         `mapstructure:"state-file"`
	ImagesDir string         `mapstructure:"images-dir"`
	Scoring   *ScoringConfig `mapstructure:"scoring"`
	Gemini    *GeminiConfig  `mapstructure:"gemini"`
	GitHub    *GitHubConfig  `mapstructure:"github"`
	Jina      *JinaConfig    `mapstructure:"jina"`
	Sheets    *SheetsConfig  `mapstructure:"sheets"`
}

type ScoringConfig struct {
	HireThreshold   int `mapstructure:"hire-threshold"`
	RejectThreshold int `mapstructure:"reject-threshold"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type GitHubConfig struct {
	TokenFile string `mapstructure:"token-file"`
}

type JinaConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
}

type SheetsConfig struct {
	URL          string        `mapstructure:"url"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentlens scouts designer and developer candidates and scores them with an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"github.token-file":   "GITHUB_TOKEN_FILE",
		"jina.api-key-file":   "JINA_API_KEY_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentlens.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Secrets may live in a local .env file.
	godotenv.Load()

	viper.SetDefault("listen", ":8080")
	viper.SetDefault("state-file", "talentlens.json")
	viper.SetDefault("images-dir", "scraped_images")
	viper.SetDefault("scoring.hire-threshold", 71)
	viper.SetDefault("scoring.reject-threshold", 40)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		// An explicitly requested config file must parse.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app + ".yaml")

	// Without --config the file is optional: env variables and defaults
	// are enough to run.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{HireThreshold: 71, RejectThreshold: 40}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}
	if config.GitHub == nil {
		config.GitHub = &GitHubConfig{}
	}
	if config.Jina == nil {
		config.Jina = &JinaConfig{}
	}
	if config.Sheets == nil {
		config.Sheets = &SheetsConfig{}
	}

	return config, nil
}
