package mealplanner

import "time"

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,required"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=2000"`
	Temperature float32 `env:"TEMPERATURE,default=0.7"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type PlannerConfig struct {
	MaxRetries          int           `env:"MAX_RETRIES,default=5"`
	OracleTimeout       time.Duration `env:"ORACLE_TIMEOUT,default=25s"`
	OracleMaxRetries    uint          `env:"ORACLE_MAX_RETRIES,default=3"`
	OracleRatePerSecond float64       `env:"ORACLE_RATE_PER_SECOND,default=2"`
	BaseOllamaEndpoint  string        `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	MockMode            bool          `env:"MOCK_MODE,default=false"`

	ArtifactsPricesPath        string `env:"ARTIFACTS_PRICES_PATH,default=artifacts/prices.yaml"`
	ArtifactsRecipesPath       string `env:"ARTIFACTS_RECIPES_PATH,default=artifacts/recipes.json"`
	ArtifactsEmergencyMenuPath string `env:"ARTIFACTS_EMERGENCY_MENU_PATH"`

	PriceCacheDir     string        `env:"PRICE_CACHE_DIR,default=.cache/prices"`
	PriceCacheDays    int           `env:"PRICE_CACHE_DAYS,default=1"`
	RecipeCacheTTL    time.Duration `env:"RECIPE_CACHE_TTL,default=300s"`
	RecipeSearchLimit int           `env:"RECIPE_SEARCH_LIMIT,default=5"`
	SearchAPIKey      string        `env:"SEARCH_API_KEY"`
	SearchEndpoint    string        `env:"SEARCH_ENDPOINT,default=https://api.tavily.com/search"`

	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL,default=#meal-plans"`

	HTTPAddr string `env:"HTTP_ADDR,default=:8080"`
}

type S3Config struct {
	Bucket           string `env:"ARTIFACTS_S3_BUCKET,required"`
	PricesKey        string `env:"ARTIFACTS_PRICES_S3_KEY,default=prices.yaml"`
	RecipesKey       string `env:"ARTIFACTS_RECIPES_S3_KEY,default=recipes.json"`
	EmergencyMenuKey string `env:"ARTIFACTS_EMERGENCY_MENU_S3_KEY"`
}
