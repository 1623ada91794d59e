package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SourcesDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Ingestion configuration
	FetchTimeout   int
	ProxyURLs      []string
	ImportMaxItems int
	YouTubeAPIKey  string

	// Classification configuration
	GeminiAPIKey        string
	ClassifyModel       string
	ClassifyTemperature float64
	ClassifyMaxTokens   int

	// Retention configuration
	CleanupMaxAgeDays int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
