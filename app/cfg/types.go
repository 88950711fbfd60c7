package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	FeedsDir          string
	Port              string
	BaseUrl           string
	SchedulerInterval int
	APIAccessKey      string // /api is served only when set

	// Fetching
	UserAgent    string
	FetchTimeout int     // seconds, default for feeds without their own timeout
	FetchRate    float64 // requests per second across all fetches, 0 for unlimited

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
