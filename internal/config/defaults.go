package config

const (
	defaultStagingDir         = "~/.local/share/atelier/staging"
	defaultDataDir            = "~/.local/share/atelier"
	defaultLogDir             = "~/.local/share/atelier/logs"
	defaultStudioBaseURL      = "http://127.0.0.1:8000"
	defaultStudioTimeout      = 600
	defaultProgressTimeout    = 900
	defaultMaxRunning         = 3
	defaultMaxUploadMiB       = 50
	defaultProcessingDPI      = 300
	defaultProcessingUpscale  = 2
	defaultEtsyPrice          = "5.00"
	defaultEtsyQuantity       = "10"
	defaultEtsyOrientation    = "vertical"
	defaultEtsyPiecesIncluded = "1"
	defaultEtsyRequestTimeout = 120
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Studio: Studio{
			BaseURL:         defaultStudioBaseURL,
			RequestTimeout:  defaultStudioTimeout,
			ProgressTimeout: defaultProgressTimeout,
		},
		Workflow: Workflow{
			MaxRunning:   defaultMaxRunning,
			MaxUploadMiB: defaultMaxUploadMiB,
		},
		Processing: Processing{
			DPI:     defaultProcessingDPI,
			Upscale: defaultProcessingUpscale,
		},
		Etsy: Etsy{
			Price:          defaultEtsyPrice,
			Quantity:       defaultEtsyQuantity,
			Orientation:    defaultEtsyOrientation,
			PiecesIncluded: defaultEtsyPiecesIncluded,
			RequestTimeout: defaultEtsyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
