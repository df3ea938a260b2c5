package envvar

const (
	// ToolguideEnv is the environment variable used to determine the environment
	ToolguideEnv = "TOOLGUIDE_ENV"

	// ToolguideLogLevel overrides the configured log level
	ToolguideLogLevel = "TOOLGUIDE_LOG_LEVEL"

	// ToolguideServerHTTPPort is the environment variable used to determine the HTTP port
	ToolguideServerHTTPPort = "TOOLGUIDE_SERVER_HTTP_PORT"

	// ToolguideGeminiAPIKey holds the generative AI API key
	ToolguideGeminiAPIKey = "TOOLGUIDE_GEMINI_API_KEY"

	// ToolguideYarnGPTAPIKey holds the text-to-speech API key
	ToolguideYarnGPTAPIKey = "TOOLGUIDE_YARNGPT_API_KEY"

	// ToolguideTavilyAPIKey holds the web search API key
	ToolguideTavilyAPIKey = "TOOLGUIDE_TAVILY_API_KEY"

	// ToolguideSupabaseURL is the base URL of the Supabase project
	ToolguideSupabaseURL = "TOOLGUIDE_SUPABASE_URL"

	// ToolguideSupabaseAnonKey is the public anon key of the Supabase project
	ToolguideSupabaseAnonKey = "TOOLGUIDE_SUPABASE_ANON_KEY"

	// ToolguideSupabaseServiceKey is the service role key used for storage uploads
	ToolguideSupabaseServiceKey = "TOOLGUIDE_SUPABASE_SERVICE_KEY"

	// ToolguideSupabaseJWTSecret enables local verification of access tokens
	ToolguideSupabaseJWTSecret = "TOOLGUIDE_SUPABASE_JWT_SECRET"
)
