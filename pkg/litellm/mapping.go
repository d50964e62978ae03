package litellm

// ProviderInfo describes a provider of the catalog and how its models are
// keyed in the feed. Without Prefixes the key prefix is "<id>/".
type ProviderInfo struct {
	ID       string
	Name     string
	Website  string
	Source   string
	Prefixes []string
}

// Model is the catalog identity of a feed model.
type Model struct {
	ID    string
	Name  string
	Notes string
}

// Providers is ordered: the first matching prefix decides the provider.
var Providers = []ProviderInfo{
	{ID: "openai", Name: "OpenAI", Website: "https://openai.com", Source: "https://openai.com/api/pricing/"},
	{ID: "anthropic", Name: "Anthropic", Website: "https://www.anthropic.com", Source: "https://www.anthropic.com/pricing"},
	{ID: "google", Name: "Google", Website: "https://ai.google.dev", Source: "https://ai.google.dev/pricing",
		Prefixes: []string{"gemini/", "vertex_ai/"}},
	{ID: "mistral", Name: "Mistral", Website: "https://mistral.ai", Source: "https://mistral.ai/technology/",
		Prefixes: []string{"mistral/"}},
	{ID: "deepseek", Name: "DeepSeek", Website: "https://www.deepseek.com", Source: "https://platform.deepseek.com/api-docs/pricing",
		Prefixes: []string{"deepseek/"}},
	{ID: "xai", Name: "xAI", Website: "https://x.ai", Source: "https://docs.x.ai/docs/consumption-and-rate-limits",
		Prefixes: []string{"xai/"}},
	{ID: "meta", Name: "Meta (Llama)", Website: "https://llama.meta.com", Source: "https://llama.meta.com/",
		Prefixes: []string{"together_ai/meta-llama/", "groq/llama"}},
	{ID: "cohere", Name: "Cohere", Website: "https://cohere.com", Source: "https://cohere.com/pricing",
		Prefixes: []string{"cohere/", "cohere_chat/"}},
	{ID: "groq", Name: "Groq", Website: "https://groq.com", Source: "https://groq.com/pricing/",
		Prefixes: []string{"groq/"}},
	{ID: "together", Name: "Together AI", Website: "https://together.ai", Source: "https://www.together.ai/pricing",
		Prefixes: []string{"together_ai/"}},
}

// Models maps feed keys to catalog models. Several aliases may share an id;
// the first one present in the feed wins.
var Models = map[string]Model{
	"gpt-4o":                 {"gpt-4o", "GPT-4o", "Flagship multimodal model"},
	"gpt-4o-mini":            {"gpt-4o-mini", "GPT-4o Mini", "Fast and affordable"},
	"gpt-4o-mini-2024-07-18": {"gpt-4o-mini", "GPT-4o Mini", "Fast and affordable"},
	"o1":                     {"o1", "o1", "Advanced reasoning model"},
	"o1-preview":             {"o1", "o1", "Advanced reasoning model"},
	"o3-mini":                {"o3-mini", "o3-mini", "Efficient reasoning model"},

	"claude-3-5-sonnet-20241022": {"claude-sonnet-45", "Claude Sonnet 4.5", "Best balance of speed and intelligence"},
	"claude-3-5-sonnet-latest":   {"claude-sonnet-45", "Claude Sonnet 4.5", "Best balance of speed and intelligence"},
	"claude-3-5-haiku-20241022":  {"claude-haiku-45", "Claude Haiku 4.5", "Fast and cost-effective"},
	"claude-3-5-haiku-latest":    {"claude-haiku-45", "Claude Haiku 4.5", "Fast and cost-effective"},
	"claude-3-opus-20240229":     {"claude-opus-45", "Claude Opus 4.5", "Most capable model"},
	"claude-3-opus-latest":       {"claude-opus-45", "Claude Opus 4.5", "Most capable model"},

	"gemini/gemini-2.0-flash":      {"gemini-2-flash", "Gemini 2.0 Flash", "Fast multimodal model, 1M context"},
	"gemini/gemini-2.0-flash-exp":  {"gemini-2-flash", "Gemini 2.0 Flash", "Fast multimodal model, 1M context"},
	"gemini/gemini-2.0-flash-lite": {"gemini-2-flash-lite", "Gemini 2.0 Flash-Lite", "Most cost-efficient Google model"},
	"gemini/gemini-1.5-pro":        {"gemini-15-pro", "Gemini 1.5 Pro", "Premium reasoning, 1M context"},
	"gemini/gemini-1.5-pro-latest": {"gemini-15-pro", "Gemini 1.5 Pro", "Premium reasoning, 1M context"},

	"mistral/mistral-large-latest":   {"mistral-large-3", "Mistral Large 3", "Flagship model"},
	"mistral/mistral-large-2411":     {"mistral-large-3", "Mistral Large 3", "Flagship model"},
	"mistral/mistral-small-latest":   {"mistral-small-31", "Mistral Small 3.1", "Ultra cost-effective"},
	"mistral/open-mistral-nemo":      {"mistral-nemo", "Mistral Nemo", "Budget option, cheapest Mistral"},
	"mistral/open-mistral-nemo-2407": {"mistral-nemo", "Mistral Nemo", "Budget option, cheapest Mistral"},

	"deepseek/deepseek-chat":     {"deepseek-chat", "DeepSeek V3", "High performance, extremely low cost"},
	"deepseek/deepseek-reasoner": {"deepseek-reasoner", "DeepSeek R1", "Reasoning model"},

	"xai/grok-2":        {"grok-4", "Grok 4", "Flagship model from xAI"},
	"xai/grok-2-latest": {"grok-4", "Grok 4", "Flagship model from xAI"},
	"xai/grok-beta":     {"grok-41-fast", "Grok 4.1 Fast", "2M context window, budget friendly"},

	"together_ai/meta-llama/Llama-3.3-70B-Instruct-Turbo":        {"llama-3-3-70b", "Llama 3.3 70B", "Open-source, highly capable"},
	"together_ai/meta-llama/Llama-3.2-90B-Vision-Instruct-Turbo": {"llama-3-2-90b-vision", "Llama 3.2 90B Vision", "Multimodal vision capabilities"},
	"together_ai/meta-llama/Meta-Llama-3.1-405B-Instruct-Turbo":  {"llama-3-1-405b", "Llama 3.1 405B", "Largest open model, frontier-class"},

	"cohere/command-r-plus":      {"command-r-plus", "Command R+", "Enterprise RAG optimized"},
	"cohere_chat/command-r-plus": {"command-r-plus", "Command R+", "Enterprise RAG optimized"},
	"cohere/command-r":           {"command-r", "Command R", "Balanced performance and cost"},
	"cohere_chat/command-r":      {"command-r", "Command R", "Balanced performance and cost"},
	"cohere/command-r7b-12-2024": {"command-r7b", "Command R7B", "Ultra-fast, low latency"},

	"groq/llama-3.3-70b-versatile": {"llama-3-3-70b-groq", "Llama 3.3 70B (Groq)", "Ultra-fast inference, ~500 tok/s"},
	"groq/llama-3.1-8b-instant":    {"llama-3-1-8b-groq", "Llama 3.1 8B (Groq)", "Fastest inference, ~1000 tok/s"},
	"groq/mixtral-8x7b-32768":      {"mixtral-8x7b-groq", "Mixtral 8x7B (Groq)", "MoE architecture, very fast"},

	"together_ai/meta-llama/Llama-3.3-70B-Instruct-Turbo-Free": {"llama-3-3-70b-together", "Llama 3.3 70B (Together)", "Serverless, auto-scaling"},
	"together_ai/Qwen/Qwen2.5-72B-Instruct-Turbo":              {"qwen-2-5-72b", "Qwen 2.5 72B", "Strong multilingual support"},
	"together_ai/deepseek-ai/DeepSeek-V3":                      {"deepseek-v3-together", "DeepSeek V3 (Together)", "Alternative hosting for DeepSeek"},
}
