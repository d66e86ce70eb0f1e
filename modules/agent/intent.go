package agent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"video-agent-server/modules/registry"
)

const (
	defaultAspectRatio = "16:9"

	// Shorter stripped prompts fall back to the full message.
	minPromptLength = 10
)

var (
	generateKeywords = []string{
		"genera", "generar", "crea", "crear", "haz", "hacer",
		"generate", "create", "make",
		"quiero un video", "quiero un vídeo",
		"hazme un video", "hazme un vídeo",
	}
	greetingKeywords = []string{"hola", "hello", "hi", "hey", "buenas", "qué tal"}
	helpKeywords     = []string{"ayuda", "help", "cómo", "como", "qué puedo", "que puedo", "modelos"}

	// Applied in order; each strips a leading generation phrase.
	promptPrefixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(genera|generar|crea|crear|haz|hacer|generate|create|make)\s*(un\s*)?(video|vídeo)?\s*(con|using|with)?\s*(kling|veo|sora)?\s*(de|about|un|una|:)?\s*`),
		regexp.MustCompile(`(?i)^(quiero|hazme)\s*(un\s*)?(video|vídeo)\s*(con|de|using)?\s*(kling|veo|sora)?\s*(de|about|:)?\s*`),
	}

	// Model names detected in free text, in precedence order.
	modelMentions = []registry.ModelID{registry.Kling, registry.Veo, registry.Sora}

	aspectRatioMentions = []struct {
		ratio    string
		keywords []string
	}{
		{"9:16", []string{"vertical", "9:16"}},
		{"1:1", []string{"cuadrado", "square", "1:1"}},
		{"16:9", []string{"horizontal", "16:9"}},
	}
)

// signals - everything the rules need, extracted once per message
type signals struct {
	message         string
	lower           string
	selectedModel   string
	mentionedModel  registry.ModelID
	aspectRatio     string
	wantsGeneration bool
	isGreeting      bool
	wantsHelp       bool
}

// intentRule - predicate over the extracted signals and the reply it produces
type intentRule struct {
	name    string
	matches func(s signals) bool
	respond func(s signals) AgentResponse
}

// First match wins. The last rule always matches.
var intentRules = []intentRule{
	{
		name:    "greeting",
		matches: func(s signals) bool { return s.isGreeting && !s.wantsGeneration },
		respond: func(signals) AgentResponse { return AgentResponse{Message: welcomeMessage} },
	},
	{
		name:    "help",
		matches: func(s signals) bool { return s.wantsHelp && !s.wantsGeneration },
		respond: func(signals) AgentResponse { return AgentResponse{Message: helpMessage()} },
	},
	{
		name:    "generate",
		matches: func(s signals) bool { return s.wantsGeneration },
		respond: generationResponse,
	},
	{
		name:    "fallback",
		matches: func(signals) bool { return true },
		respond: func(signals) AgentResponse { return AgentResponse{Message: fallbackMessage} },
	},
}

// ParseUserIntent turns a chat message into a reply and, when the user asked
// for a video, a generation directive. selectedModel is the model picked in
// the UI: a model id, "auto" or "".
func ParseUserIntent(message, selectedModel string) AgentResponse {
	s := extractSignals(message, selectedModel)
	return matchRule(s).respond(s)
}

func matchRule(s signals) intentRule {
	for _, rule := range intentRules {
		if rule.matches(s) {
			return rule
		}
	}
	return intentRules[len(intentRules)-1]
}

func extractSignals(message, selectedModel string) signals {
	lower := strings.ToLower(message)

	s := signals{
		message:         message,
		lower:           lower,
		selectedModel:   selectedModel,
		wantsGeneration: containsAny(lower, generateKeywords),
		isGreeting:      containsAny(lower, greetingKeywords),
		wantsHelp:       containsAny(lower, helpKeywords),
	}

	for _, id := range modelMentions {
		if strings.Contains(lower, string(id)) {
			s.mentionedModel = id
			break
		}
	}

	for _, m := range aspectRatioMentions {
		if containsAny(lower, m.keywords) {
			s.aspectRatio = m.ratio
			break
		}
	}

	return s
}

func generationResponse(s signals) AgentResponse {
	prompt := extractPrompt(s.message)
	modelID := resolveModel(s, prompt)
	cfg, _ := registry.Resolve(modelID)

	aspectRatio := s.aspectRatio
	if aspectRatio == "" {
		aspectRatio = defaultAspectRatio
	}

	return AgentResponse{
		Message: fmt.Sprintf("🎬 Generando vídeo con **%s**...\n\n", cfg.Name) +
			fmt.Sprintf("📝 Prompt: *\"%s\"*\n", prompt) +
			fmt.Sprintf("📐 Formato: %s\n\n", aspectRatio) +
			"Esto puede tomar entre 30 segundos y unos minutos. Te avisaré cuando esté listo.",
		Directive: &Directive{
			Action:      ActionGenerate,
			Model:       modelID,
			Prompt:      prompt,
			AspectRatio: aspectRatio,
			Duration:    cfg.DefaultDuration,
		},
	}
}

// extractPrompt strips the leading "genera un vídeo con X de" style phrase.
func extractPrompt(message string) string {
	prompt := message
	for _, p := range promptPrefixPatterns {
		prompt = strings.TrimSpace(p.ReplaceAllString(prompt, ""))
	}

	if utf8.RuneCountInString(prompt) < minPromptLength {
		return message
	}
	return prompt
}

// resolveModel: a model named in the text wins, then an explicit UI choice,
// then the keyword picker. Unknown UI choices are treated as auto.
func resolveModel(s signals, prompt string) registry.ModelID {
	if s.mentionedModel != "" {
		return s.mentionedModel
	}
	if s.selectedModel != "" && s.selectedModel != registry.Auto {
		if _, ok := registry.Resolve(registry.ModelID(s.selectedModel)); ok {
			return registry.ModelID(s.selectedModel)
		}
	}
	return PickBestModel(prompt)
}

const welcomeMessage = "👋 ¡Hola! Soy tu asistente de generación de vídeos con IA.\n\n" +
	"Puedo crear vídeos usando estos modelos:\n\n" +
	"🎬 **Kling 2.1** — Vídeos de alta calidad con movimientos de cámara precisos\n" +
	"🌟 **VEO 3** — Modelo de Google con audio nativo profesional\n" +
	"🎥 **Sora 2** — Modelo de OpenAI con detalle cinematográfico\n\n" +
	"Dime qué vídeo quieres crear. Por ejemplo:\n" +
	"*\"Genera con Kling un atardecer en la playa con olas suaves\"*"

const fallbackMessage = "No estoy seguro de lo que quieres hacer. Aquí tienes algunas opciones:\n\n" +
	"• **Generar vídeo**: *\"Genera con Kling un paisaje futurista\"*\n" +
	"• **Ver modelos**: *\"¿Qué modelos hay disponibles?\"*\n" +
	"• **Ayuda**: *\"Ayuda\"*\n\n" +
	"También puedes seleccionar un modelo y escribir tu prompt directamente."

func helpMessage() string {
	var b strings.Builder
	b.WriteString("Estos son los modelos disponibles:\n\n")

	models := registry.List()
	for i, m := range models {
		fmt.Fprintf(&b, "• **%s**: %s (hasta %ds)", m.Name, m.Description, m.MaxDuration)
		if i < len(models)-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\nPara generar un vídeo, escribe algo como:\n" +
		"*\"Crea con Sora un bosque mágico con luciérnagas\"*\n\n" +
		"También puedes especificar:\n" +
		"• **Formato**: horizontal (16:9), vertical (9:16), cuadrado (1:1)\n" +
		"• **Modelo**: Kling, VEO o Sora")
	return b.String()
}
