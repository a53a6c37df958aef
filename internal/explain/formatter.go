package explain

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
)

// explanationTemplate holds the fixed sentences of one language
type explanationTemplate struct {
	score     string // score, level
	threats   string // count, names
	noThreats string
	escalated string
	closing   string
	levels    map[model.RiskLevel]string
	separator string
}

var explanationTemplates = map[Language]explanationTemplate{
	English: {
		score:     "Risk Score: %.1f/10 (%s). ",
		threats:   "Found %d threats: %s. ",
		noThreats: "No known risk patterns found. ",
		escalated: "Level raised by high-severity threats. ",
		closing:   "Review recommended before signing.",
		separator: ", ",
		levels: map[model.RiskLevel]string{
			model.RiskLow: "LOW", model.RiskMedium: "MEDIUM", model.RiskHigh: "HIGH", model.RiskCritical: "CRITICAL",
		},
	},
	Hindi: {
		score:     "जोखिम स्कोर: %.1f/10 (%s)। ",
		threats:   "%d खतरे मिले: %s। ",
		noThreats: "कोई ज्ञात जोखिम नहीं मिला। ",
		escalated: "गंभीर खतरों के कारण स्तर बढ़ाया गया। ",
		closing:   "वकील से सलाह लें।",
		separator: ", ",
		levels: map[model.RiskLevel]string{
			model.RiskLow: "कम", model.RiskMedium: "मध्यम", model.RiskHigh: "उच्च", model.RiskCritical: "गंभीर",
		},
	},
	Spanish: {
		score:     "Puntuación de riesgo: %.1f/10 (%s). ",
		threats:   "Se encontraron %d amenazas: %s. ",
		noThreats: "No se encontraron patrones de riesgo conocidos. ",
		escalated: "Nivel elevado por amenazas de alta gravedad. ",
		closing:   "Se recomienda revisar antes de firmar.",
		separator: ", ",
		levels: map[model.RiskLevel]string{
			model.RiskLow: "BAJO", model.RiskMedium: "MEDIO", model.RiskHigh: "ALTO", model.RiskCritical: "CRÍTICO",
		},
	},
}

// Formatter renders the short explanation of an analysis
type Formatter struct{}

// NewFormatter creates a formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Explain renders score, level and threats in the language selected by tag.
// Unsupported tags use English.
func (f *Formatter) Explain(result *model.AnalysisResult, tag string) string {
	tpl := explanationTemplates[Resolve(tag)]

	var b strings.Builder
	fmt.Fprintf(&b, tpl.score, result.RiskScore, tpl.level(result.RiskLevel))
	if result.Score.HasSignal(model.SignalThreatEscalation) {
		b.WriteString(tpl.escalated)
	}
	if len(result.Threats) > 0 {
		fmt.Fprintf(&b, tpl.threats, len(result.Threats), strings.Join(result.Threats, tpl.separator))
	} else {
		b.WriteString(tpl.noThreats)
	}
	b.WriteString(tpl.closing)
	return b.String()
}

func (t explanationTemplate) level(l model.RiskLevel) string {
	if s, ok := t.levels[l]; ok {
		return s
	}
	return string(l)
}
