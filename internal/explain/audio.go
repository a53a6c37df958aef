package explain

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
)

// AudioScript renders the short spoken warning a text-to-speech renderer
// reads out for the analysis
func AudioScript(result *model.AnalysisResult, tag string) string {
	var b strings.Builder
	n := len(result.Threats)

	switch Resolve(tag) {
	case Hindi:
		fmt.Fprintf(&b, "चेतावनी। जोखिम स्कोर %.1f, 10 में से। ", result.RiskScore)
		if result.RiskLevel == model.RiskHigh || result.RiskLevel == model.RiskCritical {
			b.WriteString("उच्च जोखिम। वकील से सलाह लें।")
		} else {
			b.WriteString("सावधानी से जांचें।")
		}
		if n > 0 {
			fmt.Fprintf(&b, " %d संभावित समस्याएं मिलीं।", n)
		}

	case Spanish:
		fmt.Fprintf(&b, "Advertencia. Puntuación de riesgo %.1f de 10. ", result.RiskScore)
		b.WriteString("Revise cuidadosamente.")
		if n > 0 {
			fmt.Fprintf(&b, " Se encontraron %d posibles problemas.", n)
		}

	default:
		fmt.Fprintf(&b, "Warning. Risk score %.1f out of 10. ", result.RiskScore)
		switch result.RiskLevel {
		case model.RiskCritical:
			b.WriteString("Critical risk detected. Do not sign without legal advice.")
		case model.RiskHigh:
			b.WriteString("High risk. Review carefully with expert.")
		case model.RiskMedium:
			b.WriteString("Medium risk. Consider reviewing.")
		default:
			b.WriteString("Low risk detected.")
		}
		if n > 0 {
			fmt.Fprintf(&b, " Found %d potential issues.", n)
		}
	}

	return b.String()
}
