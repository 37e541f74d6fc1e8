package legifrance

import "strings"

const publicBaseURL = "https://www.legifrance.gouv.fr"

// PublicURL builds the link to a text on the public Légifrance site from
// its identifier. The document family is inferred from the id prefix.
func PublicURL(textID string) string {
	switch {
	case strings.HasPrefix(textID, "LEGIARTI"):
		return publicBaseURL + "/codes/article_lc/" + textID
	case strings.HasPrefix(textID, "LEGISCTA"):
		return publicBaseURL + "/codes/section_lc/" + textID
	case strings.HasPrefix(textID, "LEGITEXT"):
		return publicBaseURL + "/codes/id/" + textID + "/"
	case strings.HasPrefix(textID, "JORFTEXT"), strings.HasPrefix(textID, "JORFCONT"):
		// JORF texts (decrees, laws) resolve through the /loda/ path.
		return publicBaseURL + "/loda/id/" + textID
	case strings.HasPrefix(textID, "KALITEXT"), strings.HasPrefix(textID, "KALICONT"):
		return publicBaseURL + "/conv_coll/id/" + textID
	case strings.HasPrefix(textID, "CETATEXT"), strings.HasPrefix(textID, "JURITEXT"):
		return publicBaseURL + "/juri/id/" + textID
	case strings.HasPrefix(textID, "CNILTEXT"):
		return publicBaseURL + "/cnil/id/" + textID
	default:
		return publicBaseURL + "/affichTexte.do?cidTexte=" + textID
	}
}
