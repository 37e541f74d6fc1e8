package legifrance

import "context"

// CodeIDs maps short code names to their Légifrance LEGITEXT identifiers.
var CodeIDs = map[string]string{
	"civil":        "LEGITEXT000006070721",
	"penal":        "LEGITEXT000006070719",
	"travail":      "LEGITEXT000006072050",
	"commerce":     "LEGITEXT000005634379",
	"consommation": "LEGITEXT000006069565",
}

// CodeNames maps short code names to the display titles the search
// facets expect.
var CodeNames = map[string]string{
	"civil":        "Code civil",
	"penal":        "Code pénal",
	"travail":      "Code du travail",
	"commerce":     "Code de commerce",
	"consommation": "Code de la consommation",
}

// SearchQuery describes a full-text search. Zero values fall back to
// the broadest request: all collections, ten results.
type SearchQuery struct {
	Query    string
	Fond     string // ALL, LODA_DATE, CODE_DATE, JURI, JORF, CNIL
	CodeName string // short code name; restricts the search to that code
	PageSize int
}

// BuildSearchRequest builds a well-formed full-text search request.
// The API rejects requests missing any of fond, operateur, sort or
// typePagination, so every mandatory field is set here.
func BuildSearchRequest(q SearchQuery) map[string]any {
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	fond := q.Fond
	if fond == "" {
		fond = "ALL"
	}

	recherche := map[string]any{
		"champs": []any{
			map[string]any{
				"typeChamp": "ALL",
				"criteres": []any{
					map[string]any{
						"typeRecherche": "UN_DES_MOTS",
						"valeur":        q.Query,
						"operateur":     "ET",
					},
				},
				"operateur": "ET",
			},
		},
		"operateur":      "ET",
		"pageSize":       q.PageSize,
		"pageNumber":     1,
		"sort":           "PERTINENCE",
		"typePagination": "DEFAUT",
	}

	if name, ok := CodeNames[q.CodeName]; ok {
		// Restricting to one code only works against the code fonds.
		fond = "CODE_DATE"
		recherche["filtres"] = []any{
			map[string]any{
				"facette": "NOM_CODE",
				"valeurs": []string{name},
			},
		}
	}

	return map[string]any{
		"fond":      fond,
		"recherche": recherche,
	}
}

// Search runs a full-text search.
func (c *Client) Search(ctx context.Context, q SearchQuery) (map[string]any, error) {
	return c.post(ctx, "/search", BuildSearchRequest(q))
}

// Suggest returns autocomplete suggestions for the given text.
func (c *Client) Suggest(ctx context.Context, text string) (map[string]any, error) {
	return c.post(ctx, "/suggest", map[string]any{
		"searchText": text,
		"supplies":   []string{"ALL"},
	})
}
