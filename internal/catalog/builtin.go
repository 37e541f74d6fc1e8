package catalog

// Builtin returns the legal research tools exposed to the model.
// Descriptions are written for the model, not the user: they steer when
// each tool should be picked.
func Builtin() *Registry {
	r := NewRegistry()
	for _, def := range builtinDefs {
		// Names are unique by construction.
		_ = r.Register(def)
	}
	return r
}

var builtinDefs = []ToolDefinition{
	{
		Name:        "search_texts",
		Description: "Recherche des textes juridiques français (lois, décrets, articles de codes, jurisprudence) sur Légifrance par mots-clés. Utiliser en premier pour localiser les textes pertinents.",
		Params: []ParamSpec{
			{Name: "query", Type: TypeString, Required: true, Description: "Mots-clés de la recherche, en français."},
			{Name: "fond", Type: TypeString, Description: "Fonds documentaire à interroger.", Enum: []string{"ALL", "LODA_DATE", "CODE_DATE", "JURI", "JORF", "CNIL"}, Default: "ALL"},
			{Name: "code", Type: TypeString, Description: "Restreindre la recherche à un code.", Enum: []string{"civil", "penal", "travail", "commerce", "consommation"}},
			{Name: "page_size", Type: TypeInteger, Description: "Nombre de résultats par page (1 à 100).", Default: 10},
		},
	},
	{
		Name:        "get_code",
		Description: "Récupère la table des matières d'un code français en vigueur à une date donnée. Utile pour naviguer dans la structure d'un code avant de consulter un article.",
		Params: []ParamSpec{
			{Name: "code", Type: TypeString, Required: true, Description: "Nom du code.", Enum: []string{"civil", "penal", "travail", "commerce", "consommation"}},
			{Name: "date", Type: TypeString, Description: "Date de consultation au format AAAA-MM-JJ. Défaut: aujourd'hui."},
		},
	},
	{
		Name:        "get_article",
		Description: "Récupère le texte intégral d'un article identifié par son identifiant Légifrance (LEGIARTI...). À utiliser après search_texts ou get_code.",
		Params: []ParamSpec{
			{Name: "article_id", Type: TypeString, Required: true, Description: "Identifiant de l'article, commençant par LEGIARTI."},
		},
	},
	{
		Name:        "get_full_text",
		Description: "Récupère le texte intégral d'une loi, d'un décret ou d'une ordonnance avec tous ses articles, à partir de son identifiant (LEGITEXT... ou JORFTEXT...).",
		Params: []ParamSpec{
			{Name: "text_id", Type: TypeString, Required: true, Description: "Identifiant du texte, commençant par LEGITEXT ou JORFTEXT."},
			{Name: "date", Type: TypeString, Description: "Date de consultation au format AAAA-MM-JJ. Défaut: aujourd'hui."},
		},
	},
	{
		Name:        "list_codes",
		Description: "Liste les codes juridiques français disponibles sur Légifrance, avec leur identifiant et leur état.",
		Params: []ParamSpec{
			{Name: "page", Type: TypeInteger, Description: "Numéro de page.", Default: 1},
			{Name: "page_size", Type: TypeInteger, Description: "Nombre de codes par page.", Default: 20},
		},
	},
}
