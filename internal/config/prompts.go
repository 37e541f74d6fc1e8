package config

import (
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"
)

// Prompts holds the system prompts driving the assistant, the synthesis
// generator and the conversation naming call. Loaded from prompts.yml,
// with built-in fallbacks for a zero-config start.
type Prompts struct {
	System    string `yaml:"system_prompt"`
	Synthesis string `yaml:"synthesis_prompt"`
	Naming    string `yaml:"naming_prompt"`
}

// LoadPrompts reads the prompts file. A missing file is not an error:
// the built-in prompts are returned instead.
func LoadPrompts(path string) (*Prompts, error) {
	p := defaultPrompts()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading prompts %s: %w", path, err)
	}

	var loaded Prompts
	if err := yamlv3.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing prompts %s: %w", path, err)
	}

	if loaded.System != "" {
		p.System = loaded.System
	}
	if loaded.Synthesis != "" {
		p.Synthesis = loaded.Synthesis
	}
	if loaded.Naming != "" {
		p.Naming = loaded.Naming
	}
	return p, nil
}

func defaultPrompts() *Prompts {
	return &Prompts{
		System: `Tu es un assistant juridique spécialisé en droit français. Tu réponds en t'appuyant exclusivement sur les textes officiels obtenus via les outils Légifrance à ta disposition. Cite toujours les articles et textes consultés avec leur identifiant (LEGIARTI, LEGITEXT, JORFTEXT) et leur lien Légifrance. Si un point de droit est incertain ou si les textes ne suffisent pas à répondre, dis-le explicitement.`,
		Synthesis: `Tu rédiges la synthèse d'une conversation juridique. Produis un document structuré en Markdown : question posée, textes applicables (avec identifiants et dates), analyse, points d'attention, et chronologie des textes cités. Reste factuel et cite tes sources.`,
		Naming: `Propose un titre court (maximum 8 mots, sans guillemets) résumant le sujet juridique de cette conversation. Réponds uniquement par le titre.`,
	}
}
