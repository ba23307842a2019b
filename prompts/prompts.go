// Package prompts holds the French prompt set driving the resolution agent.
// Prompts are text/template templates over FieldData; ForField picks the
// variant matching the section (and a handful of special fields).
package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

// ToolAgentInstructions is the system prompt of the tool-calling agent.
const ToolAgentInstructions = `Vous êtes un assistant IA spécialisé dans la fourniture de réponses concises sur les communes françaises et leurs intercommunalités.

INSTRUCTIONS :
1. On vous donnera :
   - Un nom de commune (ex : 'Dijon')
   - Un champ à rechercher (ex : 'population')
   - Un format de réponse souhaité ('number', 'text', etc.)

2. Votre réponse doit être :
   - La plus courte possible (idéalement un mot ou un nombre s'il s'agit d'un fait)
   - Si le format est 'number', fournissez un seul nombre suivi de son unité (ex : '150000 habitants')
   - Si vous ne connaissez pas la réponse, répondez uniquement 'inconnu' (pas d'explications, pas d'excuses)

3. Utilisez les outils si vous avez besoin de plus d'informations. Ne pas inventer ou deviner.
4. N'incluez pas de raisonnement ou de texte supplémentaire - fournissez uniquement la réponse finale.
5. Si le format est 'number', ne fournissez PAS de phrase. Par exemple, '150000 habitants' au lieu de 'La population est de 150000 habitants.'
6. Si une réponse simple est demandée (ex : 'code_postal' avec le type 'text'), fournissez-la le plus brièvement possible (ex : '21000').

Votre objectif global est de toujours répondre avec l'information la plus concise et correcte possible ou 'inconnu' si vous ne pouvez pas la trouver.`

// FieldData interpolates one field prompt.
type FieldData struct {
	// Identifier is the subject's administrative identifier (SIREN or EPCI code).
	Identifier string
	// Name is the subject's display name, e.g. "Dijon".
	Name string
	// Field, Type and Instruction come from the template field.
	Field       string
	Type        string
	Instruction string
	// Example is the few-shot exemplar, rendered verbatim.
	Example any
}

const genericPrompt = `Pour '{{.Identifier}}' '{{.Name}}', fournissez une réponse concise pour le champ '{{.Field}}', dans le type '{{.Type}}', en utilisant l'instruction spécifique '{{.Instruction}}'.

Exigences :
- Si un nombre est demandé, fournissez uniquement un nombre et son unité (ex : "150000 habitants").
- Si la réponse est inconnue, répondez uniquement 'inconnu' (pas d'explication supplémentaire).
- Gardez la réponse la plus courte possible.

Exemple :
- Commune : Dijon
- Champ : {{.Field}}
- Instruction : {{.Instruction}}
- Type : {{.Type}}
- Réponse : {{.Example}}

Maintenant, étant donné '{{.Identifier}}' '{{.Name}}', le champ '{{.Field}}', le type '{{.Type}}', et l'instruction '{{.Instruction}}', produisez votre réponse en suivant ces règles.`

const projectPrompt = genericPrompt + `
NE répondez PAS avec des phrases comme : "D'après les informations reçues, je peux répondre que pour le thème du projet :". Répondez simplement avec les quelques mots du thème réel du projet.`

const contactPrompt = `Vous êtes un assistant de recherche aidant à recueillir des informations sur les contacts clés à {{.Name}}. J'ai besoin que vous trouviez des informations précises sur les responsables municipaux importants.

Veuillez fournir les informations suivantes {{.Field}} dans le type suivant {{.Type}}.
Suivez ces instructions aussi précisément que possible, ne déviez pas et n'inventez pas :
{{.Instruction}}

Veuillez vous assurer que :
1. L'éducation, les activités et la carrière doivent être aussi concises que possible.
2. Incluez uniquement des informations vérifiées - si vous n'êtes pas sûr d'un détail, omettez-le plutôt que de deviner
3. Listez l'historique de carrière par ordre chronologique
4. Pour les activités actuelles, incluez "(depuis Année)" le cas échéant

Voici le champ pour lequel je veux avoir des informations maintenant {{.Field}}.

Voici un exemple : {{.Example}}

Veuillez fournir des informations précises et vérifiées pour ce contact. Si certaines informations ne sont pas publiquement disponibles, vous pouvez omettre ces champs plutôt que de fournir des données incertaines.
Fournissez la réponse la plus courte possible. Ne donnez aucun raisonnement ni explication. Idéalement, donnez principalement quelques mots.`

const budgetPrompt = `Vous êtes un agent chargé de trouver des informations sur le budget actuel (le plus récent) des communes françaises.
Pour '{{.Identifier}}' '{{.Name}}', fournissez une réponse concise pour le champ '{{.Field}}', dans le type '{{.Type}}', en utilisant l'instruction spécifique '{{.Instruction}}'.

Exigences :
- Si un nombre est demandé, fournissez uniquement un nombre et son unité (ex : "150000 habitants").
- Si la réponse est inconnue, répondez uniquement 'inconnu' (pas d'explication supplémentaire).
- Gardez la réponse la plus courte possible.

Exemple :
- Commune : Dijon
- Date : 18 décembre
- Année : 2023
- Budget_Total : 271,2 millions d'euros

Maintenant, étant donné '{{.Identifier}}' '{{.Name}}', le champ '{{.Field}}', le type '{{.Type}}', et l'instruction '{{.Instruction}}', produisez votre réponse en suivant ces règles.`

const logoPrompt = `Vous êtes un assistant spécialisé dans la recherche d'URLs de logos officiels pour les communes françaises.

Pour la commune '{{.Name}}', trouvez l'URL de son logo officiel.

Exigences :
1. Retournez uniquement une URL directe vers un fichier image (ex : se terminant par .png, .jpg, .svg, etc.)
2. Priorisez dans cet ordre :
   - Site web officiel de la commune
   - Comptes officiels sur les réseaux sociaux
   - Autres sources gouvernementales officielles
3. Le logo doit être :
   - Le logo officiel actuel
   - De bonne qualité et clairement visible
   - De préférence sur fond transparent ou blanc
4. Si plusieurs versions existent, préférez :
   - Les formats vectoriels (.svg) aux formats matriciels
   - Les versions haute résolution
   - Les versions en couleur plutôt que monochromes

Si vous ne trouvez pas d'URL de logo appropriée, répondez uniquement 'inconnu'.
Ne fournissez aucune explication ou texte supplémentaire - retournez uniquement l'URL ou 'inconnu'.

Exemple de réponse pour Dijon :
https://upload.wikimedia.org/wikipedia/fr/2/2f/Logo_Dijon.svg`

var (
	generic = template.Must(template.New("generic").Parse(genericPrompt))
	project = template.Must(template.New("project").Parse(projectPrompt))
	contact = template.Must(template.New("contact").Parse(contactPrompt))
	budget  = template.Must(template.New("budget").Parse(budgetPrompt))
	logo    = template.Must(template.New("logo").Parse(logoPrompt))
)

var sectionPrompts = map[string]*template.Template{
	"projects": project,
	"contacts": contact,
	"finances": budget,
}

var fieldPrompts = map[string]*template.Template{
	"logo_url": logo,
}

// ForField returns the prompt template matching a field. Field-specific
// variants win over section variants; everything else uses the generic one.
func ForField(section, field string) *template.Template {
	if t, ok := fieldPrompts[field]; ok {
		return t
	}
	if t, ok := sectionPrompts[section]; ok {
		return t
	}
	return generic
}

// Field renders the prompt for one field of a section.
func Field(section string, data FieldData) (string, error) {
	var b strings.Builder
	if err := ForField(section, data.Field).Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ArrayIntro frames the very first prompt of an array field. The items of the
// array share one conversation, so the intro is only sent once.
func ArrayIntro(field string, count int) string {
	return fmt.Sprintf(
		"Nous allons remplir la liste '%s' qui compte %d éléments. Chaque élément sera traité l'un après l'autre, champ par champ. Élément 1 :",
		field, count,
	)
}

// ItemHeading frames the switch to a later item of an array field.
func ItemHeading(index int) string {
	return fmt.Sprintf("Passons à l'élément %d de la liste :", index+1)
}
