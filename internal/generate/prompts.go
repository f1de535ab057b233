package generate

import (
	"encoding/json"
	"fmt"

	"github.com/auc-library-labs/scriptorium/internal/models"
)

// Artifact types selecting a prompt template.
const (
	ArtifactPublicationDeepDive = "publication_deep_dive"
	ArtifactPhotograph          = "photograph"
	ArtifactPublication         = "publication"
	ArtifactDefault             = "default"
)

func buildScriptPrompt(item *models.Item, artifactType, factualSummary string) string {
	title := item.BestTitle()
	creator := item.BestCreator()
	date := item.DisplayDate()
	description := item.BestDescription()

	switch artifactType {
	case ArtifactPublicationDeepDive:
		return fmt.Sprintf(
			"You are a master storyteller and scriptwriter for a museum's short documentary series. "+
				"Your task is to transform the following facts into a short, compelling 2-minute video script that brings the subject to life. "+
				"The script must be exactly 3 paragraphs, with a visual cue before each paragraph.\n\n"+
				"**CRITICAL INSTRUCTIONS:**\n"+
				"1.  **Create a Narrative:** Do not simply list the facts. Weave them into a story with a hook, a body, and a conclusion.\n"+
				"2.  **Focus on the 'Why':** Why is this person or work important? What was their world like? What is their legacy?\n"+
				"3.  **Handle Missing Info:** If the description is missing, use the known facts (like the author, title, and date) to speculate on the historical context and the story behind the publication.\n"+
				"4.  **Adhere to the Format:** Your entire response must start directly with the first visual cue. Do not add any preambles or introductions.\n\n"+
				"--- Verified Facts ---\n%s\n--- End of Facts ---\n\n"+
				"(Visual cue for the opening shot)\n\n"+
				"[Paragraph 1: The Hook. Introduce the central character or theme in an intriguing way.]\n\n"+
				"(Visual cue for the middle section)\n\n"+
				"[Paragraph 2: The Context. Describe the world in which the book was written and its significance during that time.]\n\n"+
				"(Visual cue for the conclusion)\n\n"+
				"[Paragraph 3: The Legacy. Explain why this work still matters and leave the audience with a powerful thought.]",
			factualSummary,
		)
	case ArtifactPhotograph:
		return fmt.Sprintf(
			"You are a scriptwriter for short museum videos. Generate a short, engaging 3-paragraph video script "+
				"for a historical photograph. Do not add any pre-amble. "+
				"Start with a visual cue in parentheses, like '(CLOSE UP on the photograph)'. "+
				"**IMPORTANT: Do not use any markdown formatting like asterisks or hashtags. The output must be plain text.**\n\n"+
				"Context: This photograph, titled '%s', was taken by %s around %s.\n"+
				"Description: The photo captures the following scene: %s\n"+
				"Narrative Hook: Generate a compelling narrative that speculates on the story behind the image and its significance.",
			title, creator, date, description,
		)
	case ArtifactPublication:
		return fmt.Sprintf(
			"You are a scriptwriter for short museum videos. Generate a short, engaging 3-paragraph video script "+
				"based on the following information. Do not add any pre-amble, just the script itself. "+
				"Start with a visual cue in parentheses.\n\n"+
				"Intro: From the library's digital archives, we bring you a publication by %s, dated %s.\n"+
				"Body: Titled '%s', this item details the following: %s\n"+
				"Conclusion: This publication offers a unique insight into its subject. Explore more stories like this in our digital collection.",
			creator, date, title, description,
		)
	default:
		return fmt.Sprintf(
			"You are a scriptwriter. Generate a short, engaging 3-paragraph video script based on this item: "+
				"Title: %s, Creator: %s, Date: %s, Description: %s. "+
				"Start with a visual cue.",
			title, creator, date, description,
		)
	}
}

func buildFactualSummaryPrompt(item *models.Item) string {
	return fmt.Sprintf(
		"You are a research assistant. Create a concise, factual summary about a publication, "+
			"based only on its library record. Do not invent facts beyond reasonable historical context.\n\n"+
			"--- Original Metadata (from library record) ---\n"+
			"Title: %s\nCreator: %s\nDate: %s\nDescription: %s\n"+
			"--- End of Data ---\n\n"+
			"Based on the information above, write a single, clean paragraph summarizing the key facts about this work.",
		item.BestTitle(), item.BestCreator(), item.DisplayDate(), item.BestDescription(),
	)
}

func buildRegeneratePrompt(item *models.Item, originalScript, userComments string) string {
	metadata, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		metadata = []byte(item.BestTitle())
	}
	return fmt.Sprintf(
		"Please regenerate the script for the following item, incorporating the user's comments.\n\n"+
			"Original Metadata:\n%s\n\n"+
			"Original Script:\n%s\n\n"+
			"User Comments:\n%s\n\n"+
			"Please create an improved version that addresses the user's comments while maintaining the original structure and purpose.",
		metadata, originalScript, userComments,
	)
}

func buildTranslationPrompt(englishScript string) string {
	return fmt.Sprintf(
		"You are a professional English to Arabic translator. Translate the following video script to Arabic, "+
			"paragraph by paragraph. Keep each visual cue `()` in place, untranslated. "+
			"Your output must be ONLY the Arabic translation and nothing else.\n\n"+
			"--- SCRIPT ---\n%s\n--- END SCRIPT ---",
		englishScript,
	)
}

func buildRefinementPrompt(arabicDraft string) string {
	return fmt.Sprintf(
		"You are an expert Arabic language editor. Proofread and polish the following machine-translated DRAFT TEXT. "+
			"Your job is ONLY to correct grammar and improve the flow. "+
			"You MUST NOT change the paragraph structure or the location of visual cues `()`. "+
			"You MUST NOT add any notes, commentary, or preambles. "+
			"Your final output should ONLY be the polished Arabic script and nothing else.\n\n"+
			"--- DRAFT TEXT ---\n%s\n--- END DRAFT ---\n\n"+
			"Polished Arabic Script:",
		arabicDraft,
	)
}
