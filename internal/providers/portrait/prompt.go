package portrait

import "server/internal/domain"

// stylePrompts maps each preset to its generation instruction. The prompts
// share a common frame (head-and-shoulders, neutral expression, keep the
// person recognizable) and vary only in wardrobe and treatment.
var stylePrompts = map[domain.Style]string{
	domain.StyleProfessional: "Transform this photo into a professional resume headshot: " +
		"head-and-shoulders crop, dark business suit, plain light studio background, " +
		"soft even lighting, confident neutral expression. Keep the person's face and " +
		"identity exactly as in the source photo.",
	domain.StyleBusinessCasual: "Transform this photo into a business-casual resume headshot: " +
		"head-and-shoulders crop, smart collared shirt without a tie, softly blurred " +
		"office background, warm natural lighting. Keep the person's face and identity " +
		"exactly as in the source photo.",
	domain.StyleCreative: "Transform this photo into a creative-industry resume headshot: " +
		"head-and-shoulders crop, relaxed modern outfit, subtly colored studio background, " +
		"editorial lighting with gentle contrast. Keep the person's face and identity " +
		"exactly as in the source photo.",
	domain.StyleAcademic: "Transform this photo into an academic profile portrait: " +
		"head-and-shoulders crop, blazer over a plain shirt, muted bookshelf or campus " +
		"background softly out of focus, balanced daylight. Keep the person's face and " +
		"identity exactly as in the source photo.",
	domain.StyleMonochrome: "Transform this photo into an elegant black-and-white resume " +
		"portrait: head-and-shoulders crop, classic attire, plain background, high-key " +
		"monochrome treatment with soft shadows. Keep the person's face and identity " +
		"exactly as in the source photo.",
}

func promptFor(style domain.Style) string {
	if p, ok := stylePrompts[style]; ok {
		return p
	}
	return stylePrompts[domain.StyleProfessional]
}
