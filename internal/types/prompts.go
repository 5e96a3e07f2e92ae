package types

// VisionPrompt asks the vision model for a strict-JSON frame description.
// The response is parsed into FrameAnalysis.
var VisionPrompt = `You are a precise visual analysis service.
Describe the attached video frame. Respond with strict JSON only, no prose:
{
  "labels": [{"name": "...", "confidence": 0.0}],
  "objects": [{"name": "...", "confidence": 0.0}],
  "scene_tags": ["..."]
}
Rules:
1. "labels" are broad content descriptors (e.g. forest, news studio, chart), at most 8, confidence in [0,1].
2. "objects" are concrete things visible in the frame, at most 10.
3. "scene_tags" are one-word mood/setting tags, at most 5.
4. Output nothing outside the JSON object.`

// ScriptPrompt is the single structured script-generation request. It takes
// the persona block, the content description block, the target total
// duration in seconds, and the tolerance in percent.
var ScriptPrompt = `You are a professional short-video narrator writing a voice-over script.

%s

Video content (aggregated from sampled frames):
%s

Write a commentary script for this video, split into timed beats.

Requirements:
1. The narration must total %.0f seconds. Stay within %.0f%% of that total.
2. Each beat is one or two spoken sentences, natural when read aloud at a normal pace.
3. Beats are strictly ordered and cover the video from start to end.
4. Output a strict JSON array only, no prose and no markdown fences:
[
  {"index": 0, "text": "...", "duration_seconds": 8.5}
]
5. "index" starts at 0 with no gaps, "duration_seconds" is positive.`

// RepromptSuffix is appended when a previous response failed validation.
var RepromptSuffix = `

Your previous response was invalid: %s
Return ONLY the corrected strict JSON array this time.`

// personas are the per-category tone instructions recovered from the
// commentary style catalog.
var personas = map[Category]string{
	CategoryNature: `Persona: a calm nature documentary narrator. Use vivid but
unhurried language, evoke wonder about wildlife and landscapes, avoid jokes.`,
	CategoryNews: `Persona: a composed news anchor. Use concise, factual,
neutral language, lead with the most newsworthy observation.`,
	CategoryFunny: `Persona: a playful internet commentator. Use light humor
and punchy sentences, react to what is on screen, keep it family friendly.`,
	CategoryInfographic: `Persona: a clear technical explainer. Walk through
the charts and figures step by step, define terms briefly, no filler words.`,
	CategoryUnclassified: `Persona: a neutral, engaging narrator. Describe what
is shown plainly and keep the viewer oriented.`,
}

// PersonaFor returns the tone instructions for a category, falling back to
// the Unclassified persona.
func PersonaFor(category Category) string {
	if p, ok := personas[category]; ok {
		return p
	}
	return personas[CategoryUnclassified]
}
