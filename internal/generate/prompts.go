package generate

import (
	"fmt"
	"strings"
)

// Prompt builders for each generation kind. Every prompt embeds its output
// schema and demands bare JSON; ai.ExtractLikelyJSON cleans up providers that
// fence the output anyway.

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func gapFinderPrompt(nicheKeywords, icpGuess, competitorURLs, sourcesText string) string {
	return fmt.Sprintf(`
You are a senior product marketer. Be concrete and tactical. No fluff.

TASK: Analyze the SOURCES and produce output JSON exactly matching the schema.

CONTEXT
Niche keywords: %s
ICP guess: %s
Competitors: %s

SOURCES (pasted text):
%s

OUTPUT JSON SCHEMA:
{
  "wedge": { "one_liner": "", "why_it_wins": ["",""], "target_user": "", "job_to_be_done": "" },
  "pain_clusters": [
    { "label":"", "summary":"", "who":"", "severity_1_5": 1, "frequency_1_5": 1, "evidence_quotes":[""], "current_workarounds":[""] }
  ],
  "willingness_to_pay_signals":[ { "signal":"", "evidence_quotes":[""] } ],
  "feature_gaps":[ { "gap":"", "why_users_care":"", "competitors_missing_it":[""], "mvp_implementation_hint":"" } ],
  "risks":[ { "risk":"", "mitigation":"", "validation_test":"" } ],
  "next_7_days_tests":[ { "test":"", "success_metric":"", "how_to_run":"" } ]
}

Return ONLY valid JSON. No markdown fences.`, nicheKeywords, icpGuess, orNone(competitorURLs), orNone(sourcesText))
}

func positioningPrompt(projectName, nicheKeywords, icpGuess, wedgeOneLiner string) string {
	return fmt.Sprintf(`
You are a senior product marketer. Be specific. No fluff.

CONTEXT
Product: %s
Niche: %s
ICP guess: %s
Wedge: %s

OUTPUT JSON SCHEMA:
{
  "icp": { "primary":"", "secondary":"", "excluded":[""] },
  "problem_statement": "",
  "value_proposition": "",
  "why_now": ["",""],
  "differentiators": ["",""],
  "objections_and_rebuttals": [ { "objection":"", "rebuttal":"" } ],
  "positioning_options": [
    { "angle_name":"", "headline":"", "subhead":"", "proof_points":[""], "best_channel_fit":[""] }
  ],
  "recommended_angle": "",
  "pricing_hypothesis": { "model":"subscription", "starter_price":"", "pro_price":"", "reasoning":"" },
  "first_offer": { "offer":"", "guarantee_or_risk_reversal":"", "cta":"" }
}

Return ONLY valid JSON. No markdown fences.`, projectName, nicheKeywords, icpGuess, wedgeOneLiner)
}

func variantsPrompt(angleA, angleB string) string {
	return fmt.Sprintf(`
Generate two A/B variants. Make them meaningfully different.

OUTPUT JSON SCHEMA:
{
  "variants": [
    { "key":"A", "headline":"", "subhead":"", "cta":"", "landing_copy_markdown":"" },
    { "key":"B", "headline":"", "subhead":"", "cta":"", "landing_copy_markdown":"" }
  ],
  "success_metric": "signup_rate",
  "run_instructions": ["", ""]
}

Angle A seed headline: %s
Angle B seed headline: %s

Return ONLY valid JSON. No markdown fences.`, angleA, angleB)
}

func landingAssetPrompt(projectName, nicheKeywords, icp, angle, valueProp string) string {
	return fmt.Sprintf(`
Write landing page copy optimized for conversion and clarity.

CONTEXT
Product: %s
Niche keywords: %s
ICP: %s
Angle: %s
Value prop: %s

OUTPUT JSON SCHEMA
{
  "sections": [
    { "key": "hero", "markdown": "" },
    { "key": "problem", "markdown": "" },
    { "key": "solution", "markdown": "" },
    { "key": "how_it_works", "markdown": "" },
    { "key": "pricing", "markdown": "" },
    { "key": "faq", "markdown": "" },
    { "key": "final_cta", "markdown": "" }
  ]
}

Return ONLY valid JSON. No markdown fences.`, projectName, nicheKeywords, icp, angle, valueProp)
}

func productHuntPrompt(projectName, oneLiner string) string {
	return fmt.Sprintf(`
Create a Product Hunt listing.

CONTEXT
Product: %s
One-liner: %s

OUTPUT JSON SCHEMA
{
  "tagline": "",
  "description": "",
  "makers_comment": "",
  "top_3_features": ["", "", ""],
  "who_its_for": ["", "", ""],
  "pricing_blurb": "",
  "ask": "What feedback would help most?",
  "hashtags": ["", "", ""]
}

Return ONLY valid JSON. No markdown fences.`, projectName, oneLiner)
}

func appStorePrompt(projectName string) string {
	return fmt.Sprintf(`
Create app-store style copy.

CONTEXT
App: %s

OUTPUT JSON SCHEMA
{
  "subtitle": "",
  "promo_text": "",
  "description_long": "",
  "feature_bullets": ["", "", "", "", ""],
  "keywords": ["", "", "", "", "", "", "", ""],
  "privacy_blurb": ""
}

Return ONLY valid JSON. No markdown fences.`, projectName)
}

func socialScriptsPrompt(projectName, icp, cta string) string {
	return fmt.Sprintf(`
Write 10 short-form scripts (TikTok/Reels/Shorts).

CONTEXT
Product: %s
ICP: %s
CTA: %s

OUTPUT JSON SCHEMA
{
  "scripts": [
    { "hook": "", "beats": ["",""], "on_screen_text": ["",""], "cta": "" }
  ]
}

Rules:
- Exactly 10 scripts.
Return ONLY valid JSON. No markdown fences.`, projectName, icp, cta)
}

func emailSeqPrompt(projectName, icp, activationAction string) string {
	return fmt.Sprintf(`
Write a 5-email onboarding sequence.

CONTEXT
Product: %s
ICP: %s
Activation action: %s

OUTPUT JSON SCHEMA
{
  "emails": [
    { "day": 0, "subject": "", "preview": "", "body_markdown": "", "cta": "" }
  ]
}

Rules:
- Exactly 5 emails: day 0,1,3,5,7
Return ONLY valid JSON. No markdown fences.`, projectName, icp, activationAction)
}
