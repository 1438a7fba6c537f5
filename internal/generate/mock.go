package generate

import (
	"fmt"
	"strings"
)

// Deterministic mock outputs. These back the MOCK provider and every fallback
// path, so the product works end to end without an API key. Same input, same
// output.

func firstKeyword(nicheKeywords, fallback string) string {
	for _, part := range strings.Split(nicheKeywords, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			return kw
		}
	}
	return fallback
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// MockGapFinderInput carries the project fields the insights mock draws on.
type MockGapFinderInput struct {
	ProjectName    string
	NicheKeywords  string
	ICPGuess       string
	CompetitorURLs string
	SourcesText    string
}

// MockGapFinder produces a plausible insights result from project metadata.
func MockGapFinder(input MockGapFinderInput) *GapFinderOutput {
	k1 := firstKeyword(input.NicheKeywords, "your niche")
	who := orDefault(input.ICPGuess, "Operators")

	// Evidence quotes only appear when there is source material to quote.
	quote := func(q string) []string {
		if input.SourcesText == "" {
			return []string{}
		}
		return []string{q}
	}

	return &GapFinderOutput{
		Wedge: Wedge{
			OneLiner:    fmt.Sprintf("An operations hub for %s that turns leads into booked, profitable appointments with clean close-out.", k1),
			WhyItWins: []string{
				"Reduces admin and phone tag in a repeatable flow.",
				"Protects margin by standardizing pricing rules and scheduling buffers.",
				"Outputs are exportable and reusable (assets + templates).",
			},
			TargetUser:  orDefault(input.ICPGuess, "Busy solo operators who need a repeatable workflow."),
			JobToBeDone: "Fill my calendar with high-quality work and ship a launch faster with less guesswork.",
		},
		PainClusters: []PainCluster{
			{
				Label:              "Messaging + scheduling friction",
				Summary:            "Back-and-forth coordination slows deals and creates drop-off.",
				Who:                who,
				Severity:           4,
				Frequency:          5,
				EvidenceQuotes:     quote("“Too much back-and-forth.”"),
				CurrentWorkarounds: []string{"Texts + notes", "Generic calendar invites"},
			},
			{
				Label:              "Pricing inconsistency",
				Summary:            "Quote variance causes margin loss and customer mistrust.",
				Who:                who,
				Severity:           4,
				Frequency:          4,
				EvidenceQuotes:     quote("“I never know what to charge.”"),
				CurrentWorkarounds: []string{"Manual estimates", "Spreadsheet rules"},
			},
			{
				Label:              "End-of-day admin",
				Summary:            "Invoices, records, and follow-ups pile up and delay cash.",
				Who:                who,
				Severity:           3,
				Frequency:          4,
				EvidenceQuotes:     quote("“Admin takes forever at night.”"),
				CurrentWorkarounds: []string{"Copy/paste templates", "Manual invoices"},
			},
		},
		PaySignals: []PaySignal{
			{Signal: "Users pay for tools that reduce admin and improve margins.", EvidenceQuotes: []string{}},
		},
		FeatureGaps: []FeatureGap{
			{
				Gap:                   "Quote → book → close-out in one workflow",
				WhyUsersCare:          "Fewer drop-offs, faster payment, fewer mistakes.",
				CompetitorsMissingIt:  []string{"Generic schedulers"},
				MVPImplementationHint: "Booking page + rules + exportable summary.",
			},
		},
		Risks: []Risk{
			{
				Risk:           "Sources are thin, outputs may be assumption-heavy.",
				Mitigation:     "Run 5 customer interviews and paste transcripts into Research.",
				ValidationTest: "A/B test two headlines and measure email captures.",
			},
		},
		Next7DaysTests: []WeekTest{
			{
				Test:          "Landing page A/B test for angle clarity",
				SuccessMetric: "Email capture rate > 8%",
				HowToRun:      "Share variant links in niche groups and track signups.",
			},
		},
	}
}

// MockPositioningInput carries the fields the positioning mock draws on.
type MockPositioningInput struct {
	ProjectName   string
	NicheKeywords string
	ICPGuess      string
	WedgeOneLiner string
}

// MockPositioning produces a plausible positioning result.
func MockPositioning(input MockPositioningInput) *PositioningOutput {
	niche := firstKeyword(input.NicheKeywords, "your niche")
	return &PositioningOutput{
		ICP: ICP{
			Primary:   orDefault(input.ICPGuess, fmt.Sprintf("Busy %s operators", niche)),
			Secondary: fmt.Sprintf("Small teams in %s", niche),
			Excluded:  []string{"Enterprise platforms", "Low-volume hobby users"},
		},
		ProblemStatement: fmt.Sprintf("%s operators lose time and profit to coordination, inconsistent pricing, and admin.", niche),
		ValueProposition: fmt.Sprintf("%s turns leads into booked, profitable work with standardized rules, templates, and clean close-out.", input.ProjectName),
		WhyNow: []string{
			"Customers expect fast responses and simple booking.",
			"Competition is high; operational excellence wins.",
			"AI-assisted content makes marketing faster, but distribution still needs clarity.",
		},
		Differentiators: []string{
			"Profit-first workflow (rules + buffers)",
			"Outputs you can copy/paste and reuse",
			"Built-in A/B experiments and tracking",
		},
		Objections: []Objection{
			{Objection: "I already use notes + calendar.", Rebuttal: "Not enough for consistent pricing, repeatable close-out, or launch assets."},
			{Objection: "I’m too busy to learn a new tool.", Rebuttal: "Start with one flow: create a quote/booking link and reuse it."},
		},
		PositioningOptions: []PositioningOption{
			{
				AngleName:      "Profit & Margin",
				Headline:       fmt.Sprintf("Stop losing margin in %s.", niche),
				Subhead:        "Standardize pricing rules and book only high-quality work.",
				ProofPoints:    []string{"Pricing rules", "Smart buffers", "Clean close-out exports"},
				BestChannelFit: []string{"Short-form videos", "Facebook groups"},
			},
			{
				AngleName:      "Scheduling Speed",
				Headline:       "Book clients with one link.",
				Subhead:        "Cut phone tag and reduce drop-off with a simple flow.",
				ProofPoints:    []string{"Address/details upfront", "Reminders", "Fast confirmations"},
				BestChannelFit: []string{"Google search", "Referrals"},
			},
			{
				AngleName:      "Launch Kit",
				Headline:       "Generate your launch kit in minutes.",
				Subhead:        "Positioning, landing copy, and experiments from real customer sources.",
				ProofPoints:    []string{"Research clustering", "Asset generation", "A/B tracking"},
				BestChannelFit: []string{"Product Hunt", "Indie communities"},
			},
		},
		RecommendedAngle: "Profit & Margin",
		PricingHypothesis: PricingHypothesis{
			Model:        "subscription",
			StarterPrice: "$19/mo",
			ProPrice:     "$49/mo",
			Reasoning:    "If it saves 1–2 hours/week or prevents one mispriced job, ROI is clear.",
		},
		FirstOffer: FirstOffer{
			Offer:                   "Free starter kit: booking link + first launch kit asset",
			GuaranteeOrRiskReversal: "Cancel anytime. Keep exports.",
			CTA:                     "Generate My Link",
		},
	}
}

// MockLandingAssetInput carries the fields the landing asset mock draws on.
type MockLandingAssetInput struct {
	ProjectName   string
	NicheKeywords string
	ICP           string
	Angle         string
	ValueProp     string
}

// MockLandingAsset produces a sectioned landing page draft.
func MockLandingAsset(input MockLandingAssetInput) *AssetOutput {
	niche := firstKeyword(input.NicheKeywords, "your niche")
	return &AssetOutput{
		Sections: []AssetSection{
			{Key: "hero", Markdown: fmt.Sprintf("# Book profitable %s work—without the chaos.\n\n**%s** helps %s standardize pricing and close out faster.\n\n**CTA:** Generate My Launch Kit", niche, input.ProjectName, input.ICP)},
			{Key: "problem", Markdown: "## The hidden leak\n\n- Phone tag + delays\n- Inconsistent quotes\n- Admin piles up at night"},
			{Key: "solution", Markdown: "## One repeatable flow\n\nLead → quote → book → close-out (exports)"},
			{Key: "how_it_works", Markdown: "## How it works\n\n1) Add sources\n2) Generate insights + positioning\n3) Generate launch assets\n4) Run A/B variants"},
			{Key: "final_cta", Markdown: "## Ship faster with clarity\n\n**CTA:** Create my first project"},
		},
	}
}

// MockProductHunt produces a Product Hunt launch kit.
func MockProductHunt(projectName, oneLiner string) *ProductHuntOutput {
	return &ProductHuntOutput{
		Tagline:       "Launch kit + experiments in one place",
		Description:   fmt.Sprintf("%s turns research into positioning, assets, and A/B variants you can track.", projectName),
		MakersComment: fmt.Sprintf("Hey PH \U0001F44B\n\nWe built %s to reduce the gap between “idea” and “launch.” Paste real customer signals, then generate a launch kit and run experiments.\n\nWhat’s the hardest part of launching for you right now?", projectName),
		Top3Features:  []string{"Research clustering", "Launch kit generation", "A/B variant tracking"},
		WhoItsFor:     []string{"Solo founders", "Small SaaS teams", "Agencies"},
		PricingBlurb:  "Free to start; paid tiers unlock higher limits.",
		Ask:           "What feedback would help most?",
		Hashtags:      []string{"launch", "marketing", "saas"},
	}
}

// MockAppStore produces an app store listing.
func MockAppStore(projectName string) *AppStoreOutput {
	return &AppStoreOutput{
		Subtitle:        "Research → positioning → launch assets",
		PromoText:       "Turn signals into a launch plan in minutes.",
		DescriptionLong: fmt.Sprintf("%s helps you generate a launch plan from real customer signals.\n\n- Paste sources\n- Generate insights\n- Create positioning\n- Build assets\n- Run A/B variants", projectName),
		FeatureBullets:  []string{"Research clustering", "Positioning generator", "Landing copy packs", "Short-form scripts", "A/B tests"},
		Keywords:        []string{"launch", "marketing", "saas", "positioning", "copy", "growth", "product", "startup"},
		PrivacyBlurb:    "Your workspace data is private. Export anytime.",
	}
}

// MockSocialScripts produces ten short-form video scripts.
func MockSocialScripts(projectName, niche, cta string) *SocialScriptsOutput {
	scripts := make([]SocialScript, 0, 10)
	for i := 1; i <= 10; i++ {
		scripts = append(scripts, SocialScript{
			Hook:         fmt.Sprintf("Launch mistake #%d that kills conversions", i),
			Beats:        []string{"Show the mistake", "Show the fix", fmt.Sprintf("Show %s", projectName)},
			OnScreenText: []string{"Mistake", "Fix", cta},
			CTA:          cta,
		})
	}
	return &SocialScriptsOutput{Scripts: scripts}
}

// MockEmailSequence produces a five-email onboarding sequence.
func MockEmailSequence(projectName, activationAction string) *EmailSequenceOutput {
	return &EmailSequenceOutput{
		Emails: []SequenceEmail{
			{
				Day:          0,
				Subject:      "Your first launch plan starts here",
				Preview:      "Create your first project in 2 minutes.",
				BodyMarkdown: fmt.Sprintf("Welcome to %s.\n\n**Action:** %s\n\nThen paste 3–5 real customer quotes and generate insights.", projectName, activationAction),
				CTA:          activationAction,
			},
			{
				Day:          1,
				Subject:      "Pick ONE wedge (don’t boil the ocean)",
				Preview:      "Narrow wins faster.",
				BodyMarkdown: "Today: choose a single wedge and one primary audience. Then generate positioning options.",
				CTA:          "Open Positioning",
			},
			{
				Day:          3,
				Subject:      "Your landing page needs a job",
				Preview:      "One page, one promise.",
				BodyMarkdown: "Generate landing copy, then cut it down. Remove anything that doesn’t help the CTA.",
				CTA:          "Generate Landing Copy",
			},
			{
				Day:          5,
				Subject:      "Run a simple A/B test",
				Preview:      "Two headlines. One winner.",
				BodyMarkdown: "Create an experiment with Variant A and B. Share both links and track signups.",
				CTA:          "Create Experiment",
			},
			{
				Day:          7,
				Subject:      "Repeat what worked",
				Preview:      "Scale the winning message.",
				BodyMarkdown: "Take the winning headline and produce 10 social scripts + outreach messages.",
				CTA:          "Generate Social Scripts",
			},
		},
	}
}

// MockVariants produces an A/B pair from two candidate angles.
func MockVariants(angleA, angleB string) *VariantsOutput {
	return &VariantsOutput{
		Variants: []VariantSpec{
			{
				Key:                 "A",
				Headline:            orDefault(angleA, "Stop losing margin."),
				Subhead:             "Standardize pricing and book better work.",
				CTA:                 "Get Started",
				LandingCopyMarkdown: "### One flow from signal to launch.\n\n- Research\n- Positioning\n- Assets\n\n**Get your first kit today.**",
			},
			{
				Key:                 "B",
				Headline:            orDefault(angleB, "Launch in a weekend."),
				Subhead:             "Generate copy and run experiments fast.",
				CTA:                 "Create Project",
				LandingCopyMarkdown: "### Ship with clarity.\n\n- One wedge\n- One audience\n- One CTA\n\n**Create your first project.**",
			},
		},
		SuccessMetric: "signup_rate",
		RunInstructions: []string{
			"Split traffic 50/50.",
			"Run until each variant has at least N=100 views (or 7 days).",
			"Pick winner by signup_rate; use CTA_rate as secondary.",
		},
	}
}
