package generate

import (
	"encoding/json"
	"fmt"
)

// Output schemas for each generation kind. Provider responses are parsed into
// these and validated before anything is persisted; the mock generator emits
// them directly.

// Wedge is the recommended market entry angle.
type Wedge struct {
	OneLiner    string   `json:"one_liner"`
	WhyItWins   []string `json:"why_it_wins"`
	TargetUser  string   `json:"target_user"`
	JobToBeDone string   `json:"job_to_be_done"`
}

// PainCluster is one grouped customer problem with evidence.
type PainCluster struct {
	Label              string   `json:"label"`
	Summary            string   `json:"summary"`
	Who                string   `json:"who"`
	Severity           int      `json:"severity_1_5"`
	Frequency          int      `json:"frequency_1_5"`
	EvidenceQuotes     []string `json:"evidence_quotes"`
	CurrentWorkarounds []string `json:"current_workarounds"`
}

// PaySignal is a willingness-to-pay observation.
type PaySignal struct {
	Signal         string   `json:"signal"`
	EvidenceQuotes []string `json:"evidence_quotes"`
}

// FeatureGap is a capability competitors lack.
type FeatureGap struct {
	Gap                   string   `json:"gap"`
	WhyUsersCare          string   `json:"why_users_care"`
	CompetitorsMissingIt  []string `json:"competitors_missing_it"`
	MVPImplementationHint string   `json:"mvp_implementation_hint"`
}

// Risk pairs a risk with its mitigation and a validation test.
type Risk struct {
	Risk           string `json:"risk"`
	Mitigation     string `json:"mitigation"`
	ValidationTest string `json:"validation_test"`
}

// WeekTest is a short validation experiment to run in the next week.
type WeekTest struct {
	Test          string `json:"test"`
	SuccessMetric string `json:"success_metric"`
	HowToRun      string `json:"how_to_run"`
}

// GapFinderOutput is the insights generation result.
type GapFinderOutput struct {
	Wedge          Wedge         `json:"wedge"`
	PainClusters   []PainCluster `json:"pain_clusters"`
	PaySignals     []PaySignal   `json:"willingness_to_pay_signals"`
	FeatureGaps    []FeatureGap  `json:"feature_gaps"`
	Risks          []Risk        `json:"risks"`
	Next7DaysTests []WeekTest    `json:"next_7_days_tests"`
}

// Validate checks the structural constraints providers tend to violate.
func (o *GapFinderOutput) Validate() error {
	if o.Wedge.OneLiner == "" {
		return fmt.Errorf("wedge.one_liner is empty")
	}
	if len(o.Wedge.WhyItWins) == 0 {
		return fmt.Errorf("wedge.why_it_wins is empty")
	}
	if len(o.PainClusters) == 0 {
		return fmt.Errorf("pain_clusters is empty")
	}
	for i, c := range o.PainClusters {
		if c.Label == "" {
			return fmt.Errorf("pain_clusters[%d].label is empty", i)
		}
		if c.Severity < 1 || c.Severity > 5 {
			return fmt.Errorf("pain_clusters[%d].severity_1_5 out of range: %d", i, c.Severity)
		}
		if c.Frequency < 1 || c.Frequency > 5 {
			return fmt.Errorf("pain_clusters[%d].frequency_1_5 out of range: %d", i, c.Frequency)
		}
	}
	return nil
}

// ICP describes who the product is (and is not) for.
type ICP struct {
	Primary   string   `json:"primary"`
	Secondary string   `json:"secondary"`
	Excluded  []string `json:"excluded"`
}

// Objection pairs a buyer objection with its rebuttal.
type Objection struct {
	Objection string `json:"objection"`
	Rebuttal  string `json:"rebuttal"`
}

// PositioningOption is one candidate messaging angle.
type PositioningOption struct {
	AngleName      string   `json:"angle_name"`
	Headline       string   `json:"headline"`
	Subhead        string   `json:"subhead"`
	ProofPoints    []string `json:"proof_points"`
	BestChannelFit []string `json:"best_channel_fit"`
}

// PricingHypothesis is a first guess at the pricing model.
type PricingHypothesis struct {
	Model        string `json:"model"`
	StarterPrice string `json:"starter_price"`
	ProPrice     string `json:"pro_price"`
	Reasoning    string `json:"reasoning"`
}

// FirstOffer is the initial conversion offer.
type FirstOffer struct {
	Offer                   string `json:"offer"`
	GuaranteeOrRiskReversal string `json:"guarantee_or_risk_reversal"`
	CTA                     string `json:"cta"`
}

// PositioningOutput is the positioning generation result.
type PositioningOutput struct {
	ICP                ICP                 `json:"icp"`
	ProblemStatement   string              `json:"problem_statement"`
	ValueProposition   string              `json:"value_proposition"`
	WhyNow             []string            `json:"why_now"`
	Differentiators    []string            `json:"differentiators"`
	Objections         []Objection         `json:"objections_and_rebuttals"`
	PositioningOptions []PositioningOption `json:"positioning_options"`
	RecommendedAngle   string              `json:"recommended_angle"`
	PricingHypothesis  PricingHypothesis   `json:"pricing_hypothesis"`
	FirstOffer         FirstOffer          `json:"first_offer"`
}

var pricingModels = map[string]bool{"subscription": true, "usage": true, "one_time": true}

// Validate checks required fields and the pricing model enum.
func (o *PositioningOutput) Validate() error {
	if o.ProblemStatement == "" {
		return fmt.Errorf("problem_statement is empty")
	}
	if o.ValueProposition == "" {
		return fmt.Errorf("value_proposition is empty")
	}
	if len(o.PositioningOptions) == 0 {
		return fmt.Errorf("positioning_options is empty")
	}
	if !pricingModels[o.PricingHypothesis.Model] {
		return fmt.Errorf("pricing_hypothesis.model invalid: %q", o.PricingHypothesis.Model)
	}
	return nil
}

// AssetSection is one block of a generated asset.
type AssetSection struct {
	Key      string `json:"key"`
	Markdown string `json:"markdown"`
}

// AssetOutput is the landing asset generation result.
type AssetOutput struct {
	Sections []AssetSection `json:"sections"`
}

func (o *AssetOutput) Validate() error {
	if len(o.Sections) == 0 {
		return fmt.Errorf("sections is empty")
	}
	for i, s := range o.Sections {
		if s.Key == "" {
			return fmt.Errorf("sections[%d].key is empty", i)
		}
	}
	return nil
}

// ProductHuntOutput is the Product Hunt launch kit result.
type ProductHuntOutput struct {
	Tagline       string   `json:"tagline"`
	Description   string   `json:"description"`
	MakersComment string   `json:"makers_comment"`
	Top3Features  []string `json:"top_3_features"`
	WhoItsFor     []string `json:"who_its_for"`
	PricingBlurb  string   `json:"pricing_blurb"`
	Ask           string   `json:"ask"`
	Hashtags      []string `json:"hashtags"`
}

func (o *ProductHuntOutput) Validate() error {
	if o.Tagline == "" {
		return fmt.Errorf("tagline is empty")
	}
	if o.Description == "" {
		return fmt.Errorf("description is empty")
	}
	return nil
}

// AppStoreOutput is the app store listing result.
type AppStoreOutput struct {
	Subtitle        string   `json:"subtitle"`
	PromoText       string   `json:"promo_text"`
	DescriptionLong string   `json:"description_long"`
	FeatureBullets  []string `json:"feature_bullets"`
	Keywords        []string `json:"keywords"`
	PrivacyBlurb    string   `json:"privacy_blurb"`
}

func (o *AppStoreOutput) Validate() error {
	if o.Subtitle == "" {
		return fmt.Errorf("subtitle is empty")
	}
	if o.DescriptionLong == "" {
		return fmt.Errorf("description_long is empty")
	}
	return nil
}

// SocialScript is one short-form video script.
type SocialScript struct {
	Hook         string   `json:"hook"`
	Beats        []string `json:"beats"`
	OnScreenText []string `json:"on_screen_text"`
	CTA          string   `json:"cta"`
}

// SocialScriptsOutput is the social scripts generation result.
type SocialScriptsOutput struct {
	Scripts []SocialScript `json:"scripts"`
}

func (o *SocialScriptsOutput) Validate() error {
	if len(o.Scripts) == 0 {
		return fmt.Errorf("scripts is empty")
	}
	return nil
}

// SequenceEmail is one email of an onboarding sequence.
type SequenceEmail struct {
	Day          int    `json:"day"`
	Subject      string `json:"subject"`
	Preview      string `json:"preview"`
	BodyMarkdown string `json:"body_markdown"`
	CTA          string `json:"cta"`
}

// EmailSequenceOutput is the email sequence generation result.
type EmailSequenceOutput struct {
	Emails []SequenceEmail `json:"emails"`
}

func (o *EmailSequenceOutput) Validate() error {
	if len(o.Emails) == 0 {
		return fmt.Errorf("emails is empty")
	}
	return nil
}

// VariantSpec is one generated experiment arm.
type VariantSpec struct {
	Key                 string `json:"key"`
	Headline            string `json:"headline"`
	Subhead             string `json:"subhead"`
	CTA                 string `json:"cta"`
	LandingCopyMarkdown string `json:"landing_copy_markdown"`
}

// VariantsOutput is the A/B variants generation result. Exactly two variants
// keyed "A" and "B" are required.
type VariantsOutput struct {
	Variants        []VariantSpec `json:"variants"`
	SuccessMetric   string        `json:"success_metric"`
	RunInstructions []string      `json:"run_instructions"`
}

func (o *VariantsOutput) Validate() error {
	if len(o.Variants) != 2 {
		return fmt.Errorf("expected exactly 2 variants, got %d", len(o.Variants))
	}
	keys := map[string]bool{}
	for _, v := range o.Variants {
		if v.Key != "A" && v.Key != "B" {
			return fmt.Errorf("variant key invalid: %q", v.Key)
		}
		if v.Headline == "" {
			return fmt.Errorf("variant %s headline is empty", v.Key)
		}
		keys[v.Key] = true
	}
	if !keys["A"] || !keys["B"] {
		return fmt.Errorf("variants must cover both A and B")
	}
	return nil
}

// decodeInto parses raw JSON into a validated output.
func decodeInto[T interface{ Validate() error }](raw string, out T) (T, error) {
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return out, fmt.Errorf("could not parse model output: %w", err)
	}
	if err := out.Validate(); err != nil {
		return out, fmt.Errorf("model output failed validation: %w", err)
	}
	return out, nil
}
