// Package generate runs the AI generation pipeline: entitlement check, context
// assembly, provider call with mock fallback, persistence, and usage event.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"launchos/internal/ai"
	"launchos/internal/entitlements"
	"launchos/internal/models"
)

// Service orchestrates one generation from request to persisted rows.
type Service struct {
	db      *models.DB
	checker *entitlements.Checker
	logger  *zap.Logger

	// newGenerator is swapped by tests to inject fake providers.
	newGenerator func(ai.Config) ai.TextGenerator
}

// NewService creates a generation service
func NewService(db *models.DB, checker *entitlements.Checker, logger *zap.Logger) *Service {
	return &Service{
		db:           db,
		checker:      checker,
		logger:       logger,
		newGenerator: ai.NewTextGenerator,
	}
}

// workspaceGenerator returns the workspace's provider client, or nil when the
// workspace runs on MOCK, is not fully configured, or cannot be loaded. A nil
// generator means mock output; generation never fails over provider setup.
func (s *Service) workspaceGenerator(workspaceID uuid.UUID) ai.TextGenerator {
	workspace, err := s.db.Workspaces.Get(workspaceID)
	if err != nil {
		s.logger.Warn("could not load workspace AI settings", zap.Error(err))
		return nil
	}
	return s.newGenerator(ai.Config{
		Provider: workspace.AIProvider,
		APIKey:   workspace.AIKey,
		Model:    workspace.AIModel,
	})
}

// fromProvider calls the provider and parses its output into a validated
// result. Any failure returns an error; callers fall back to the mock.
func fromProvider[T interface{ Validate() error }](ctx context.Context, gen ai.TextGenerator, prompt string, out T) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, ai.RequestTimeout)
	defer cancel()

	text, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return out, err
	}
	return decodeInto(ai.ExtractLikelyJSON(text), out)
}

func (s *Service) logFallback(kind string, projectID uuid.UUID, err error) {
	s.logger.Warn("provider generation failed, using mock output",
		zap.String("kind", kind),
		zap.String("project_id", projectID.String()),
		zap.Error(err))
}

// recordGeneration appends the single GENERATION usage event for a run. Every
// generation produces exactly one, fallback or not.
func (s *Service) recordGeneration(tx *models.DB, workspaceID, projectID uuid.UUID, meta any) error {
	metaJSON := ""
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		metaJSON = string(b)
	}
	return tx.Experiments.RecordEvent(&models.Event{
		WorkspaceID: workspaceID,
		ProjectID:   &projectID,
		Type:        models.EventGeneration,
		MetaJSON:    metaJSON,
	})
}

// persistGeneration writes a run's domain rows and its usage event in one
// transaction, re-checking the monthly quota under the workspace lock first.
// Concurrent runs at the ceiling serialize on that lock, and a rejected run
// writes nothing; the caller either gets the fully persisted result or a
// clean failure, never half of one.
func (s *Service) persistGeneration(workspaceID, projectID uuid.UUID, meta any, persist func(tx *models.DB) error) error {
	return s.db.Transaction(func(tx *models.DB) error {
		if err := s.checker.CanGenerate(tx.DB, workspaceID, time.Now()); err != nil {
			return err
		}
		if err := persist(tx); err != nil {
			return err
		}
		return s.recordGeneration(tx, workspaceID, projectID, meta)
	})
}

// InsightsResult is what an insights generation persisted.
type InsightsResult struct {
	Wedge    Wedge                   `json:"wedge"`
	Clusters []models.InsightCluster `json:"clusters"`
}

// GenerateInsights analyzes the project's sources into pain clusters and a
// wedge. Clusters are fully replaced; the wedge is recorded on the usage event.
func (s *Service) GenerateInsights(ctx context.Context, workspaceID, projectID uuid.UUID) (*InsightsResult, error) {
	if err := s.checker.CanGenerate(nil, workspaceID, time.Now()); err != nil {
		return nil, err
	}

	project, err := s.db.Projects.GetDetailed(projectID, workspaceID)
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, src := range project.Sources {
		parts = append(parts, fmt.Sprintf("# %s\n%s", src.Title, src.Content))
	}
	sourcesText := strings.Join(parts, "\n\n")

	mockInput := MockGapFinderInput{
		ProjectName:    project.Name,
		NicheKeywords:  project.NicheKeywords,
		ICPGuess:       project.ICPGuess,
		CompetitorURLs: project.CompetitorURLs,
		SourcesText:    sourcesText,
	}
	out := MockGapFinder(mockInput)
	if gen := s.workspaceGenerator(workspaceID); gen != nil {
		prompt := gapFinderPrompt(project.NicheKeywords, project.ICPGuess, project.CompetitorURLs, sourcesText)
		if provided, perr := fromProvider(ctx, gen, prompt, &GapFinderOutput{}); perr == nil {
			out = provided
		} else {
			s.logFallback("insights", projectID, perr)
		}
	}

	clusters := make([]models.InsightCluster, 0, len(out.PainClusters))
	for _, c := range out.PainClusters {
		evidence, _ := json.Marshal(c.EvidenceQuotes)
		workarounds, _ := json.Marshal(c.CurrentWorkarounds)
		clusters = append(clusters, models.InsightCluster{
			ProjectID:       projectID,
			Label:           c.Label,
			Summary:         c.Summary,
			Who:             c.Who,
			Severity:        c.Severity,
			Frequency:       c.Frequency,
			EvidenceJSON:    string(evidence),
			WorkaroundsJSON: string(workarounds),
		})
	}
	meta := map[string]any{"kind": "insights", "wedge": out.Wedge}
	err = s.persistGeneration(workspaceID, projectID, meta, func(tx *models.DB) error {
		return tx.Projects.ReplaceClusters(projectID, clusters)
	})
	if err != nil {
		return nil, err
	}

	return &InsightsResult{Wedge: out.Wedge, Clusters: clusters}, nil
}

// GeneratePositioning produces and upserts the project's positioning row.
func (s *Service) GeneratePositioning(ctx context.Context, workspaceID, projectID uuid.UUID) (*models.Positioning, error) {
	if err := s.checker.CanGenerate(nil, workspaceID, time.Now()); err != nil {
		return nil, err
	}

	project, err := s.db.Projects.Get(projectID, workspaceID)
	if err != nil {
		return nil, err
	}

	const wedgeOneLiner = "A focused wedge that wins with a repeatable workflow."

	out := MockPositioning(MockPositioningInput{
		ProjectName:   project.Name,
		NicheKeywords: project.NicheKeywords,
		ICPGuess:      project.ICPGuess,
		WedgeOneLiner: wedgeOneLiner,
	})
	if gen := s.workspaceGenerator(workspaceID); gen != nil {
		prompt := positioningPrompt(project.Name, project.NicheKeywords, project.ICPGuess, wedgeOneLiner)
		if provided, perr := fromProvider(ctx, gen, prompt, &PositioningOutput{}); perr == nil {
			out = provided
		} else {
			s.logFallback("positioning", projectID, perr)
		}
	}

	icpJSON, _ := json.Marshal(out.ICP)
	whyNowJSON, _ := json.Marshal(out.WhyNow)
	diffJSON, _ := json.Marshal(out.Differentiators)
	objJSON, _ := json.Marshal(out.Objections)
	optJSON, _ := json.Marshal(out.PositioningOptions)
	pricingJSON, _ := json.Marshal(out.PricingHypothesis)
	offerJSON, _ := json.Marshal(out.FirstOffer)

	pos := &models.Positioning{
		ProjectID:           projectID,
		ICPJSON:             string(icpJSON),
		ProblemStatement:    out.ProblemStatement,
		ValueProp:           out.ValueProposition,
		WhyNowJSON:          string(whyNowJSON),
		DifferentiatorsJSON: string(diffJSON),
		ObjectionsJSON:      string(objJSON),
		OptionsJSON:         string(optJSON),
		RecommendedAngle:    out.RecommendedAngle,
		PricingJSON:         string(pricingJSON),
		OfferJSON:           string(offerJSON),
	}
	err = s.persistGeneration(workspaceID, projectID, map[string]any{"kind": "positioning"}, func(tx *models.DB) error {
		return tx.Projects.UpsertPositioning(pos)
	})
	if err != nil {
		return nil, err
	}
	return pos, nil
}

// positioningContext is the slice of positioning the asset prompts need.
type positioningContext struct {
	ICP       string
	Angle     string
	ValueProp string
}

func assetContext(pos *models.Positioning, icpGuess string) positioningContext {
	if pos == nil {
		return positioningContext{ICP: icpGuess, Angle: "Profit & Margin", ValueProp: "Ship faster with clarity."}
	}
	var icp ICP
	_ = json.Unmarshal([]byte(pos.ICPJSON), &icp)
	return positioningContext{ICP: icp.Primary, Angle: pos.RecommendedAngle, ValueProp: pos.ValueProp}
}

// GenerateAsset produces one marketing asset of the given type, replacing any
// prior asset of that type.
func (s *Service) GenerateAsset(ctx context.Context, workspaceID, projectID uuid.UUID, assetType models.AssetType) (*models.Asset, error) {
	if err := s.checker.CanGenerate(nil, workspaceID, time.Now()); err != nil {
		return nil, err
	}

	project, err := s.db.Projects.GetDetailed(projectID, workspaceID)
	if err != nil {
		return nil, err
	}
	pctx := assetContext(project.Positioning, project.ICPGuess)
	gen := s.workspaceGenerator(workspaceID)

	title, sections := s.buildAssetSections(ctx, gen, project, pctx, assetType)

	asset := &models.Asset{ProjectID: projectID, Type: assetType, Title: title}
	items := make([]models.AssetItem, 0, len(sections))
	for _, sec := range sections {
		items = append(items, models.AssetItem{SectionKey: sec.Key, ContentMarkdown: sec.Markdown})
	}
	meta := map[string]any{"kind": "asset", "asset_type": assetType}
	err = s.persistGeneration(workspaceID, projectID, meta, func(tx *models.DB) error {
		return tx.Assets.Replace(asset, items)
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// buildAssetSections runs the per-type generation and flattens the result into
// titled markdown sections.
func (s *Service) buildAssetSections(ctx context.Context, gen ai.TextGenerator, project *models.Project, pctx positioningContext, assetType models.AssetType) (string, []AssetSection) {
	switch assetType {
	case models.AssetLanding:
		out := MockLandingAsset(MockLandingAssetInput{
			ProjectName:   project.Name,
			NicheKeywords: project.NicheKeywords,
			ICP:           pctx.ICP,
			Angle:         pctx.Angle,
			ValueProp:     pctx.ValueProp,
		})
		if gen != nil {
			prompt := landingAssetPrompt(project.Name, project.NicheKeywords, pctx.ICP, pctx.Angle, pctx.ValueProp)
			if provided, perr := fromProvider(ctx, gen, prompt, &AssetOutput{}); perr == nil {
				out = provided
			} else {
				s.logFallback("asset:LANDING", project.ID, perr)
			}
		}
		return "Landing Page Copy", out.Sections

	case models.AssetProductHunt:
		out := MockProductHunt(project.Name, pctx.ValueProp)
		if gen != nil {
			prompt := productHuntPrompt(project.Name, pctx.ValueProp)
			if provided, perr := fromProvider(ctx, gen, prompt, &ProductHuntOutput{}); perr == nil {
				out = provided
			} else {
				s.logFallback("asset:PRODUCTHUNT", project.ID, perr)
			}
		}
		return "Product Hunt Listing", []AssetSection{
			{Key: "tagline", Markdown: fmt.Sprintf("**Tagline:** %s", out.Tagline)},
			{Key: "description", Markdown: out.Description},
			{Key: "makers_comment", Markdown: out.MakersComment},
			{Key: "features", Markdown: fmt.Sprintf("**Top features:**\n- %s", strings.Join(out.Top3Features, "\n- "))},
			{Key: "who", Markdown: fmt.Sprintf("**Who it's for:**\n- %s", strings.Join(out.WhoItsFor, "\n- "))},
			{Key: "pricing", Markdown: out.PricingBlurb},
		}

	case models.AssetAppStore:
		out := MockAppStore(project.Name)
		if gen != nil {
			if provided, perr := fromProvider(ctx, gen, appStorePrompt(project.Name), &AppStoreOutput{}); perr == nil {
				out = provided
			} else {
				s.logFallback("asset:APPSTORE", project.ID, perr)
			}
		}
		return "App Store Listing", []AssetSection{
			{Key: "subtitle", Markdown: fmt.Sprintf("**Subtitle:** %s", out.Subtitle)},
			{Key: "promo_text", Markdown: fmt.Sprintf("**Promo:** %s", out.PromoText)},
			{Key: "long", Markdown: out.DescriptionLong},
			{Key: "bullets", Markdown: fmt.Sprintf("**Features:**\n- %s", strings.Join(out.FeatureBullets, "\n- "))},
			{Key: "keywords", Markdown: fmt.Sprintf("**Keywords:** %s", strings.Join(out.Keywords, ", "))},
			{Key: "privacy", Markdown: out.PrivacyBlurb},
		}

	case models.AssetSocial:
		const cta = "Create your first project"
		out := MockSocialScripts(project.Name, project.NicheKeywords, cta)
		if gen != nil {
			if provided, perr := fromProvider(ctx, gen, socialScriptsPrompt(project.Name, pctx.ICP, cta), &SocialScriptsOutput{}); perr == nil {
				out = provided
			} else {
				s.logFallback("asset:SOCIAL", project.ID, perr)
			}
		}
		sections := make([]AssetSection, 0, len(out.Scripts))
		for i, sc := range out.Scripts {
			sections = append(sections, AssetSection{
				Key: fmt.Sprintf("script_%d", i+1),
				Markdown: fmt.Sprintf("### Script %d\n**Hook:** %s\n\n**Beats:**\n- %s\n\n**On-screen:**\n- %s\n\n**CTA:** %s",
					i+1, sc.Hook, strings.Join(sc.Beats, "\n- "), strings.Join(sc.OnScreenText, "\n- "), sc.CTA),
			})
		}
		return "Short-form Scripts (10)", sections

	case models.AssetEmail:
		const activation = "Create a project"
		out := MockEmailSequence(project.Name, activation)
		if gen != nil {
			if provided, perr := fromProvider(ctx, gen, emailSeqPrompt(project.Name, pctx.ICP, activation), &EmailSequenceOutput{}); perr == nil {
				out = provided
			} else {
				s.logFallback("asset:EMAIL", project.ID, perr)
			}
		}
		sections := make([]AssetSection, 0, len(out.Emails))
		for _, e := range out.Emails {
			sections = append(sections, AssetSection{
				Key: fmt.Sprintf("day_%d", e.Day),
				Markdown: fmt.Sprintf("### Day %d\n**Subject:** %s\n**Preview:** %s\n\n%s\n\n**CTA:** %s",
					e.Day, e.Subject, e.Preview, e.BodyMarkdown, e.CTA),
			})
		}
		return "Email Sequence (5)", sections
	}

	return "", nil
}

// CreateExperiment generates an A/B variant pair and persists the experiment
// with both variants. It consumes a generation and counts against the
// experiment ceiling.
func (s *Service) CreateExperiment(ctx context.Context, workspaceID, projectID uuid.UUID, name, angleA, angleB string) (*models.Experiment, error) {
	if err := s.checker.CanCreateExperiment(workspaceID, projectID); err != nil {
		return nil, err
	}
	if err := s.checker.CanGenerate(nil, workspaceID, time.Now()); err != nil {
		return nil, err
	}

	if _, err := s.db.Projects.Get(projectID, workspaceID); err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name == "" {
		name = "Messaging Test"
	}
	if angleA = strings.TrimSpace(angleA); angleA == "" {
		angleA = "Stop losing margin."
	}
	if angleB = strings.TrimSpace(angleB); angleB == "" {
		angleB = "Launch in a weekend."
	}

	out := MockVariants(angleA, angleB)
	if gen := s.workspaceGenerator(workspaceID); gen != nil {
		if provided, perr := fromProvider(ctx, gen, variantsPrompt(angleA, angleB), &VariantsOutput{}); perr == nil {
			out = provided
		} else {
			s.logFallback("variants", projectID, perr)
		}
	}

	experiment := &models.Experiment{ProjectID: projectID, Name: name, Status: "running"}
	variants := make([]models.Variant, 0, len(out.Variants))
	for _, v := range out.Variants {
		variants = append(variants, models.Variant{
			Key:                 v.Key,
			Headline:            v.Headline,
			Subhead:             v.Subhead,
			CTA:                 v.CTA,
			LandingCopyMarkdown: v.LandingCopyMarkdown,
		})
	}
	err := s.persistGeneration(workspaceID, projectID, map[string]any{"kind": "variants"}, func(tx *models.DB) error {
		return tx.Experiments.CreateWithVariants(experiment, variants)
	})
	if err != nil {
		return nil, err
	}
	return experiment, nil
}
