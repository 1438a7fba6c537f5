package models

import "errors"

// Custom types to match PostgreSQL enums
type PlanTier string
type MembershipRole string
type SourceType string
type AssetType string
type EventType string
type AIProvider string

const (
	// Plan tiers
	TierFree   PlanTier = "FREE"
	TierSolo   PlanTier = "SOLO"
	TierTeam   PlanTier = "TEAM"
	TierAgency PlanTier = "AGENCY"

	// Membership roles
	RoleOwner  MembershipRole = "OWNER"
	RoleMember MembershipRole = "MEMBER"

	// Source types
	SourceReview     SourceType = "REVIEW"
	SourceForum      SourceType = "FORUM"
	SourceCompetitor SourceType = "COMPETITOR"
	SourceNotes      SourceType = "NOTES"

	// Asset types
	AssetLanding     AssetType = "LANDING"
	AssetProductHunt AssetType = "PRODUCTHUNT"
	AssetAppStore    AssetType = "APPSTORE"
	AssetSocial      AssetType = "SOCIAL"
	AssetEmail       AssetType = "EMAIL"

	// Event types
	EventView       EventType = "VIEW"
	EventCTA        EventType = "CTA"
	EventSignup     EventType = "SIGNUP"
	EventGeneration EventType = "GENERATION"

	// AI providers
	ProviderMock      AIProvider = "MOCK"
	ProviderOpenAI    AIProvider = "OPENAI"
	ProviderAnthropic AIProvider = "ANTHROPIC"
)

// Sentinel errors returned by managers and instance methods. Handlers map
// these to HTTP statuses with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyMember = errors.New("already a member of this workspace")
	ErrAlreadyOwner  = errors.New("member is already an owner")
	ErrNotOwner      = errors.New("member is not an owner")
	ErrLastOwner     = errors.New("workspace must keep at least one owner")
	ErrSelfRemove    = errors.New("cannot remove yourself; leave the workspace instead")
	ErrInviteInvalid = errors.New("invite is invalid")
	ErrInviteExpired = errors.New("invite expired")
	ErrEmailMismatch = errors.New("invite email does not match your account email")
)

// AsPlanTier normalizes an arbitrary string to a known tier, defaulting to FREE.
func AsPlanTier(v string) PlanTier {
	switch PlanTier(v) {
	case TierSolo, TierTeam, TierAgency:
		return PlanTier(v)
	default:
		return TierFree
	}
}

// AsAIProvider normalizes an arbitrary string to a known provider, defaulting to MOCK.
func AsAIProvider(v string) AIProvider {
	switch AIProvider(v) {
	case ProviderOpenAI, ProviderAnthropic:
		return AIProvider(v)
	default:
		return ProviderMock
	}
}

// AsAssetType validates an asset type string; ok is false for unknown values.
func AsAssetType(v string) (AssetType, bool) {
	switch AssetType(v) {
	case AssetLanding, AssetProductHunt, AssetAppStore, AssetSocial, AssetEmail:
		return AssetType(v), true
	}
	return "", false
}

// AsEventType validates a tracking event type; GENERATION is internal and not
// accepted from the public endpoint.
func AsEventType(v string) (EventType, bool) {
	switch EventType(v) {
	case EventView, EventCTA, EventSignup:
		return EventType(v), true
	}
	return "", false
}

// AsSourceType normalizes a research source type, defaulting to NOTES.
func AsSourceType(v string) SourceType {
	switch SourceType(v) {
	case SourceReview, SourceForum, SourceCompetitor:
		return SourceType(v)
	default:
		return SourceNotes
	}
}
