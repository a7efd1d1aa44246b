package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type ItemType string

const (
	ItemTypeCharacter ItemType = "character"
	ItemTypeWeapon    ItemType = "weapon"
)

const (
	MaxBuildNameLength   = 100
	MaxDescriptionLength = 500
	MaxGuideLength       = 5000
	MaxMods              = 8
	MaxSupportMembers    = 2

	// DefaultSupportCapacity is the number of mod slots, and the tolerance
	// budget, of one support team member.
	DefaultSupportCapacity = 9
)

// Support slot keys used in SupportMods.
const (
	SupportSlot1 = "support1"
	SupportSlot2 = "support2"
)

// SupportSlots lists the valid SupportMods keys in order
var SupportSlots = []string{SupportSlot1, SupportSlot2}

// SupportMods maps a support slot key to the mod names equipped there.
type SupportMods map[string][]string

// BuildContent is the user-authored part of a build. It is shared by
// builds in the document store and local drafts.
type BuildContent struct {
	BuildName   string     `json:"buildName" gorm:"size:100;not null" validate:"required,max=100"`
	Description string     `json:"description" gorm:"size:500" validate:"max=500"`
	Guide       string     `json:"guide" gorm:"type:text" validate:"max=5000"`
	Visibility  Visibility `json:"visibility" gorm:"type:varchar(16);not null;default:'public';index" validate:"required,oneof=public private"`

	ItemType  ItemType `json:"itemType" gorm:"type:varchar(16);not null" validate:"required,oneof=character weapon"`
	ItemID    string   `json:"itemId" gorm:"not null;index" validate:"required"`
	ItemName  string   `json:"itemName"`
	ItemImage string   `json:"itemImage"`

	Mods           datatypes.JSONSlice[string]     `json:"mods" gorm:"type:jsonb;not null;default:'[]'" validate:"max=8,dive,required"`
	Team           datatypes.JSONSlice[string]     `json:"team" gorm:"type:jsonb;not null;default:'[]'" validate:"max=2,dive,required"`
	SupportWeapons datatypes.JSONSlice[string]     `json:"supportWeapons" gorm:"type:jsonb;not null;default:'[]'" validate:"max=2,dive,required"`
	SupportMods    datatypes.JSONType[SupportMods] `json:"supportMods" gorm:"type:jsonb"`
}

// Normalize replaces nil collections with empty ones so stored and
// exported records never carry nulls.
func (c *BuildContent) Normalize() {
	if c.Mods == nil {
		c.Mods = datatypes.JSONSlice[string]{}
	}
	if c.Team == nil {
		c.Team = datatypes.JSONSlice[string]{}
	}
	if c.SupportWeapons == nil {
		c.SupportWeapons = datatypes.JSONSlice[string]{}
	}
	if c.SupportMods.Data() == nil {
		c.SupportMods = datatypes.NewJSONType(SupportMods{})
	}
}

// AddMod appends a mod name, refusing to grow past MaxMods. The build is
// left untouched on error.
func (c *BuildContent) AddMod(name string) error {
	if len(c.Mods) >= MaxMods {
		return NewValidationError("mods", fmt.Sprintf("must not exceed %d entries", MaxMods))
	}
	c.Mods = append(c.Mods, name)
	return nil
}

// RemoveMod removes the first occurrence of name. It reports whether the
// mod was present.
func (c *BuildContent) RemoveMod(name string) bool {
	i := slices.Index(c.Mods, name)
	if i < 0 {
		return false
	}
	c.Mods = slices.Delete(slices.Clone(c.Mods), i, i+1)
	return true
}

// Build is a saved build in the shared document store.
type Build struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID  uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Creator string    `json:"creator" gorm:"not null;default:''"`

	BuildContent `gorm:"embedded"`

	VoteCount int                         `json:"voteCount" gorm:"not null;default:0"`
	VotedBy   datatypes.JSONSlice[string] `json:"votedBy" gorm:"type:jsonb;not null;default:'[]'"`
	Views     int                         `json:"views" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (Build) TableName() string {
	return "builds"
}

// NewBuild returns a build with its social counters at their defaults.
func NewBuild(userID uuid.UUID, creator string, content BuildContent) *Build {
	content.Normalize()
	return &Build{
		ID:           uuid.New(),
		UserID:       userID,
		Creator:      creator,
		BuildContent: content,
		VoteCount:    0,
		VotedBy:      datatypes.JSONSlice[string]{},
		Views:        0,
	}
}

// HasVoted reports whether userID is among the voters.
func (b *Build) HasVoted(userID string) bool {
	return slices.Contains(b.VotedBy, userID)
}

// VisibleTo reports whether the build can be read by userID. Private
// builds are only visible to their owner.
func (b *Build) VisibleTo(userID uuid.UUID) bool {
	return b.Visibility == VisibilityPublic || b.UserID == userID
}

// BuildPatch lists the fields of a build that may be changed after
// creation. Nil fields are left as stored.
type BuildPatch struct {
	BuildName      *string      `json:"buildName,omitempty"`
	Description    *string      `json:"description,omitempty"`
	Guide          *string      `json:"guide,omitempty"`
	Visibility     *Visibility  `json:"visibility,omitempty"`
	ItemType       *ItemType    `json:"itemType,omitempty"`
	ItemID         *string      `json:"itemId,omitempty"`
	ItemName       *string      `json:"itemName,omitempty"`
	ItemImage      *string      `json:"itemImage,omitempty"`
	Mods           *[]string    `json:"mods,omitempty"`
	Team           *[]string    `json:"team,omitempty"`
	SupportWeapons *[]string    `json:"supportWeapons,omitempty"`
	SupportMods    *SupportMods `json:"supportMods,omitempty"`
}

func (p BuildPatch) IsEmpty() bool {
	return p == BuildPatch{}
}

// ApplyTo merges the patch into c.
func (p BuildPatch) ApplyTo(c *BuildContent) {
	if p.BuildName != nil {
		c.BuildName = *p.BuildName
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Guide != nil {
		c.Guide = *p.Guide
	}
	if p.Visibility != nil {
		c.Visibility = *p.Visibility
	}
	if p.ItemType != nil {
		c.ItemType = *p.ItemType
	}
	if p.ItemID != nil {
		c.ItemID = *p.ItemID
	}
	if p.ItemName != nil {
		c.ItemName = *p.ItemName
	}
	if p.ItemImage != nil {
		c.ItemImage = *p.ItemImage
	}
	if p.Mods != nil {
		c.Mods = slices.Clone(*p.Mods)
	}
	if p.Team != nil {
		c.Team = slices.Clone(*p.Team)
	}
	if p.SupportWeapons != nil {
		c.SupportWeapons = slices.Clone(*p.SupportWeapons)
	}
	if p.SupportMods != nil {
		c.SupportMods = datatypes.NewJSONType(*p.SupportMods)
	}
	c.Normalize()
}

// LocalSchemaVersion is the version stamped on local drafts. Imports of a
// newer version are rejected.
const LocalSchemaVersion = 1

// LocalBuild is a private draft kept in local storage. It has no social
// counters and its identity and timestamps are assigned locally.
type LocalBuild struct {
	SchemaVersion int    `json:"schemaVersion"`
	ID            string `json:"id"`

	BuildContent

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DecodeLocalBuilds parses an exported draft collection. It only accepts a
// JSON array of drafts at or below LocalSchemaVersion; records without a
// version predate versioning and are treated as version 1. Ids must be
// unique within the payload. Records without an id are accepted and get
// one when stored.
func DecodeLocalBuilds(data []byte) ([]*LocalBuild, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, &FormatError{Reason: "malformed JSON"}
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &FormatError{Reason: "import payload is not an array"}
	}

	var drafts []*LocalBuild
	if err := json.Unmarshal(trimmed, &drafts); err != nil {
		return nil, &FormatError{Reason: "invalid draft record", Err: err}
	}

	seen := make(map[string]int, len(drafts))
	for i, d := range drafts {
		if d == nil {
			return nil, &FormatError{Reason: fmt.Sprintf("record %d is null", i)}
		}
		if d.SchemaVersion == 0 {
			d.SchemaVersion = 1
		}
		if d.SchemaVersion > LocalSchemaVersion {
			return nil, &FormatError{Reason: fmt.Sprintf("record %d has unsupported schema version %d", i, d.SchemaVersion)}
		}
		if d.ID != "" {
			if first, dup := seen[d.ID]; dup {
				return nil, &FormatError{Reason: fmt.Sprintf("record %d repeats id %q from record %d", i, d.ID, first)}
			}
			seen[d.ID] = i
		}
		d.Normalize()
	}
	if drafts == nil {
		drafts = []*LocalBuild{}
	}
	return drafts, nil
}
