package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	displayName string
	password    string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		displayName: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password:    "testpassword123",
	}
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		DisplayName:  b.displayName,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate creates a user via API and returns the user and access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	reqBody := map[string]string{
		"displayName": b.displayName,
		"password":    b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:          userID,
		DisplayName: authResp.User.DisplayName,
	}

	return user, authResp.AccessToken
}

// BuildBuilder creates builds directly in the document store
type BuildBuilder struct {
	owner   *domain.User
	content domain.BuildContent
	votes   int
	views   int
	created time.Time
}

// NewBuildBuilder returns a public Tabethe build owned by owner with a
// prime mod and one regular mod.
func NewBuildBuilder(owner *domain.User) *BuildBuilder {
	return &BuildBuilder{
		owner: owner,
		content: domain.BuildContent{
			BuildName:  fmt.Sprintf("build_%s", uuid.New().String()[:8]),
			Visibility: domain.VisibilityPublic,
			ItemType:   domain.ItemTypeCharacter,
			ItemID:     "tabethe",
			ItemName:   "Tabethe",
			Mods:       datatypes.JSONSlice[string]{"Crown of Cinders", "Blazing Fury"},
		},
		created: time.Now(),
	}
}

// WithName sets the build name
func (b *BuildBuilder) WithName(name string) *BuildBuilder {
	b.content.BuildName = name
	return b
}

// WithDescription sets the description
func (b *BuildBuilder) WithDescription(desc string) *BuildBuilder {
	b.content.Description = desc
	return b
}

// WithVisibility sets the visibility
func (b *BuildBuilder) WithVisibility(v domain.Visibility) *BuildBuilder {
	b.content.Visibility = v
	return b
}

// WithItem sets the subject of the build
func (b *BuildBuilder) WithItem(itemType domain.ItemType, id, name string) *BuildBuilder {
	b.content.ItemType = itemType
	b.content.ItemID = id
	b.content.ItemName = name
	return b
}

// WithMods replaces the equipped mods
func (b *BuildBuilder) WithMods(mods ...string) *BuildBuilder {
	b.content.Mods = mods
	return b
}

// WithVotes seeds the vote counter with that many synthetic voters
func (b *BuildBuilder) WithVotes(n int) *BuildBuilder {
	b.votes = n
	return b
}

// WithViews seeds the view counter
func (b *BuildBuilder) WithViews(n int) *BuildBuilder {
	b.views = n
	return b
}

// CreatedAt overrides the creation time
func (b *BuildBuilder) CreatedAt(at time.Time) *BuildBuilder {
	b.created = at
	return b
}

// Build inserts the build, creating an owner if none was given
func (b *BuildBuilder) Build(t *testing.T, db *gorm.DB) *domain.Build {
	t.Helper()

	if b.owner == nil {
		b.owner, _ = NewUserBuilder().Build(t, db)
	}

	build := domain.NewBuild(b.owner.ID, b.owner.DisplayName, b.content)
	for i := 0; i < b.votes; i++ {
		build.VotedBy = append(build.VotedBy, uuid.New().String())
	}
	build.VoteCount = b.votes
	build.Views = b.views
	build.CreatedAt = b.created
	build.UpdatedAt = b.created

	if err := db.Create(build).Error; err != nil {
		t.Fatalf("failed to create build: %v", err)
	}
	return build
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
