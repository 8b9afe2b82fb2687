package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agentic-hr/backend/internal/config"
	"agentic-hr/backend/internal/repository"
	"agentic-hr/backend/pkg/models"

	"github.com/coreos/go-oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

// MockKeySet satisfies oidc.KeySet to bypass signature verification
type MockKeySet struct{}

func (m *MockKeySet) VerifySignature(ctx context.Context, jwtToken string) ([]byte, error) {
	parts := strings.Split(jwtToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed jwt")
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}

// MockStore satisfies repository.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetOrganizationByDomain(ctx context.Context, domain string) (*models.Organization, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

// Stubs for other interface methods to satisfy repository.Store
func (m *MockStore) GetSubscription(ctx context.Context, orgID string) (*models.Subscription, error) {
	return nil, nil
}
func (m *MockStore) UpdateSubscriptionPlan(ctx context.Context, orgID string, plan models.Plan, limits models.PlanLimits) error {
	return nil
}
func (m *MockStore) ConsumeWorkflowRun(ctx context.Context, orgID string) error { return nil }
func (m *MockStore) ReleaseWorkflowRun(ctx context.Context, orgID string) error { return nil }
func (m *MockStore) CreateJob(ctx context.Context, job *models.Job) error       { return nil }
func (m *MockStore) GetJob(ctx context.Context, orgID, id string) (*models.Job, error) {
	return nil, nil
}
func (m *MockStore) ListJobs(ctx context.Context, orgID string) ([]*models.Job, error) {
	return nil, nil
}
func (m *MockStore) CreateWorkflow(ctx context.Context, wf *models.Workflow) error { return nil }
func (m *MockStore) GetWorkflow(ctx context.Context, orgID, id string) (*models.Workflow, error) {
	return nil, nil
}
func (m *MockStore) ListWorkflows(ctx context.Context, orgID string) ([]*models.Workflow, error) {
	return nil, nil
}
func (m *MockStore) UpdateWorkflow(ctx context.Context, wf *models.Workflow) error { return nil }
func (m *MockStore) DeleteWorkflow(ctx context.Context, orgID, id string) error    { return nil }
func (m *MockStore) Ping(ctx context.Context) error                                { return nil }

func makeFakeToken(issuer, clientID, email string) string {
	claims := map[string]interface{}{
		"iss":   issuer,
		"aud":   clientID,
		"sub":   "test-user",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Add(-1 * time.Minute).Unix(),
		"email": email,
	}
	headerData := map[string]interface{}{
		"alg": "RS256",
		"typ": "JWT",
		"kid": "test-key",
	}
	headerBytes, _ := json.Marshal(headerData)
	payload, _ := json.Marshal(claims)
	return base64.RawURLEncoding.EncodeToString(headerBytes) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("fakesignature"))
}

func TestRequireAuth_BearerToken_ExtractsOrganization(t *testing.T) {
	mockStore := new(MockStore)
	expectedOrg := &models.Organization{
		ID:     "org-123",
		Name:   "acme.com",
		Domain: "acme.com",
	}
	mockStore.On("GetOrganizationByDomain", mock.Anything, "acme.com").Return(expectedOrg, nil)

	issuer := "https://test-issuer.com"
	clientID := "test-client"
	fakeToken := makeFakeToken(issuer, clientID, "user@acme.com")

	verifier := oidc.NewVerifier(issuer, &MockKeySet{}, &oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: true, // Matches logic in auth.go for apiVerifier
	})

	a := &Auth{
		apiVerifier: verifier, // We are testing Bearer token flow
		store:       mockStore,
	}

	req := httptest.NewRequest("GET", "/api/v1/workflows", nil)
	req.Header.Set("Authorization", "Bearer "+fakeToken)
	rec := httptest.NewRecorder()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := r.Context().Value(OrgIDKey).(string)
		assert.True(t, ok, "org_id should be in context")
		assert.Equal(t, "org-123", orgID)
		w.WriteHeader(http.StatusOK)
	})

	a.RequireAuth(nextHandler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Logf("Response Body: %s", rec.Body.String())
	}
	assert.Equal(t, http.StatusOK, rec.Code)
	mockStore.AssertExpectations(t)
}

func TestRequireAuth_BypassMode(t *testing.T) {
	mockStore := new(MockStore)
	// Expect organization lookup for "localhost" (from dev@localhost)
	mockStore.On("GetOrganizationByDomain", mock.Anything, "localhost").Return(nil, repository.ErrNotFound)
	mockStore.On("CreateOrganization", mock.Anything, mock.MatchedBy(func(org *models.Organization) bool {
		return org.Domain == "localhost"
	})).Run(func(args mock.Arguments) {
		argOrg := args.Get(1).(*models.Organization)
		argOrg.ID = "dev-org-id"
	}).Return(nil)
	mockStore.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub *models.Subscription) bool {
		return sub.OrganizationID == "dev-org-id" && sub.Plan == models.PlanFree
	})).Return(nil)

	cfg := &config.Config{
		Environment:   "DEV",
		DevModeBypass: true,
	}
	a, err := New(context.Background(), cfg, mockStore, &NoOpLogger{})
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/workflows", nil)
	rec := httptest.NewRecorder()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := r.Context().Value(OrgIDKey).(string)
		assert.True(t, ok)
		assert.Equal(t, "dev-org-id", orgID)
		w.WriteHeader(http.StatusOK)
	})

	a.RequireAuth(nextHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockStore.AssertExpectations(t)
}

func TestRequireAuth_AutoProvisionOrganization(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("GetOrganizationByDomain", mock.Anything, "startup.io").Return(nil, repository.ErrNotFound)
	mockStore.On("CreateOrganization", mock.Anything, mock.MatchedBy(func(org *models.Organization) bool {
		return org.Domain == "startup.io" && org.Name == "startup.io"
	})).Run(func(args mock.Arguments) {
		argOrg := args.Get(1).(*models.Organization)
		argOrg.ID = "new-org-id"
	}).Return(nil)
	// The new organization starts on the free plan
	mockStore.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub *models.Subscription) bool {
		return sub.OrganizationID == "new-org-id" &&
			sub.Plan == models.PlanFree &&
			sub.WorkflowsPerMonth == models.Plans[models.PlanFree].WorkflowsPerMonth
	})).Return(nil)

	issuer := "https://test-issuer.com"
	clientID := "test-client"
	fakeToken := makeFakeToken(issuer, clientID, "founder@startup.io")

	verifier := oidc.NewVerifier(issuer, &MockKeySet{}, &oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: true,
	})

	a := &Auth{apiVerifier: verifier, store: mockStore}
	req := httptest.NewRequest("GET", "/api/v1/workflows", nil)
	req.Header.Set("Authorization", "Bearer "+fakeToken)
	rec := httptest.NewRecorder()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, ok := r.Context().Value(OrgIDKey).(string)
		assert.True(t, ok)
		assert.Equal(t, "new-org-id", orgID) // Mock CreateOrganization sets this
		w.WriteHeader(http.StatusOK)
	})

	a.RequireAuth(nextHandler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Logf("Response Body: %s", rec.Body.String())
	}
	assert.Equal(t, http.StatusOK, rec.Code)
	mockStore.AssertExpectations(t)
}
