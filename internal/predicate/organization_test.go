package predicate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/billing/internal/model"
)

type mockFlags struct {
	mock.Mock
}

func (m *mockFlags) Enabled(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockSubscriptions struct {
	mock.Mock
}

func (m *mockSubscriptions) HasActiveSubscription(ctx context.Context, organizationID string) (bool, error) {
	args := m.Called(ctx, organizationID)
	return args.Bool(0), args.Error(1)
}

func orgRequest(org *model.Organization) *http.Request {
	r := httptest.NewRequest("GET", "/api/organizations/example", nil)
	if org == nil {
		return r
	}
	return r.WithContext(WithOrganization(r.Context(), org))
}

func TestActiveOrganization_Text(t *testing.T) {
	assert.Equal(t, "require_active_organization = true", NewActiveOrganization(true, nil, nil).Text())
	assert.Equal(t, "require_active_organization = false", NewActiveOrganization(false, nil, nil).Text())
}

func TestActiveOrganization_NotRequired(t *testing.T) {
	flags := new(mockFlags)
	p := NewActiveOrganization(false, flags, new(mockSubscriptions))

	ok, err := p.Match(orgRequest(&model.Organization{IsActive: false}))

	require.NoError(t, err)
	assert.True(t, ok)
	flags.AssertNotCalled(t, "Enabled", mock.Anything, mock.Anything)
}

func TestActiveOrganization_Match(t *testing.T) {
	tests := []struct {
		name          string
		disabled      bool
		org           model.Organization
		hasSubscriber *bool
		match         bool
	}{
		{
			name:  "active community",
			org:   model.Organization{ID: "o1", IsActive: true, OrgType: model.OrganizationTypeCommunity},
			match: true,
		},
		{
			name:     "organizations disabled",
			disabled: true,
			org:      model.Organization{ID: "o1", IsActive: true, OrgType: model.OrganizationTypeCommunity},
			match:    false,
		},
		{
			name:  "inactive organization",
			org:   model.Organization{ID: "o1", IsActive: false, OrgType: model.OrganizationTypeCommunity},
			match: false,
		},
		{
			name:          "company with subscription",
			org:           model.Organization{ID: "o1", IsActive: true, OrgType: model.OrganizationTypeCompany},
			hasSubscriber: boolPtr(true),
			match:         true,
		},
		{
			name:          "company without subscription",
			org:           model.Organization{ID: "o1", IsActive: true, OrgType: model.OrganizationTypeCompany},
			hasSubscriber: boolPtr(false),
			match:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := new(mockFlags)
			flags.On("Enabled", mock.Anything, model.FlagDisableOrganizations).Return(tt.disabled, nil)
			subs := new(mockSubscriptions)
			if tt.hasSubscriber != nil {
				subs.On("HasActiveSubscription", mock.Anything, tt.org.ID).Return(*tt.hasSubscriber, nil)
			}

			org := tt.org
			ok, err := NewActiveOrganization(true, flags, subs).Match(orgRequest(&org))

			require.NoError(t, err)
			assert.Equal(t, tt.match, ok)
			subs.AssertExpectations(t)
			if tt.hasSubscriber == nil {
				subs.AssertNotCalled(t, "HasActiveSubscription", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestActiveOrganization_NoOrganization(t *testing.T) {
	flags := new(mockFlags)

	ok, err := NewActiveOrganization(true, flags, new(mockSubscriptions)).Match(orgRequest(nil))

	require.NoError(t, err)
	assert.False(t, ok)
	flags.AssertNotCalled(t, "Enabled", mock.Anything, mock.Anything)
}

func TestActiveOrganization_FlagError(t *testing.T) {
	flags := new(mockFlags)
	dbErr := errors.New("connection refused")
	flags.On("Enabled", mock.Anything, model.FlagDisableOrganizations).Return(false, dbErr)

	ok, err := NewActiveOrganization(true, flags, new(mockSubscriptions)).
		Match(orgRequest(&model.Organization{ID: "o1", IsActive: true}))

	assert.ErrorIs(t, err, dbErr)
	assert.False(t, ok)
}

func boolPtr(b bool) *bool { return &b }
