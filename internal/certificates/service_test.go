package certificates

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/certhq/certify/pkg/common"
)

// ===== Mock Implementations =====

// MockRepository is a mock implementation of CertificateRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, cert *Certificate) error {
	args := m.Called(ctx, cert)
	return args.Error(0)
}

func (m *MockRepository) GetByCertificateID(ctx context.Context, certificateID string) (*Certificate, error) {
	args := m.Called(ctx, certificateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Certificate), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Certificate), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, limit, offset int) ([]*Certificate, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Certificate), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Revoke(ctx context.Context, certificateID, reason string) error {
	args := m.Called(ctx, certificateID, reason)
	return args.Error(0)
}

func (m *MockRepository) ListSearchCandidates(ctx context.Context, limit int) ([]*SearchCandidate, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SearchCandidate), args.Error(1)
}

// ===== Helpers =====

func validCreateRequest() *CreateRequest {
	return &CreateRequest{
		HolderName:  "Alice Johnson",
		HolderEmail: "alice@example.com",
		Category:    "backend",
	}
}

// ===== Create =====

func TestCreate_GeneratesIdentifier(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByCertificateID", mock.Anything, mock.Anything).Return(nil, ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo)

	cert, err := svc.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^CF-\d{4}-[23456789ABCDEFGHJKLMNPQRSTUVWXYZ]{6}$`), cert.CertificateID)
	assert.Equal(t, StatusActive, cert.Status)
	assert.Equal(t, RiskNone, cert.RiskLevel)
}

func TestCreate_UsesSuppliedIdentifier(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByCertificateID", mock.Anything, "CF-2026-CUSTOM").Return(nil, ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo)

	req := validCreateRequest()
	req.CertificateID = "CF-2026-CUSTOM"

	cert, err := svc.Create(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "CF-2026-CUSTOM", cert.CertificateID)
}

func TestCreate_DuplicateIdentifierConflicts(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByCertificateID", mock.Anything, "CF-2026-CUSTOM").Return(&Certificate{CertificateID: "CF-2026-CUSTOM"}, nil)

	svc := NewService(repo)

	req := validCreateRequest()
	req.CertificateID = "CF-2026-CUSTOM"

	_, err := svc.Create(context.Background(), req)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.Status)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_ExpiryBeforeIssueRejected(t *testing.T) {
	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expires := issued.AddDate(0, -1, 0)

	svc := NewService(new(MockRepository))

	req := validCreateRequest()
	req.IssuedAt = &issued
	req.ExpiresAt = &expires

	_, err := svc.Create(context.Background(), req)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

// ===== Get =====

func TestGet_NotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByCertificateID", mock.Anything, "CF-9999-999").Return(nil, ErrNotFound)

	svc := NewService(repo)

	_, err := svc.Get(context.Background(), "CF-9999-999")

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Status)
}

func TestGet_StoreUnavailable(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByCertificateID", mock.Anything, "CF-2024-001").Return(nil, errors.New("connection refused"))

	svc := NewService(repo)

	_, err := svc.Get(context.Background(), "CF-2024-001")

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 503, appErr.Status)
}

// ===== Revoke =====

func TestRevoke(t *testing.T) {
	revoked := &Certificate{CertificateID: "CF-2024-001", Status: StatusRevoked, RevokeReason: "issued in error"}

	repo := new(MockRepository)
	repo.On("Revoke", mock.Anything, "CF-2024-001", "issued in error").Return(nil)
	repo.On("GetByCertificateID", mock.Anything, "CF-2024-001").Return(revoked, nil)

	svc := NewService(repo)

	cert, err := svc.Revoke(context.Background(), "CF-2024-001", "issued in error")

	require.NoError(t, err)
	assert.Equal(t, StatusRevoked, cert.Status)
	repo.AssertExpectations(t)
}

func TestRevoke_AlreadyRevoked(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Revoke", mock.Anything, "CF-2024-001", "dup").Return(ErrNotFound)

	svc := NewService(repo)

	_, err := svc.Revoke(context.Background(), "CF-2024-001", "dup")

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Status)
}

// ===== IsExpired =====

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name      string
		expiresAt *time.Time
		expected  bool
	}{
		{name: "no expiry never expires", expiresAt: nil, expected: false},
		{name: "past expiry", expiresAt: &past, expected: true},
		{name: "future expiry", expiresAt: &future, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert := &Certificate{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, cert.IsExpired(now))
		})
	}
}
