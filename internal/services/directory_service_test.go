package services_test

import (
	"fmt"
	"testing"

	"ratehub/internal/models"
	"ratehub/internal/repositories"
	"ratehub/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newDirectoryService(requireOwner bool) (*services.DirectoryService, *MockStoreRepository, *MockUserRepository, *MockRatingRepository) {
	mockStores := new(MockStoreRepository)
	mockUsers := new(MockUserRepository)
	mockRatings := new(MockRatingRepository)
	service := services.NewDirectoryService(mockStores, mockUsers, mockRatings, nil, requireOwner)
	return service, mockStores, mockUsers, mockRatings
}

func TestDirectoryService_CreateStore(t *testing.T) {
	service, mockStores, mockUsers, _ := newDirectoryService(false)

	// Store email and owner email must differ; neither record is created.
	mockStores.On("GetByEmail", "same@example.com").Return(nil, fmt.Errorf("not found")).Once()
	_, _, err := service.CreateStore(services.CreateStoreInput{
		Name:          "A Store Name That Is Long Enough",
		Email:         "same@example.com",
		OwnerEmail:    "same@example.com",
		OwnerPassword: "Sup3rSecret!",
	})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	mockStores.AssertNotCalled(t, "Create", mock.Anything)
	mockStores.AssertNotCalled(t, "CreateWithOwner", mock.Anything, mock.Anything)

	// Store email collision.
	mockStores.On("GetByEmail", "taken@example.com").Return(&models.Store{ID: "s1"}, nil).Once()
	_, _, err = service.CreateStore(services.CreateStoreInput{
		Name:  "A Store Name That Is Long Enough",
		Email: "taken@example.com",
	})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	// Owner email collision with an existing user.
	mockStores.On("GetByEmail", "store@example.com").Return(nil, fmt.Errorf("not found")).Once()
	mockUsers.On("GetByEmail", "owner@example.com").Return(&models.User{ID: "u1"}, nil).Once()
	_, _, err = service.CreateStore(services.CreateStoreInput{
		Name:          "A Store Name That Is Long Enough",
		Email:         "store@example.com",
		OwnerEmail:    "owner@example.com",
		OwnerPassword: "Sup3rSecret!",
	})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	// Successful creation with an owner goes through the transactional flow
	// and links both sides; the owner password is stored hashed.
	mockStores.On("GetByEmail", "fresh@example.com").Return(nil, fmt.Errorf("not found")).Once()
	mockUsers.On("GetByEmail", "freshowner@example.com").Return(nil, fmt.Errorf("not found")).Once()
	mockStores.On("CreateWithOwner", mock.AnythingOfType("*models.Store"), mock.MatchedBy(func(owner *models.User) bool {
		return owner.Email == "freshowner@example.com" &&
			owner.Role == models.RoleStoreOwner &&
			bcrypt.CompareHashAndPassword([]byte(owner.Password), []byte("Sup3rSecret!")) == nil
	})).Return(nil).Once()

	store, owner, err := service.CreateStore(services.CreateStoreInput{
		Name:          "A Store Name That Is Long Enough",
		Email:         "Fresh@Example.com",
		Address:       "12 Market Street",
		OwnerEmail:    "FreshOwner@Example.com",
		OwnerPassword: "Sup3rSecret!",
	})
	assert.NoError(t, err)
	assert.Equal(t, "fresh@example.com", store.Email)
	assert.NotNil(t, owner)

	mockStores.AssertExpectations(t)
	mockUsers.AssertExpectations(t)
}

func TestDirectoryService_CreateStoreOwnerRequirement(t *testing.T) {
	// Owner optional: creation without credentials makes an unowned store.
	service, mockStores, _, _ := newDirectoryService(false)
	mockStores.On("GetByEmail", "solo@example.com").Return(nil, fmt.Errorf("not found")).Once()
	mockStores.On("Create", mock.MatchedBy(func(store *models.Store) bool {
		return store.Email == "solo@example.com" && store.OwnerID == nil
	})).Return(nil).Once()

	store, owner, err := service.CreateStore(services.CreateStoreInput{
		Name:  "A Store Name That Is Long Enough",
		Email: "solo@example.com",
	})
	assert.NoError(t, err)
	assert.Nil(t, owner)
	assert.Nil(t, store.OwnerID)
	mockStores.AssertExpectations(t)

	// Owner required: the same request is rejected.
	strictService, strictStores, _, _ := newDirectoryService(true)
	strictStores.On("GetByEmail", "solo@example.com").Return(nil, fmt.Errorf("not found")).Once()
	_, _, err = strictService.CreateStore(services.CreateStoreInput{
		Name:  "A Store Name That Is Long Enough",
		Email: "solo@example.com",
	})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	strictStores.AssertNotCalled(t, "Create", mock.Anything)
}

func TestDirectoryService_ListStores(t *testing.T) {
	service, mockStores, _, mockRatings := newDirectoryService(false)

	stores := []models.Store{
		{ID: "s1", Name: "Alpha Grocery And General Goods"},
		{ID: "s2", Name: "Beta Grocery And General Goods"},
		{ID: "s3", Name: "Gamma Grocery And General Goods"},
	}
	filters := repositories.StoreFilters{}
	sortBy := repositories.StoreSort{Field: "rating", Order: "desc"}

	mockStores.On("GetAll", filters, sortBy).Return(stores, nil).Once()
	mockRatings.On("AggregatesByStore").Return(map[string]repositories.StoreAggregate{
		"s1": {Average: 3.25, Total: 4},
		"s3": {Average: 4.5, Total: 2},
	}, nil).Once()
	mockRatings.On("ByUser", "viewer-1").Return(map[string]int{"s1": 4}, nil).Once()

	listings, err := service.ListStores(filters, sortBy, "viewer-1")
	assert.NoError(t, err)
	assert.Len(t, listings, 3)

	// Rating sort descending: s3 (4.5), s1 (3.3), s2 (0).
	assert.Equal(t, "s3", listings[0].ID)
	assert.Equal(t, 4.5, listings[0].AverageRating)
	assert.Equal(t, "s1", listings[1].ID)
	assert.Equal(t, 3.3, listings[1].AverageRating) // rounded to one decimal
	assert.Equal(t, "s2", listings[2].ID)
	assert.Equal(t, 0.0, listings[2].AverageRating)

	// Viewer's own rating rides along only where it exists.
	assert.Nil(t, listings[0].UserRating)
	assert.NotNil(t, listings[1].UserRating)
	assert.Equal(t, 4, *listings[1].UserRating)

	mockStores.AssertExpectations(t)
	mockRatings.AssertExpectations(t)
}

func TestDirectoryService_RepairStoreLinks(t *testing.T) {
	service, mockStores, mockUsers, _ := newDirectoryService(false)

	linkedStoreID := "store-linked"
	danglingStoreID := "store-dangling"
	owners := []models.User{
		{ID: "owner-missing-link", Role: models.RoleStoreOwner},                           // store points at them, user side empty
		{ID: "owner-ok", Role: models.RoleStoreOwner, StoreID: &linkedStoreID},            // fully linked
		{ID: "owner-dangling", Role: models.RoleStoreOwner, StoreID: &danglingStoreID},    // user points at store, store side empty
		{ID: "owner-stranded", Role: models.RoleStoreOwner},                               // no store at all
	}
	mockUsers.On("GetByRole", models.RoleStoreOwner).Return(owners, nil).Once()

	mockStores.On("GetByOwnerID", "owner-missing-link").Return(&models.Store{ID: "store-a"}, nil).Once()
	mockUsers.On("UpdateStoreID", "owner-missing-link", "store-a").Return(nil).Once()

	ownerOK := "owner-ok"
	mockStores.On("GetByOwnerID", "owner-ok").Return(&models.Store{ID: linkedStoreID, OwnerID: &ownerOK}, nil).Once()

	mockStores.On("GetByOwnerID", "owner-dangling").Return(nil, fmt.Errorf("not found")).Once()
	mockStores.On("GetByID", danglingStoreID).Return(&models.Store{ID: danglingStoreID}, nil).Once()
	mockStores.On("SetOwner", danglingStoreID, "owner-dangling").Return(nil).Once()

	mockStores.On("GetByOwnerID", "owner-stranded").Return(nil, fmt.Errorf("not found")).Once()

	report, err := service.RepairStoreLinks()
	assert.NoError(t, err)
	assert.Equal(t, 4, report.Examined)
	assert.Equal(t, 2, report.Fixed)
	assert.Len(t, report.Broken, 1)

	mockStores.AssertExpectations(t)
	mockUsers.AssertExpectations(t)
}

func TestDirectoryService_GetDashboardStats(t *testing.T) {
	service, mockStores, mockUsers, mockRatings := newDirectoryService(false)

	mockUsers.On("Count").Return(int64(12), nil).Once()
	mockStores.On("Count").Return(int64(3), nil).Once()
	mockRatings.On("Count").Return(int64(40), nil).Once()

	stats, err := service.GetDashboardStats()
	assert.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.TotalStores)
	assert.Equal(t, int64(40), stats.TotalRatings)

	mockUsers.AssertExpectations(t)
	mockStores.AssertExpectations(t)
	mockRatings.AssertExpectations(t)
}
