package services

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"ratehub/internal/models"
	"ratehub/internal/repositories"
	"ratehub/pkg/rabbitmq"
)

// DirectoryService handles CRUD over user and store records, listing
// projections and the store-owner linkage invariant.
type DirectoryService struct {
	storeRepo    repositories.StoreRepository
	userRepo     repositories.UserRepository
	ratingRepo   repositories.RatingRepository
	mqClient     *rabbitmq.Client
	requireOwner bool
}

// NewDirectoryService creates a new DirectoryService. requireOwner decides
// whether store creation without owner credentials is rejected; both
// behaviors are valid deployments.
func NewDirectoryService(storeRepo repositories.StoreRepository, userRepo repositories.UserRepository, ratingRepo repositories.RatingRepository, mqClient *rabbitmq.Client, requireOwner bool) *DirectoryService {
	return &DirectoryService{
		storeRepo:    storeRepo,
		userRepo:     userRepo,
		ratingRepo:   ratingRepo,
		mqClient:     mqClient,
		requireOwner: requireOwner,
	}
}

// CreateStoreInput carries the store fields plus optional owner credentials.
type CreateStoreInput struct {
	Name          string
	Email         string
	Address       string
	OwnerName     string // defaults to the store name when empty
	OwnerEmail    string
	OwnerPassword string
}

// CreateStore creates a store and, when owner credentials are supplied, the
// owner account linked to it. Store and owner are written in one transaction:
// afterwards either both exist fully linked or neither does.
func (s *DirectoryService) CreateStore(input CreateStoreInput) (*models.Store, *models.User, error) {
	email := strings.ToLower(input.Email)
	ownerEmail := strings.ToLower(input.OwnerEmail)

	if existing, err := s.storeRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, nil, fmt.Errorf("store email %q: %w", email, ErrEmailTaken)
	}

	if ownerEmail == "" {
		if s.requireOwner {
			return nil, nil, fmt.Errorf("owner credentials are required: %w", ErrInvalidInput)
		}
		store := &models.Store{Name: input.Name, Email: email, Address: input.Address}
		if err := s.storeRepo.Create(store); err != nil {
			return nil, nil, fmt.Errorf("failed to create store: %w", err)
		}
		publishEvent(s.mqClient, "store.created", map[string]interface{}{
			"storeID": store.ID,
			"name":    store.Name,
		})
		return store, nil, nil
	}

	if ownerEmail == email {
		return nil, nil, fmt.Errorf("store email and owner email must be different: %w", ErrInvalidInput)
	}
	if existing, err := s.userRepo.GetByEmail(ownerEmail); err == nil && existing != nil {
		return nil, nil, fmt.Errorf("owner email %q: %w", ownerEmail, ErrEmailTaken)
	}

	hashed, err := hashPassword(input.OwnerPassword)
	if err != nil {
		return nil, nil, err
	}

	ownerName := input.OwnerName
	if ownerName == "" {
		ownerName = input.Name
	}
	store := &models.Store{Name: input.Name, Email: email, Address: input.Address}
	owner := &models.User{
		Name:     ownerName,
		Email:    ownerEmail,
		Password: hashed,
		Address:  input.Address,
		Role:     models.RoleStoreOwner,
	}
	if err := s.storeRepo.CreateWithOwner(store, owner); err != nil {
		return nil, nil, fmt.Errorf("failed to create store with owner: %w", err)
	}

	publishEvent(s.mqClient, "store.created", map[string]interface{}{
		"storeID": store.ID,
		"name":    store.Name,
		"ownerID": owner.ID,
	})
	return store, owner, nil
}

// ListStores returns stores matching the filters, each annotated with its
// average rating and, when viewerID is set, the viewer's own rating. Rating
// order cannot be pushed to the database (aggregates are computed on read),
// so it is applied here after annotation.
func (s *DirectoryService) ListStores(filters repositories.StoreFilters, sortBy repositories.StoreSort, viewerID string) ([]models.StoreListing, error) {
	stores, err := s.storeRepo.GetAll(filters, sortBy)
	if err != nil {
		return nil, err
	}

	aggregates, err := s.ratingRepo.AggregatesByStore()
	if err != nil {
		return nil, err
	}

	var viewerRatings map[string]int
	if viewerID != "" {
		viewerRatings, err = s.ratingRepo.ByUser(viewerID)
		if err != nil {
			return nil, err
		}
	}

	listings := make([]models.StoreListing, 0, len(stores))
	for _, store := range stores {
		listing := models.StoreListing{Store: store}
		if agg, ok := aggregates[store.ID]; ok {
			listing.AverageRating = roundToOneDecimal(agg.Average)
			listing.TotalRatings = agg.Total
		}
		if viewerRatings != nil {
			if value, ok := viewerRatings[store.ID]; ok {
				v := value
				listing.UserRating = &v
			}
		}
		listings = append(listings, listing)
	}

	if sortBy.Field == "rating" {
		desc := strings.EqualFold(sortBy.Order, "desc")
		sort.SliceStable(listings, func(i, j int) bool {
			if desc {
				return listings[i].AverageRating > listings[j].AverageRating
			}
			return listings[i].AverageRating < listings[j].AverageRating
		})
	}
	return listings, nil
}

// GetStore retrieves a single store.
func (s *DirectoryService) GetStore(id string) (*models.Store, error) {
	store, err := s.storeRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", id, ErrNotFound)
	}
	return store, nil
}

// CreateUserInput carries the admin-created account fields plus optional
// store fields for store_owner accounts.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     string

	// Store fields, used only when Role is store_owner: when present the
	// owner's store is created and linked in the same flow as CreateStore.
	StoreName    string
	StoreEmail   string
	StoreAddress string
}

// CreateUser creates an account with any role. A store_owner account with
// store fields goes through the transactional store-and-link flow; without
// them the account is created unlinked (the repair sweep can link it later).
func (s *DirectoryService) CreateUser(input CreateUserInput) (*models.User, error) {
	email := strings.ToLower(input.Email)
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("email %q: %w", email, ErrEmailTaken)
	}

	role := models.NormalizeRole(input.Role)
	if role == models.RoleStoreOwner && input.StoreEmail != "" {
		_, owner, err := s.CreateStore(CreateStoreInput{
			Name:          input.StoreName,
			Email:         input.StoreEmail,
			Address:       input.StoreAddress,
			OwnerName:     input.Name,
			OwnerEmail:    email,
			OwnerPassword: input.Password,
		})
		if err != nil {
			return nil, err
		}
		return owner, nil
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     input.Name,
		Email:    email,
		Password: hashed,
		Address:  input.Address,
		Role:     role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UserListing is a User annotated with their store's average rating, present
// only for store owners with a linked store.
type UserListing struct {
	models.User
	StoreRating *float64 `json:"storeRating,omitempty"`
}

// ListUsers returns users matching the filters. Store-owner rows carry their
// store's average rating.
func (s *DirectoryService) ListUsers(filters repositories.UserFilters) ([]UserListing, error) {
	users, err := s.userRepo.GetAll(filters)
	if err != nil {
		return nil, err
	}

	aggregates, err := s.ratingRepo.AggregatesByStore()
	if err != nil {
		return nil, err
	}

	listings := make([]UserListing, 0, len(users))
	for _, user := range users {
		listing := UserListing{User: user}
		if user.Role == models.RoleStoreOwner && user.StoreID != nil {
			rating := 0.0
			if agg, ok := aggregates[*user.StoreID]; ok {
				rating = roundToOneDecimal(agg.Average)
			}
			listing.StoreRating = &rating
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// GetUser retrieves a single user.
func (s *DirectoryService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, nil
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalStores  int64 `json:"totalStores"`
	TotalRatings int64 `json:"totalRatings"`
}

// GetDashboardStats returns platform-wide totals.
func (s *DirectoryService) GetDashboardStats() (*DashboardStats, error) {
	totalUsers, err := s.userRepo.Count()
	if err != nil {
		return nil, err
	}
	totalStores, err := s.storeRepo.Count()
	if err != nil {
		return nil, err
	}
	totalRatings, err := s.ratingRepo.Count()
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalUsers:   totalUsers,
		TotalStores:  totalStores,
		TotalRatings: totalRatings,
	}, nil
}

// RepairReport summarizes one pass of the linkage repair sweep.
type RepairReport struct {
	Examined int      `json:"examined"`
	Fixed    int      `json:"fixed"`
	Broken   []string `json:"broken,omitempty"`
}

// RepairStoreLinks walks every store_owner account and backfills whichever
// side of the store link is missing. The sweep is idempotent and never
// deletes a record; pairings it cannot resolve are reported, not touched.
func (s *DirectoryService) RepairStoreLinks() (*RepairReport, error) {
	owners, err := s.userRepo.GetByRole(models.RoleStoreOwner)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{}
	for _, owner := range owners {
		report.Examined++

		store, storeErr := s.storeRepo.GetByOwnerID(owner.ID)
		switch {
		case storeErr == nil && owner.StoreID == nil:
			// Store points at the owner, owner side missing.
			if err := s.userRepo.UpdateStoreID(owner.ID, store.ID); err != nil {
				return nil, fmt.Errorf("failed to backfill store link for user %s: %w", owner.ID, err)
			}
			log.Printf("Repaired store link: user %s -> store %s", owner.ID, store.ID)
			report.Fixed++

		case storeErr == nil && *owner.StoreID != store.ID:
			// Both sides set but disagreeing. Surfaced for the operator.
			report.Broken = append(report.Broken, fmt.Sprintf("user %s references store %s but store %s references the user", owner.ID, *owner.StoreID, store.ID))

		case storeErr != nil && owner.StoreID != nil:
			// Owner points at a store that does not point back.
			target, err := s.storeRepo.GetByID(*owner.StoreID)
			if err != nil {
				report.Broken = append(report.Broken, fmt.Sprintf("user %s references missing store %s", owner.ID, *owner.StoreID))
				continue
			}
			if target.OwnerID == nil {
				if err := s.storeRepo.SetOwner(target.ID, owner.ID); err != nil {
					return nil, fmt.Errorf("failed to backfill owner link for store %s: %w", target.ID, err)
				}
				log.Printf("Repaired owner link: store %s -> user %s", target.ID, owner.ID)
				report.Fixed++
			} else if *target.OwnerID != owner.ID {
				report.Broken = append(report.Broken, fmt.Sprintf("user %s references store %s which is owned by user %s", owner.ID, target.ID, *target.OwnerID))
			}

		case storeErr != nil && owner.StoreID == nil:
			report.Broken = append(report.Broken, fmt.Sprintf("store_owner %s has no store", owner.ID))
		}
	}
	return report, nil
}
