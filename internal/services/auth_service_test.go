package services_test

import (
	"fmt"
	"testing"
	"time"

	"ratehub/internal/models"
	"ratehub/internal/repositories"
	"ratehub/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetAll(filters repositories.UserFilters) ([]models.User, error) {
	args := m.Called(filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) GetByRole(role models.Role) ([]models.User, error) {
	args := m.Called(role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(id string, hashedPassword string) error {
	args := m.Called(id, hashedPassword)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateStoreID(id string, storeID string) error {
	args := m.Called(id, storeID)
	return args.Error(0)
}

func (m *MockUserRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

const testJWTSecret = "test_jwt_secret"

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	// Successful registration: email is stored lower-cased, the password is
	// stored as a hash and the role defaults to user.
	mockRepo.On("GetByEmail", "newuser@example.com").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		user := args.Get(0).(*models.User)
		assert.Equal(t, "newuser@example.com", user.Email)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.NotEqual(t, "Sup3rSecret!", user.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Sup3rSecret!")))
	}).Return(nil).Once()

	user, err := authService.Register("A Person With A Long Name", "NewUser@Example.com", "Sup3rSecret!", "1 Main Street")
	assert.NoError(t, err)
	assert.NotNil(t, user)
	mockRepo.AssertExpectations(t)

	// Email already registered: nothing is created, so the password is never
	// persisted anywhere.
	mockRepo.On("GetByEmail", "taken@example.com").Return(&models.User{ID: "1"}, nil).Once()
	_, err = authService.Register("Another Person With A Long Name", "taken@example.com", "Sup3rSecret!", "")
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	mockRepo.AssertNotCalled(t, "Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "taken@example.com"
	}))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("Sup3rSecret!"), bcrypt.DefaultCost)
	storeID := "store-456"
	user := &models.User{
		ID:       "user-123",
		Name:     "A Store Owner With A Long Name",
		Email:    "owner@example.com",
		Password: string(hashedPassword),
		Role:     models.RoleStoreOwner,
		StoreID:  &storeID,
	}

	// Successful login issues a token carrying identity, canonical role and
	// the owned store.
	mockRepo.On("GetByEmail", "owner@example.com").Return(user, nil).Once()
	token, loggedIn, err := authService.Login("Owner@Example.com", "Sup3rSecret!")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, "store_owner", claims["role"])
	assert.Equal(t, "store-456", claims["store_id"])
	mockRepo.AssertExpectations(t)

	// Wrong password: the generic error, identical to the unknown-email case.
	mockRepo.On("GetByEmail", "owner@example.com").Return(user, nil).Once()
	_, _, err = authService.Login("owner@example.com", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Unknown email: same error, so callers cannot probe for registered emails.
	mockRepo.On("GetByEmail", "ghost@example.com").Return(nil, fmt.Errorf("not found")).Once()
	_, _, err = authService.Login("ghost@example.com", "Sup3rSecret!")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_TokenRoleIsAlwaysCanonical(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	// A legacy row with an uppercase role must still produce a lowercase
	// role claim.
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("Sup3rSecret!"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-legacy",
		Email:    "legacy@example.com",
		Password: string(hashedPassword),
		Role:     models.Role("ADMIN"),
	}
	mockRepo.On("GetByEmail", "legacy@example.com").Return(user, nil).Once()

	token, _, err := authService.Login("legacy@example.com", "Sup3rSecret!")
	assert.NoError(t, err)

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "admin", claims["role"])
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ChangePassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("OldSecret1!"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-123", Email: "user@example.com", Password: string(hashedPassword)}

	// Wrong current password is rejected without touching the stored hash.
	mockRepo.On("GetByID", "user-123").Return(user, nil).Once()
	err := authService.ChangePassword("user-123", "NotTheOldOne1!", "NewSecret1!")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)

	// Correct current password replaces the hash with a hash of the new one.
	mockRepo.On("GetByID", "user-123").Return(user, nil).Once()
	mockRepo.On("UpdatePassword", "user-123", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("NewSecret1!")) == nil
	})).Return(nil).Once()
	err = authService.ChangePassword("user-123", "OldSecret1!", "NewSecret1!")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Unknown user.
	mockRepo.On("GetByID", "missing").Return(nil, fmt.Errorf("not found")).Once()
	err = authService.ChangePassword("missing", "OldSecret1!", "NewSecret1!")
	assert.ErrorIs(t, err, services.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	// Valid token.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	claims, err := authService.ValidateToken(validTokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, "user", claims["role"])

	// Garbage token.
	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)

	// Expired token.
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"role":    "user",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.Error(t, err)

	// Wrong secret.
	foreignToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	foreignTokenString, _ := foreignToken.SignedString([]byte("some_other_secret"))
	_, err = authService.ValidateToken(foreignTokenString)
	assert.Error(t, err)
}
