package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/services"
)

// --- Service Mocks ---

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, username, password, name, phone string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, username, password, name, phone, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) FindByID(ctx context.Context, userID uint) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) ProvisionGuest(ctx context.Context, name, phone string) (*models.User, string, error) {
	args := m.Called(ctx, name, phone)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, input services.CreateBookingInput) (*models.Booking, *services.GuestCredentials, error) {
	args := m.Called(ctx, input)
	var booking *models.Booking
	if args.Get(0) != nil {
		booking = args.Get(0).(*models.Booking)
	}
	var creds *services.GuestCredentials
	if args.Get(1) != nil {
		creds = args.Get(1).(*services.GuestCredentials)
	}
	return booking, creds, args.Error(2)
}

func (m *MockBookingService) ListForUser(ctx context.Context, user *models.User) ([]models.Booking, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) ListAll(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) Confirm(ctx context.Context, id uint, staff *models.User) (*models.Booking, error) {
	args := m.Called(ctx, id, staff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) Reject(ctx context.Context, id uint, reason string) (*models.Booking, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, id uint) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) CheckStatus(ctx context.Context, bookingNumber, phone string) (*models.Booking, error) {
	args := m.Called(ctx, bookingNumber, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

type MockHousingService struct {
	mock.Mock
}

func (m *MockHousingService) ListHousings(ctx context.Context) ([]models.Housing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Housing), args.Error(1)
}

func (m *MockHousingService) GetHousing(ctx context.Context, id uint) (*models.Housing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Housing), args.Error(1)
}

func (m *MockHousingService) SetAvailability(ctx context.Context, id uint, availability models.Availability) error {
	args := m.Called(ctx, id, availability)
	return args.Error(0)
}

func (m *MockHousingService) AddImage(ctx context.Context, id uint, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) List(ctx context.Context, bookingID uint, viewerRole models.Role) ([]models.Message, error) {
	args := m.Called(ctx, bookingID, viewerRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageService) Send(ctx context.Context, bookingID uint, sender *models.User, guestName, content string) (*models.Message, error) {
	args := m.Called(ctx, bookingID, sender, guestName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// --- Infra Mocks ---

type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, housingID uint, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, housingID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
