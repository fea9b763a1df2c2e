package auth

import (
	"errors"
	"log"

	"taqsit/internal/config"
	"taqsit/internal/models"
	"taqsit/internal/repositories"
	"taqsit/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

// Service errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrDuplicateAccount   = errors.New("an account with these details already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// RegisterCustomerInput is a new customer signup.
type RegisterCustomerInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
	Address    string `json:"address"`
	City       string `json:"city"`
}

// RegisterMerchantInput is a new merchant signup.
type RegisterMerchantInput struct {
	Email                  string `json:"email"`
	Password               string `json:"password"`
	FullName               string `json:"full_name"`
	Phone                  string `json:"phone"`
	BusinessName           string `json:"business_name"`
	CommercialRegistration string `json:"commercial_registration"`
	TaxNumber              string `json:"tax_number"`
	BusinessCategory       string `json:"business_category"`
	BankName               string `json:"bank_name"`
	IBAN                   string `json:"iban"`
	BusinessAddress        string `json:"business_address"`
	City                   string `json:"city"`
}

// Service handles signup, login and token lifecycle. New accounts are
// created inactive; an admin approves them before they can transact.
type Service interface {
	Login(email, phone, password string) (*models.User, string, string, error)
	RegisterCustomer(input RegisterCustomerInput) (*models.User, *models.Customer, error)
	RegisterMerchant(input RegisterMerchantInput) (*models.User, *models.Merchant, error)
	RefreshTokens(refreshToken string) (string, string, error)
	Logout(userID uint) error
	GetUserByID(userID uint) (*models.User, error)
	GetUserTokenVersion(userID uint) (int, error)
}

type service struct {
	userRepo repositories.UserRepository
	store    repositories.LedgerStore
}

// NewService creates a new auth service.
func NewService(userRepo repositories.UserRepository, store repositories.LedgerStore) Service {
	return &service{
		userRepo: userRepo,
		store:    store,
	}
}

func (s *service) Login(email, phone, password string) (*models.User, string, string, error) {
	user, err := s.getUserByIdentifier(email, phone)
	if err != nil {
		log.Printf("login failed: no user for identifier %s", email+phone)
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Printf("login failed: wrong password for user %d", user.ID)
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
	if err != nil {
		log.Println("error generating tokens:", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) RegisterCustomer(input RegisterCustomerInput) (*models.User, *models.Customer, error) {
	hashed, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Email:    input.Email,
		Password: hashed,
		FullName: input.FullName,
		Phone:    input.Phone,
		Role:     models.RoleCustomer,
	}

	defaultLimit := config.DefaultCreditLimit()
	customer := &models.Customer{
		NationalID:     input.NationalID,
		CreditLimit:    defaultLimit,
		AvailableLimit: defaultLimit,
		Address:        input.Address,
		City:           input.City,
	}

	if _, err := s.store.Customers().GetByNationalID(input.NationalID); err == nil {
		return nil, nil, ErrDuplicateAccount
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return nil, nil, ErrDuplicateAccount
		}
		return nil, nil, err
	}

	customer.UserID = user.ID
	if err := s.store.Customers().Create(customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateCustomer) {
			return nil, nil, ErrDuplicateAccount
		}
		return nil, nil, err
	}

	log.Printf("customer registered: user=%d limit=%.2f", user.ID, defaultLimit)
	return user, customer, nil
}

func (s *service) RegisterMerchant(input RegisterMerchantInput) (*models.User, *models.Merchant, error) {
	hashed, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.store.Merchants().GetByCommercialRegistration(input.CommercialRegistration); err == nil {
		return nil, nil, ErrDuplicateAccount
	}

	user := &models.User{
		Email:    input.Email,
		Password: hashed,
		FullName: input.FullName,
		Phone:    input.Phone,
		Role:     models.RoleMerchant,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return nil, nil, ErrDuplicateAccount
		}
		return nil, nil, err
	}

	merchant := &models.Merchant{
		UserID:                 user.ID,
		BusinessName:           input.BusinessName,
		CommercialRegistration: input.CommercialRegistration,
		TaxNumber:              input.TaxNumber,
		BusinessCategory:       input.BusinessCategory,
		BankName:               input.BankName,
		IBAN:                   input.IBAN,
		BusinessAddress:        input.BusinessAddress,
		City:                   input.City,
	}
	if err := s.store.Merchants().Create(merchant); err != nil {
		return nil, nil, err
	}

	log.Printf("merchant registered: user=%d business=%s", user.ID, merchant.BusinessName)
	return user, merchant, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	if user.TokenVersion != claims.TokenVersion {
		return "", "", ErrInvalidToken
	}

	return utils.GenerateTokens(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		Permissions:  models.GetDefaultPermissions(user.Role),
	})
}

func (s *service) Logout(userID uint) error {
	return s.userRepo.IncrementTokenVersion(userID)
}

func (s *service) GetUserByID(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

func (s *service) GetUserTokenVersion(userID uint) (int, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

func (s *service) hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("failed to hash password")
	}
	return string(hashed), nil
}

func (s *service) getUserByIdentifier(email, phone string) (*models.User, error) {
	if email != "" {
		return s.userRepo.GetByEmail(email)
	}
	return s.userRepo.GetByPhone(phone)
}
