// Package accounts registers owners and checks their credentials. A new
// account starts with an empty tree, the default storage limit and a
// provisioned blob container.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/marmos91/servr/internal/bytesize"
	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/metadata"
)

// DefaultStorageLimit is the quota of a new account when none is configured.
const DefaultStorageLimit = 2 * bytesize.GiB

// Config tunes account creation.
type Config struct {
	// DefaultStorageLimit is the storage_limit of new accounts.
	DefaultStorageLimit bytesize.ByteSize `mapstructure:"default_storage_limit" yaml:"default_storage_limit"`

	// BcryptCost is the bcrypt work factor. Default: 10.
	BcryptCost int `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost" validate:"omitempty,min=4,max=31"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.DefaultStorageLimit == 0 {
		c.DefaultStorageLimit = DefaultStorageLimit
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultBcryptCost
	}
}

// Provisioner creates the blob container of a new owner.
type Provisioner interface {
	ProvisionContainer(ctx context.Context, ownerID uuid.UUID) (string, error)
}

// Service implements sign-up and sign-in.
type Service struct {
	store       metadata.Store
	provisioner Provisioner
	validate    *validator.Validate
	config      Config
	now         func() time.Time
}

// New creates a Service. provisioner may be nil, in which case containers
// are not created on sign-up.
func New(store metadata.Store, provisioner Provisioner, config Config) *Service {
	config.ApplyDefaults()
	return &Service{
		store:       store,
		provisioner: provisioner,
		validate:    validator.New(),
		config:      config,
		now:         time.Now,
	}
}

// SignUpRequest is the input of SignUp.
type SignUpRequest struct {
	Email    string
	Password string

	// StorageLimit overrides the configured default when positive.
	StorageLimit int64
	SuperUser    bool
}

// SignUp creates an account and provisions its container. The email must be
// unused. A failure to provision the container is logged and does not undo
// the account: the owner can provision it later.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*metadata.Account, error) {
	email := strings.TrimSpace(req.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, metadata.WithOp("sign_up", metadata.NewValidationError("invalid email %q", email))
	}

	hash, err := HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		if errors.Is(err, ErrPasswordTooShort) || errors.Is(err, ErrPasswordTooLong) {
			return nil, metadata.WithOp("sign_up", metadata.NewValidationError("%s", err.Error()))
		}
		return nil, metadata.WithOp("sign_up", err)
	}

	limit := req.StorageLimit
	if limit <= 0 {
		limit = s.config.DefaultStorageLimit.Int64()
	}

	account := &metadata.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		SuperUser:    req.SuperUser,
		StorageLimit: limit,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, metadata.WithOp("sign_up", err)
	}

	ctx = logger.AnnotateOwner(ctx, account.ID.String())
	logger.InfoCtx(ctx, "account created", "email", email, "storage_limit", limit)

	if s.provisioner != nil {
		if _, err := s.provisioner.ProvisionContainer(ctx, account.ID); err != nil {
			logger.WarnCtx(ctx, "container provisioning failed after sign-up", logger.Err(err))
		}
	}
	return account, nil
}

// SignIn returns the account matching email and password. Unknown emails,
// wrong passwords and inactive accounts all fail with ErrUnauthorized.
func (s *Service) SignIn(ctx context.Context, email, password string) (*metadata.Account, error) {
	account, err := s.store.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if metadata.CodeOf(err) == metadata.ErrAccountNotFound {
			return nil, unauthorized()
		}
		return nil, metadata.WithOp("sign_in", err)
	}

	if !VerifyPassword(password, account.PasswordHash) || !account.Active {
		logger.DebugCtx(ctx, "sign-in rejected", logger.OwnerID(account.ID.String()))
		return nil, unauthorized()
	}
	return account, nil
}

// Get returns the account of ownerID.
func (s *Service) Get(ctx context.Context, ownerID uuid.UUID) (*metadata.Account, error) {
	account, err := s.store.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, metadata.WithOp("get_account", err)
	}
	return account, nil
}

func unauthorized() error {
	return &metadata.Error{Code: metadata.ErrUnauthorized, Op: "sign_in", Message: "invalid email or password"}
}
