package usecase

import (
	"context"

	"github.com/totegamma/repoindex/internal/domain"
)

type UserUsecase struct {
	store UserStore
}

func NewUserUsecase(store UserStore) *UserUsecase {
	return &UserUsecase{store: store}
}

func (uc *UserUsecase) Register(ctx context.Context, input domain.RegisterUserInput) (*domain.User, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, domain.ContractViolationError{Reason: "username, email and password are required"}
	}
	if err := uc.store.RegisterUser(ctx, input); err != nil {
		return nil, err
	}
	return uc.store.GetUser(ctx, input.Did)
}

func (uc *UserUsecase) Get(ctx context.Context, handleOrDid string) (*domain.User, error) {
	return uc.store.GetUser(ctx, handleOrDid)
}

// Authenticate returns the did of username when password matches.
func (uc *UserUsecase) Authenticate(ctx context.Context, username, password string) (string, error) {
	ok, err := uc.store.VerifyUserPassword(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrInvalidCredentials
	}
	return uc.store.GetUserDid(ctx, username)
}

func (uc *UserUsecase) ChangePassword(ctx context.Context, did, password string) error {
	if password == "" {
		return domain.ContractViolationError{Reason: "password is required"}
	}
	return uc.store.UpdateUserPassword(ctx, did, password)
}
