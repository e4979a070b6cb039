// Package mappers converts between domain aggregates and persistence models.
// The models are the anti-corruption layer; nothing outside infrastructure
// sees them.
package mappers

import (
	"github.com/vetiver-net/vetiver/internal/domain/user"
	"github.com/vetiver-net/vetiver/internal/infrastructure/persistence/models"
)

// UserMapper handles the conversion between domain entities and persistence models
type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(model *models.UserModel) *user.User {
	if model == nil {
		return nil
	}
	return user.ReconstructUser(
		model.ID,
		model.Email,
		model.Balance,
		model.Credit,
		model.PriceMultiplier,
		model.PaymentAccess,
		model.Admin,
		model.Flagged,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *UserMapper) ToModel(entity *user.User) *models.UserModel {
	if entity == nil {
		return nil
	}
	return &models.UserModel{
		ID:              entity.ID(),
		Email:           entity.Email(),
		Balance:         entity.Balance(),
		Credit:          entity.Credit(),
		PriceMultiplier: entity.PriceMultiplier(),
		PaymentAccess:   entity.PaymentAccess(),
		Admin:           entity.IsAdmin(),
		Flagged:         entity.IsFlagged(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}
}
