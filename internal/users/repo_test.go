package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/hauler-backend/pkg/db/dbtest"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryUserFlow(t *testing.T) {
	repo := NewRepository(dbtest.OpenDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "  Owner@Acme.Test ",
		PasswordHash: "hash",
		DisplayName:  " Acme Supply ",
		Role:         enums.UserRoleSupplier,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "owner@acme.test", created.Email)
	assert.Equal(t, "Acme Supply", created.DisplayName)

	byEmail, err := repo.FindByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "owner@acme.test", PasswordHash: "x", DisplayName: "Dup", Role: enums.UserRoleClient})
	require.Error(t, err, "email is unique")

	at := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))
	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	assert.True(t, byID.LastLoginAt.Equal(at))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	dto := FromModel(byID)
	assert.Equal(t, enums.UserRoleSupplier, dto.Role)
}
