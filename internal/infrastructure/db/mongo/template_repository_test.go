//go:build integration

package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
	"github.com/recruitly/template-service/internal/core/service"
)

var (
	once      sync.Once
	sharedURI string
	initErr   error
)

// setupDB starts one replica-set MongoDB container for the whole run and
// returns a fresh database per test.
func setupDB(t *testing.T) *mongo.Database {
	t.Helper()

	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		container, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
		if err != nil {
			initErr = err
			return
		}
		sharedURI, initErr = container.ConnectionString(ctx)
	})
	require.NoError(t, initErr, "start mongo container")

	client, db, err := Connect(context.Background(), Config{URI: sharedURI, Database: fmt.Sprintf("tpl_%d", time.Now().UnixNano())})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func newRepo(t *testing.T) *TemplateRepository {
	t.Helper()
	repo := NewTemplateRepository(setupDB(t), zerolog.Nop())
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	return repo
}

func insertInvite(t *testing.T, repo *TemplateRepository, name string, isDefault bool) *domain.Template {
	t.Helper()
	tpl, err := repo.Insert(context.Background(), &domain.Template{
		Name:           name,
		Type:           domain.TypeJobApplyInvite,
		Subject:        "Hi {{candidateName}}",
		HTMLBody:       "<p>Hi</p>",
		IsActive:       true,
		IsDefault:      isDefault,
		CreatedBy:      "admin-1",
		LastModifiedBy: "admin-1",
		Version:        1,
	})
	require.NoError(t, err)
	return tpl
}

func TestTemplateRepository_InsertAndFind(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	created := insertInvite(t, repo, "Invite A", false)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.FindOne(ctx, ports.TemplateFilter{ID: created.ID}, ports.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Invite A", got.Name)
	assert.Equal(t, []domain.Variable{}, got.Variables)

	_, err = repo.FindOne(ctx, ports.TemplateFilter{ID: "not-an-object-id"}, ports.FindOptions{})
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestTemplateRepository_UniqueName(t *testing.T) {
	repo := newRepo(t)

	insertInvite(t, repo, "Invite A", false)
	_, err := repo.Insert(context.Background(), &domain.Template{Name: "Invite A", Type: domain.TypeEmployerWelcome, Subject: "s", HTMLBody: "b"})

	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestTemplateRepository_SecondDefaultRejectedByIndex(t *testing.T) {
	repo := newRepo(t)

	insertInvite(t, repo, "Invite A", true)
	_, err := repo.Insert(context.Background(), &domain.Template{
		Name: "Invite B", Type: domain.TypeJobApplyInvite, Subject: "s", HTMLBody: "b", IsDefault: true,
	})

	assert.ErrorIs(t, err, domain.ErrDefaultConflict)
}

func TestTemplateRepository_SelectionOrder(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	def := insertInvite(t, repo, "Default", true)
	time.Sleep(5 * time.Millisecond)
	newer := insertInvite(t, repo, "Newer", false)

	got, err := repo.FindOne(ctx, ports.TemplateFilter{Type: domain.TypeJobApplyInvite}, ports.FindOptions{Sort: ports.SortSelection})
	require.NoError(t, err)
	assert.Equal(t, def.ID, got.ID)

	got, err = repo.FindOne(ctx, ports.TemplateFilter{Type: domain.TypeJobApplyInvite}, ports.FindOptions{Sort: ports.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestTemplateRepository_PatchAndCounters(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	tpl := insertInvite(t, repo, "Invite A", false)

	text := "plain"
	updated, err := repo.UpdateOne(ctx, ports.TemplateFilter{ID: tpl.ID}, ports.TemplatePatch{
		TextBody:       &text,
		LastModifiedBy: "admin-2",
		IncVersion:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "plain", updated.TextBody)
	assert.Equal(t, "admin-2", updated.LastModifiedBy)

	empty := ""
	at := time.Now().UTC().Truncate(time.Millisecond)
	updated, err = repo.UpdateOne(ctx, ports.TemplateFilter{ID: tpl.ID}, ports.TemplatePatch{
		TextBody:   &empty,
		IncUsage:   true,
		LastUsedAt: &at,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.TextBody)
	assert.EqualValues(t, 1, updated.UsageCount)
	require.NotNil(t, updated.LastUsedAt)
	assert.True(t, at.Equal(*updated.LastUsedAt))
	assert.Equal(t, 2, updated.Version)
}

func TestTemplateRepository_TransactionRollsBack(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	def := insertInvite(t, repo, "Default", true)
	other := insertInvite(t, repo, "Other", false)

	boom := errors.New("boom")
	err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.UpdateMany(ctx, ports.TemplateFilter{
			Type: domain.TypeJobApplyInvite, IsDefault: ports.BoolPtr(true), ExcludeID: other.ID,
		}, ports.TemplatePatch{IsDefault: ports.BoolPtr(false)})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.FindOne(ctx, ports.TemplateFilter{ID: def.ID}, ports.FindOptions{})
	require.NoError(t, err)
	assert.True(t, got.IsDefault, "cleared flag must be rolled back")
}

func TestTemplateRepository_DeleteOne(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	tpl := insertInvite(t, repo, "Invite A", false)

	require.NoError(t, repo.DeleteOne(ctx, tpl.ID))
	assert.ErrorIs(t, repo.DeleteOne(ctx, tpl.ID), domain.ErrTemplateNotFound)

	n, err := repo.Count(ctx, ports.TemplateFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTemplateRepository_MoveDefaultIntoOccupiedType(t *testing.T) {
	for _, withTxn := range []bool{true, false} {
		t.Run(fmt.Sprintf("transactions=%v", withTxn), func(t *testing.T) {
			repo := newRepo(t)
			if !withTxn {
				repo.DisableTransactions()
			}
			ctx := context.Background()
			log := zerolog.Nop()
			svc := service.NewTemplateService(repo, service.NewSelector(repo, nil, log), service.NewDefaultEnforcer(repo, log), log)

			invite := insertInvite(t, repo, "Invite A", true)
			welcome, err := repo.Insert(ctx, &domain.Template{
				Name: "Welcome", Type: domain.TypeEmployerWelcome, Subject: "s", HTMLBody: "b",
				IsActive: true, IsDefault: true, CreatedBy: "admin-1", LastModifiedBy: "admin-1", Version: 1,
			})
			require.NoError(t, err)

			newType := domain.TypeEmployerWelcome
			moved, err := svc.Update(ctx, invite.ID, ports.UpdateTemplateInput{Type: &newType}, "admin-2")
			require.NoError(t, err)
			assert.True(t, moved.IsDefault)
			assert.Equal(t, domain.TypeEmployerWelcome, moved.Type)

			prev, err := repo.FindOne(ctx, ports.TemplateFilter{ID: welcome.ID}, ports.FindOptions{})
			require.NoError(t, err)
			assert.False(t, prev.IsDefault)

			n, err := repo.Count(ctx, ports.TemplateFilter{Type: domain.TypeEmployerWelcome, IsDefault: ports.BoolPtr(true)})
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
		})
	}
}
