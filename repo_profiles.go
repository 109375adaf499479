package gate

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the persistence surface for application profiles. It extends
// the generic repository with lookups keyed by the provider identity and
// with last-login tracking.
type Profiles interface {
	repository.Repository[*Profile]

	GetByAuthUserID(ctx context.Context, authUserID string) (*Profile, error)
	GetByAuthUserIDTx(ctx context.Context, tx bun.IDB, authUserID string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Profile, error)

	GetOrCreate(ctx context.Context, record *Profile) (*Profile, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error)
	Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)

	TrackSuccessfulLogin(ctx context.Context, email string) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, email string) error
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (a *profiles) GetByAuthUserID(ctx context.Context, authUserID string) (*Profile, error) {
	return a.GetByAuthUserIDTx(ctx, a.db, authUserID)
}

func (a *profiles) GetByAuthUserIDTx(ctx context.Context, tx bun.IDB, authUserID string) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.auth_user_id = ?", authUserID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"auth_user_id": authUserID,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *profiles) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *profiles) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *profiles) Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *profiles) CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	prepareProfileDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *profiles) GetOrCreate(ctx context.Context, record *Profile) (*Profile, error) {
	return a.GetOrCreateTx(ctx, a.db, record)
}

func (a *profiles) GetOrCreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error) {
	existing, err := a.GetByAuthUserIDTx(ctx, tx, record.AuthUserID)
	if err == nil {
		return existing, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return a.CreateTx(ctx, tx, record)
}

func (a *profiles) TrackSuccessfulLogin(ctx context.Context, email string) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, email)
}

func (a *profiles) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, email string) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "profiles" AS "prf"
		SET
			"last_login_at" = ?
		WHERE
			("prf".email = ?)
			AND "prf"."deleted_at" IS NULL;
	`, loggedInAt, email).Exec(ctx)

	return err
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleApplicant
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
