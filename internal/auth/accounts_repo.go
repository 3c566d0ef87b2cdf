package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/pushstats/internal/telemetry/tracing"
	"github.com/2beens/pushstats/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// AccountsRepo stores user accounts:
//
//	accounts (
//		id            uuid primary key,
//		email         text unique not null,
//		name          text not null,
//		password_hash text not null,
//		confirm_token text,
//		confirmed_at  timestamptz,
//		created_at    timestamptz not null default now()
//	)
type AccountsRepo struct {
	db *pgxpool.Pool
}

func NewAccountsRepo(db *pgxpool.Pool) *AccountsRepo {
	return &AccountsRepo{
		db: db,
	}
}

func (r *AccountsRepo) Add(ctx context.Context, account Account) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("account.id", account.ID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO accounts
				(id, email, name, password_hash, confirm_token, confirmed_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		account.ID, account.Email, account.Name,
		account.PasswordHash, account.ConfirmToken,
		account.ConfirmedAt, account.CreatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailInUse
		}
		return err
	}
	return nil
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.getByEmail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(
		ctx,
		`SELECT id, email, name, password_hash, confirm_token, confirmed_at, created_at
			FROM accounts WHERE email = $1;`,
		email,
	)
}

func (r *AccountsRepo) Get(ctx context.Context, id string) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("account.id", id))

	return r.getOne(
		ctx,
		`SELECT id, email, name, password_hash, confirm_token, confirmed_at, created_at
			FROM accounts WHERE id = $1;`,
		id,
	)
}

// Confirm marks the account holding the given confirmation token as
// confirmed, and spends the token.
func (r *AccountsRepo) Confirm(ctx context.Context, confirmToken string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.confirm")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE accounts
			SET confirmed_at = $1, confirm_token = NULL
			WHERE confirm_token = $2 AND confirmed_at IS NULL;`,
		time.Now(), confirmToken,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfirmTokenInvalid
	}
	return nil
}

func (r *AccountsRepo) getOne(ctx context.Context, query string, arg any) (*Account, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrInvalidCredentials
	}

	var a Account
	var confirmToken *string
	if err := rows.Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash,
		&confirmToken, &a.ConfirmedAt, &a.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}
	if confirmToken != nil {
		a.ConfirmToken = *confirmToken
	}
	return &a, nil
}
