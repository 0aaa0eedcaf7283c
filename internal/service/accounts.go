package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/goods-ledger/internal/crypto"
	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/limiter"
	"github.com/and161185/goods-ledger/internal/model"
	"github.com/and161185/goods-ledger/internal/repository"
)

// Login authenticates with rate limiting by (username, ip), rotates the account
// token with one ledger write and returns the account carrying the new token.
func (r *Registry) Login(ctx context.Context, in model.LoginInput, ip string) (model.AccountView, error) {
	if err := in.Validate(); err != nil {
		return model.AccountView{}, err
	}
	ipHash := limiter.HashIP(ip)

	allowed, wait, err := r.lim.Allow(ctx, in.Username, ipHash)
	if err != nil {
		return model.AccountView{}, fmt.Errorf("login: %w", err)
	}
	if !allowed {
		r.metrics.Login("rate_limited")
		return model.AccountView{}, &errs.RateLimitError{RetryAfter: wait}
	}

	acc, err := first[model.Account](ctx, r.ledger, ledger.QueryAccountByUsername, in.Username)
	if errors.Is(err, errs.ErrNotFound) {
		return model.AccountView{}, r.loginFailed(ctx, in.Username, ipHash, "not_found",
			fmt.Errorf("account %q: %w", in.Username, errs.ErrNotFound))
	}
	if err != nil {
		r.metrics.Login("error")
		return model.AccountView{}, err
	}

	ok, err := pkgcrypto.VerifyPassword(in.Password, acc.AccountPassword)
	if err != nil {
		r.metrics.Login("error")
		return model.AccountView{}, err
	}
	if !ok {
		return model.AccountView{}, r.loginFailed(ctx, in.Username, ipHash, "unauthorized",
			fmt.Errorf("wrong password: %w", errs.ErrUnauthorized))
	}

	if acc.Key == "" {
		r.metrics.Login("error")
		return model.AccountView{}, fmt.Errorf("account record without key: %w", errs.ErrLedger)
	}
	token, err := r.tokens.Issue(acc.Key)
	if err != nil {
		r.metrics.Login("error")
		return model.AccountView{}, err
	}
	if _, err := r.ledger.Submit(ctx, ledger.TxUpdateAccountToken, acc.Key, token); err != nil {
		r.metrics.Login("error")
		return model.AccountView{}, err
	}

	if err := r.lim.Success(ctx, in.Username, ipHash); err != nil {
		r.log.Warn("limiter reset", zap.Error(err))
	}
	r.metrics.Login("ok")

	acc.AccountToken = token
	return acc.View(), nil
}

// loginFailed records the failure and upgrades cause to a rate limit when this attempt tripped the lockout.
func (r *Registry) loginFailed(ctx context.Context, username string, ipHash []byte, result string, cause error) error {
	blocked, wait, err := r.lim.Failure(ctx, username, ipHash)
	if err != nil {
		r.log.Warn("limiter failure", zap.Error(err))
	}
	if blocked {
		r.metrics.Login("rate_limited")
		return &errs.RateLimitError{RetryAfter: wait}
	}
	r.metrics.Login(result)
	return cause
}

// RegisterAccount creates an account after checking username and email are free
// and the confirmation matches. All checks run before any write.
func (r *Registry) RegisterAccount(ctx context.Context, in model.RegisterAccountInput) (model.AccountView, error) {
	if err := in.Validate(); err != nil {
		return model.AccountView{}, err
	}

	taken, err := exists[model.Account](ctx, r.ledger, ledger.QueryAccountByUsername, in.Username)
	if err != nil {
		return model.AccountView{}, err
	}
	if taken {
		return model.AccountView{}, fmt.Errorf("username %q: %w", in.Username, errs.ErrConflict)
	}
	taken, err = exists[model.Account](ctx, r.ledger, ledger.QueryAccountByEmail, in.Email)
	if err != nil {
		return model.AccountView{}, err
	}
	if taken {
		return model.AccountView{}, fmt.Errorf("email %q: %w", in.Email, errs.ErrConflict)
	}
	if !pkgcrypto.PasswordsMatch(in.Password, in.ConfirmedPassword) {
		return model.AccountView{}, fmt.Errorf("password confirmation does not match: %w", errs.ErrConflict)
	}

	key := pkgcrypto.AccountKey(in.Type, in.Email, in.Username)
	hash, err := pkgcrypto.HashPassword(in.Password)
	if err != nil {
		return model.AccountView{}, err
	}
	token, err := r.tokens.Issue(key)
	if err != nil {
		return model.AccountView{}, err
	}

	gotUsername, err := r.claims.Claim(ctx, repository.KindUsername, in.Username, key)
	if err != nil {
		return model.AccountView{}, err
	}
	gotEmail, err := r.claims.Claim(ctx, repository.KindEmail, in.Email, key)
	if err != nil {
		if gotUsername {
			r.release(ctx, repository.KindUsername, in.Username, key)
		}
		return model.AccountView{}, err
	}

	acc := model.Account{
		Key:                        key,
		AccountToken:               token,
		AccountType:                in.Type,
		AccountName:                in.Name,
		AccountUsername:            in.Username,
		AccountEmail:               in.Email,
		AccountPassword:            hash,
		AccountOwnerManufacturerID: in.OwnerManufacturerID,
		DocType:                    model.DocTypeAccount,
	}
	_, err = r.ledger.Submit(ctx, ledger.TxRegisterAccount,
		acc.Key, acc.AccountToken, acc.AccountType, acc.AccountName, acc.AccountUsername,
		acc.AccountEmail, acc.AccountPassword, acc.AccountOwnerManufacturerID, acc.DocType)
	if err != nil {
		// a concurrent registration of the same tuple shares the key and owns the claims
		if gotUsername {
			r.release(ctx, repository.KindUsername, in.Username, key)
		}
		if gotEmail {
			r.release(ctx, repository.KindEmail, in.Email, key)
		}
		return model.AccountView{}, err
	}
	return acc.View(), nil
}

// UpdateAccount changes name, email and phone. The email may stay the same;
// it conflicts only when another account holds it.
func (r *Registry) UpdateAccount(ctx context.Context, in model.AccountUpdate) (model.AccountUpdate, error) {
	if err := in.Validate(); err != nil {
		return model.AccountUpdate{}, err
	}
	if err := r.authorize(in.Token, in.Key); err != nil {
		return model.AccountUpdate{}, err
	}

	holders, err := query[model.Account](ctx, r.ledger, ledger.QueryAccountByEmail, in.Email)
	if err != nil {
		return model.AccountUpdate{}, err
	}
	for _, h := range holders {
		if h.Key != in.Key {
			return model.AccountUpdate{}, fmt.Errorf("email %q: %w", in.Email, errs.ErrConflict)
		}
	}

	created, err := r.claims.Claim(ctx, repository.KindEmail, in.Email, in.Key)
	if err != nil {
		return model.AccountUpdate{}, err
	}
	if _, err := r.ledger.Submit(ctx, ledger.TxUpdateAccount, in.Key, in.Token, in.Name, in.Email, in.PhoneNumber); err != nil {
		if created {
			r.release(ctx, repository.KindEmail, in.Email, in.Key)
		}
		return model.AccountUpdate{}, err
	}
	if err := r.claims.Prune(context.WithoutCancel(ctx), repository.KindEmail, in.Key, in.Email); err != nil {
		r.log.Warn("prune email claims", zap.Error(err))
	}
	return in, nil
}

// UpdateAccountToken stores a token previously issued for the account.
func (r *Registry) UpdateAccountToken(ctx context.Context, in model.AccountTokenUpdate) (model.AccountTokenUpdate, error) {
	if err := in.Validate(); err != nil {
		return model.AccountTokenUpdate{}, err
	}
	if err := r.authorize(in.Token, in.Key); err != nil {
		return model.AccountTokenUpdate{}, err
	}
	if _, err := r.ledger.Submit(ctx, ledger.TxUpdateAccountToken, in.Key, in.Token); err != nil {
		return model.AccountTokenUpdate{}, err
	}
	return in, nil
}
