package hiring

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

// PathFileStore builds resume URLs from the object path stored on the account.
type PathFileStore struct {
	accounts store.Reader
	baseURL  string
}

func NewPathFileStore(accounts store.Reader, baseURL string) *PathFileStore {
	return &PathFileStore{accounts: accounts, baseURL: strings.TrimRight(baseURL, "/")}
}

func (f *PathFileStore) ResumeURL(ctx context.Context, candidateID string) (string, error) {
	acc, err := f.accounts.GetAccount(ctx, candidateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if acc.ResumePath == "" {
		return "", nil
	}
	return f.baseURL + "/" + acc.ResumePath, nil
}

func cleanResumePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", domain.Validationf("resume path is required")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "..") || strings.Contains(p, "://") {
		return "", domain.Validationf("resume path must be a relative object path")
	}

	segments := strings.Split(path.Clean(p), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/"), nil
}

// SetResumePath records where the candidate's resume was uploaded.
func (e *Engine) SetResumePath(ctx context.Context, candidateID, resumePath string) error {
	cleaned, err := cleanResumePath(resumePath)
	if err != nil {
		return err
	}

	return e.store.Transactionally(ctx, func(tx store.Tx) error {
		acc, err := tx.GetAccountForUpdate(ctx, candidateID)
		if err != nil {
			return errors.Wrapf(err, "load account %s", candidateID)
		}
		if acc.Role != domain.RoleCandidate {
			return errors.Wrap(domain.ErrNotAuthorized, "only candidates have resumes")
		}
		return tx.SetResumePath(ctx, candidateID, cleaned)
	})
}
